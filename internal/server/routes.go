package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.healthz)

	pub := r.Group("/api")
	pub.GET("/postcodes/:postcode/validate", resolve(s.validatePostcode))
	pub.GET("/prayers", resolve(s.prayers))
	pub.GET("/prayers/forecast", resolve(s.forecast))
	pub.GET("/prayers/forecast/export", s.forecastExport)

	pub.POST("/auth/signup", resolveCreated(s.signup))
	pub.POST("/auth/login", resolve(s.login))

	pub.POST("/reminders/signup", resolveCreated(s.reminderSignup))

	pub.POST("/mosques", resolveCreated(s.createMosque))
	pub.GET("/mosques", resolve(s.listMosques))
	pub.GET("/mosques/:id", resolve(s.getMosque))
	pub.POST("/mosques/:id/iqama", resolveCreated(s.submitIqama))
	pub.POST("/mosques/:id/donations", resolveCreated(s.createDonation))
	pub.GET("/mosques/:id/donations/summary", resolve(s.donationSummary))

	pub.POST("/widgets", resolveCreated(s.createWidget))
	pub.GET("/widgets/:id/embed", resolve(s.widgetEmbed))

	account := r.Group("/api/account", s.requireAuth())
	account.GET("", resolve(s.getAccount))
	account.PUT("", resolve(s.updateAccount))
	account.GET("/notifications", resolve(s.getNotifications))
	account.PUT("/notifications", resolve(s.updateNotifications))
	account.GET("/preferences", resolve(s.getPreferences))
	account.PUT("/preferences", resolve(s.updatePreferences))
}

func (s *Server) healthz(c *gin.Context) {
	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handlerFunc returns a response body or an error.
type handlerFunc func(c *gin.Context) (any, error)

func resolve(h handlerFunc) gin.HandlerFunc {
	return respond(h, http.StatusOK)
}

func resolveCreated(h handlerFunc) gin.HandlerFunc {
	return respond(h, http.StatusCreated)
}

func respond(h handlerFunc, status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(status, result)
	}
}
