package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

type widgetRequest struct {
	Postcode string `json:"postcode" binding:"required,ukpostcode"`
	Theme    string `json:"theme" binding:"omitempty,oneof=light dark"`
	Size     string `json:"size" binding:"omitempty,oneof=small medium large"`
}

type widgetView struct {
	*store.Widget
	EmbedURL string `json:"embed_url"`
}

func (s *Server) createWidget(c *gin.Context) (any, error) {
	var req widgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	pc, err := geo.NormalizePostcode(req.Postcode)
	if err != nil {
		return nil, err
	}

	w, err := s.store.CreateWidget(c.Request.Context(), pc, req.Theme, req.Size, nil)
	if err != nil {
		return nil, err
	}
	return widgetView{Widget: w, EmbedURL: "/api/widgets/" + w.ID + "/embed"}, nil
}

type embedView struct {
	Widget   *store.Widget `json:"widget"`
	Schedule scheduleView  `json:"schedule"`
	Views    int64         `json:"views"`
}

// widgetEmbed returns today's schedule for the widget's postcode and counts
// the view. A failed count does not fail the request.
func (s *Server) widgetEmbed(c *gin.Context) (any, error) {
	ctx := c.Request.Context()
	w, err := s.store.Widget(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}

	now := s.today()
	day, err := s.schedules.Day(ctx, schedule.PostcodeQuery(w.Postcode), now)
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordWidgetView(ctx, w.ID, now); err != nil {
		log.Warn().Err(err).Str("widget", w.ID).Msg("could not record widget view")
	}
	views, err := s.store.WidgetViews(ctx, w.ID)
	if err != nil {
		log.Warn().Err(err).Str("widget", w.ID).Msg("could not count widget views")
	}

	return embedView{Widget: w, Schedule: s.viewOf(day.At(now, s.policy)), Views: views}, nil
}
