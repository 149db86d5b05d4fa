package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/salahclock/internal/store"
)

const currentAccountKey = "currentAccount"

// requireAuth checks "Authorization: Bearer <token>", verifies it, loads the
// account and sets it in the context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeError(c, &httpError{Code: errUnauthorized.Code, Message: "missing auth header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(c, &httpError{Code: errUnauthorized.Code, Message: "invalid auth header"})
			return
		}

		userID, err := s.issuer.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(c, err)
			return
		}

		account, err := s.store.AccountByID(c.Request.Context(), userID)
		if err != nil {
			writeError(c, &httpError{Code: errUnauthorized.Code, Message: "account not found"})
			return
		}

		c.Set(currentAccountKey, account)
		c.Next()
	}
}

// currentAccount retrieves the account set by requireAuth.
func currentAccount(c *gin.Context) (*store.Account, error) {
	v, ok := c.Get(currentAccountKey)
	if !ok {
		return nil, errUnauthorized
	}
	a, ok := v.(*store.Account)
	if !ok {
		return nil, errUnauthorized
	}
	return a, nil
}
