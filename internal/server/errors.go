package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
	"github.com/smokyabdulrahman/salahclock/internal/auth"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

// httpError carries an explicit status.
type httpError struct {
	Code    int
	Message string
}

func (e *httpError) Error() string { return e.Message }

func badRequest(format string, a ...any) error {
	return &httpError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, a...)}
}

var errUnauthorized = &httpError{Code: http.StatusUnauthorized, Message: "unauthorized"}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var he *httpError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	}

	switch apperr.KindOf(err) {
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.NetworkFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the text shown to clients. Internal failures never leak details.
func messageFor(err error, status int) string {
	var he *httpError
	switch {
	case errors.As(err, &he):
		return he.Message
	case errors.Is(err, store.ErrConflict):
		return "already exists"
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return err.Error()
	case status == http.StatusInternalServerError:
		return "internal error"
	}
	return apperr.UserMessage(err)
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": messageFor(err, status)})
}

// bindError turns a binding failure into a 400 with a readable message.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("invalid request body")
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return badRequest("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "ukpostcode":
		return geo.InvalidPostcodeMessage
	case "clock":
		return field + " must be a time in HH:MM format"
	case "prayermethod":
		return field + " must be a supported calculation method"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a URL"
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
