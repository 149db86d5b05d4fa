package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/salahclock/internal/auth"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Postcode string `json:"postcode" binding:"omitempty,ukpostcode"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Account *store.Account `json:"account"`
}

// optionalPostcode normalizes a postcode, mapping empty to nil.
func optionalPostcode(raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	pc, err := geo.NormalizePostcode(raw)
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

// optionalString trims s, mapping empty to nil.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *Server) signup(c *gin.Context) (any, error) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	postcode, err := optionalPostcode(req.Postcode)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, badRequest("%s", err.Error())
	}

	account, err := s.store.CreateAccount(c.Request.Context(), req.Email, hash, postcode)
	if err != nil {
		if store.IsConflict(err) {
			return nil, &httpError{Code: http.StatusConflict, Message: "an account with this email already exists"}
		}
		return nil, err
	}

	token, err := s.issuer.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	return authResponse{Token: token, Account: account}, nil
}

func (s *Server) login(c *gin.Context) (any, error) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	account, err := s.store.AccountByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(account.PasswordHash, req.Password) {
		return nil, auth.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	return authResponse{Token: token, Account: account}, nil
}

func (s *Server) getAccount(c *gin.Context) (any, error) {
	return currentAccount(c)
}

type accountRequest struct {
	Postcode string `json:"postcode" binding:"omitempty,ukpostcode"`
}

// updateAccount sets the profile postcode. An empty postcode clears it.
func (s *Server) updateAccount(c *gin.Context) (any, error) {
	account, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	postcode, err := optionalPostcode(req.Postcode)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateAccountPostcode(c.Request.Context(), account.ID, postcode)
}

func (s *Server) getNotifications(c *gin.Context) (any, error) {
	account, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	return s.store.NotificationSettings(c.Request.Context(), account.ID)
}

type notificationsRequest struct {
	EnableEmail      bool   `json:"enable_email"`
	EnablePush       bool   `json:"enable_push"`
	EnableSMS        bool   `json:"enable_sms"`
	NotificationTime string `json:"notification_time" binding:"omitempty,clock"`
	DeviceToken      string `json:"device_token" binding:"max=512"`
}

func (s *Server) updateNotifications(c *gin.Context) (any, error) {
	account, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	var req notificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	return s.store.UpsertNotificationSettings(c.Request.Context(), store.NotificationSettings{
		UserID:           account.ID,
		EnableEmail:      req.EnableEmail,
		EnablePush:       req.EnablePush,
		EnableSMS:        req.EnableSMS,
		NotificationTime: optionalString(req.NotificationTime),
		DeviceToken:      optionalString(req.DeviceToken),
	})
}

func (s *Server) getPreferences(c *gin.Context) (any, error) {
	account, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	return s.store.Preferences(c.Request.Context(), account.ID)
}

type preferencesRequest struct {
	DefaultPostcode    string `json:"default_postcode" binding:"omitempty,ukpostcode"`
	PrayerMethod       *int   `json:"prayer_method" binding:"omitempty,prayermethod"`
	UseCurrentLocation bool   `json:"use_current_location"`
}

// updatePreferences replaces the preferences. A missing method keeps the default.
func (s *Server) updatePreferences(c *gin.Context) (any, error) {
	account, err := currentAccount(c)
	if err != nil {
		return nil, err
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	postcode, err := optionalPostcode(req.DefaultPostcode)
	if err != nil {
		return nil, err
	}
	method := store.DefaultPrayerMethod
	if req.PrayerMethod != nil {
		method = *req.PrayerMethod
	}

	return s.store.UpsertPreferences(c.Request.Context(), store.Preferences{
		UserID:             account.ID,
		DefaultPostcode:    postcode,
		PrayerMethod:       method,
		UseCurrentLocation: req.UseCurrentLocation,
	})
}
