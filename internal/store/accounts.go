package store

import (
	"context"
	"strings"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

// CreateAccount inserts a new account. Emails are stored lower-cased and must be unique.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string, postcode *string) (*Account, error) {
	now := s.timestamp()
	a := &Account{
		ID:           newID(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Postcode:     postcode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.exec(ctx, "store.CreateAccount", false,
		`INSERT INTO user_accounts (id, email, password_hash, postcode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.PasswordHash, a.Postcode, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AccountByEmail looks an account up by email, case-insensitively.
func (s *Store) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	var a Account
	if err := s.get(ctx, "store.AccountByEmail", &a,
		`SELECT * FROM user_accounts WHERE email = ?`, normalizeEmail(email)); err != nil {
		return nil, err
	}
	return &a, nil
}

// AccountByID looks an account up by id.
func (s *Store) AccountByID(ctx context.Context, id string) (*Account, error) {
	var a Account
	if err := s.get(ctx, "store.AccountByID", &a,
		`SELECT * FROM user_accounts WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccountPostcode sets or clears (nil) the account's postcode.
func (s *Store) UpdateAccountPostcode(ctx context.Context, id string, postcode *string) (*Account, error) {
	if err := s.exec(ctx, "store.UpdateAccountPostcode", true,
		`UPDATE user_accounts SET postcode = ?, updated_at = ? WHERE id = ?`,
		postcode, s.timestamp(), id); err != nil {
		return nil, err
	}
	return s.AccountByID(ctx, id)
}

// NotificationSettings returns the user's settings. A user who never saved
// any gets the defaults: every channel off.
func (s *Store) NotificationSettings(ctx context.Context, userID string) (*NotificationSettings, error) {
	var n NotificationSettings
	err := s.get(ctx, "store.NotificationSettings", &n,
		`SELECT * FROM user_notification_settings WHERE user_id = ?`, userID)
	if apperr.Is(err, apperr.NotFound) {
		return &NotificationSettings{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// UpsertNotificationSettings creates or replaces the user's settings.
func (s *Store) UpsertNotificationSettings(ctx context.Context, n NotificationSettings) (*NotificationSettings, error) {
	n.UpdatedAt = s.timestamp()
	err := s.exec(ctx, "store.UpsertNotificationSettings", false,
		`INSERT INTO user_notification_settings
		   (user_id, enable_email, enable_push, enable_sms, notification_time, device_token, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   enable_email = excluded.enable_email,
		   enable_push = excluded.enable_push,
		   enable_sms = excluded.enable_sms,
		   notification_time = excluded.notification_time,
		   device_token = excluded.device_token,
		   updated_at = excluded.updated_at`,
		n.UserID, n.EnableEmail, n.EnablePush, n.EnableSMS, n.NotificationTime, n.DeviceToken, n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Preferences returns the user's preferences, defaulting to the MWL method.
func (s *Store) Preferences(ctx context.Context, userID string) (*Preferences, error) {
	var p Preferences
	err := s.get(ctx, "store.Preferences", &p,
		`SELECT * FROM user_preferences WHERE user_id = ?`, userID)
	if apperr.Is(err, apperr.NotFound) {
		return &Preferences{UserID: userID, PrayerMethod: DefaultPrayerMethod}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DefaultPrayerMethod is the Al Adhan id stored for users without preferences.
const DefaultPrayerMethod = 3

// UpsertPreferences creates or replaces the user's preferences.
func (s *Store) UpsertPreferences(ctx context.Context, p Preferences) (*Preferences, error) {
	p.UpdatedAt = s.timestamp()
	err := s.exec(ctx, "store.UpsertPreferences", false,
		`INSERT INTO user_preferences (user_id, default_postcode, prayer_method, use_current_location, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   default_postcode = excluded.default_postcode,
		   prayer_method = excluded.prayer_method,
		   use_current_location = excluded.use_current_location,
		   updated_at = excluded.updated_at`,
		p.UserID, p.DefaultPostcode, p.PrayerMethod, p.UseCurrentLocation, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
