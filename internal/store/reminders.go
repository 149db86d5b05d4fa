package store

import (
	"context"
	"time"
)

// CreateReminderSignup records a public reminder signup.
func (s *Store) CreateReminderSignup(ctx context.Context, name, email string, phone *string, postcode string) (*ReminderSignup, error) {
	r := &ReminderSignup{
		ID:        newID(),
		Name:      name,
		Email:     normalizeEmail(email),
		Phone:     phone,
		Postcode:  postcode,
		CreatedAt: s.timestamp(),
	}
	err := s.exec(ctx, "store.CreateReminderSignup", false,
		`INSERT INTO reminder_signups (id, name, email, phone, postcode, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Email, r.Phone, r.Postcode, r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ReminderSignups lists signups, oldest first.
func (s *Store) ReminderSignups(ctx context.Context) ([]ReminderSignup, error) {
	var out []ReminderSignup
	if err := s.selectAll(ctx, "store.ReminderSignups", &out,
		`SELECT * FROM reminder_signups ORDER BY created_at, id`); err != nil {
		return nil, err
	}
	return out, nil
}

// ReminderRecipients returns everyone due a daily email: account holders with
// email notifications enabled, then public signups. Each address appears once.
// An account takes precedence over a signup for the same address, but a
// signup fills in the postcode and name the account lacks. Recipients with no
// postcode anywhere are included with an empty Postcode.
func (s *Store) ReminderRecipients(ctx context.Context) ([]Recipient, error) {
	var accounts []Recipient
	if err := s.selectAll(ctx, "store.ReminderRecipients", &accounts,
		`SELECT a.email AS email, '' AS name, COALESCE(a.postcode, '') AS postcode
		 FROM user_accounts a
		 JOIN user_notification_settings n ON n.user_id = a.id
		 WHERE n.enable_email = ?
		 ORDER BY a.created_at, a.id`, true); err != nil {
		return nil, err
	}

	signups, err := s.ReminderSignups(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(accounts)+len(signups))
	out := make([]Recipient, 0, len(accounts)+len(signups))
	add := func(r Recipient) {
		key := normalizeEmail(r.Email)
		if key == "" {
			return
		}
		if i, ok := index[key]; ok {
			if out[i].Postcode == "" {
				out[i].Postcode = r.Postcode
			}
			if out[i].Name == "" {
				out[i].Name = r.Name
			}
			return
		}
		index[key] = len(out)
		r.Email = key
		out = append(out, r)
	}
	for _, r := range accounts {
		add(r)
	}
	for _, su := range signups {
		add(Recipient{Email: su.Email, Name: su.Name, Postcode: su.Postcode})
	}
	return out, nil
}

// WasDelivered reports whether the reminder for day already went to recipient.
func (s *Store) WasDelivered(ctx context.Context, recipient, day string) (bool, error) {
	var n int
	if err := s.get(ctx, "store.WasDelivered", &n,
		`SELECT COUNT(*) FROM reminder_deliveries WHERE recipient = ? AND day = ?`,
		normalizeEmail(recipient), day); err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkDelivered records that the reminder for day went to recipient. Marking
// twice is a no-op.
func (s *Store) MarkDelivered(ctx context.Context, recipient, day string, at time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr("store.MarkDelivered", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO reminder_deliveries (recipient, day, sent_at) VALUES (?, ?, ?)
		 ON CONFLICT (recipient, day) DO NOTHING`),
		normalizeEmail(recipient), day, at.UTC()); err != nil {
		return mapErr("store.MarkDelivered", err)
	}
	if err := tx.Commit(); err != nil {
		return mapErr("store.MarkDelivered", err)
	}
	return nil
}
