package store

import (
	"context"
	"strings"
)

// NewMosque holds the fields an admin supplies for a mosque profile.
type NewMosque struct {
	Name              string
	AdminEmail        string
	Postcode          string
	Address           *string
	Phone             *string
	WebsiteURL        *string
	DonationGoalPence *int64
}

// CreateMosque inserts an unapproved mosque.
func (s *Store) CreateMosque(ctx context.Context, in NewMosque) (*Mosque, error) {
	now := s.timestamp()
	m := &Mosque{
		ID:                newID(),
		Name:              strings.TrimSpace(in.Name),
		AdminEmail:        normalizeEmail(in.AdminEmail),
		Postcode:          in.Postcode,
		Address:           in.Address,
		Phone:             in.Phone,
		WebsiteURL:        in.WebsiteURL,
		DonationGoalPence: in.DonationGoalPence,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := s.exec(ctx, "store.CreateMosque", false,
		`INSERT INTO mosques
		   (id, name, admin_email, postcode, address, phone, website_url, donation_goal_pence, approved, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.AdminEmail, m.Postcode, m.Address, m.Phone, m.WebsiteURL, m.DonationGoalPence,
		m.Approved, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Mosque returns a mosque by id, approved or not.
func (s *Store) Mosque(ctx context.Context, id string) (*Mosque, error) {
	var m Mosque
	if err := s.get(ctx, "store.Mosque", &m, `SELECT * FROM mosques WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// ApprovedMosques lists approved mosques by name.
func (s *Store) ApprovedMosques(ctx context.Context) ([]Mosque, error) {
	var out []Mosque
	if err := s.selectAll(ctx, "store.ApprovedMosques", &out,
		`SELECT * FROM mosques WHERE approved = ? ORDER BY name, id`, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveMosque marks a mosque approved.
func (s *Store) ApproveMosque(ctx context.Context, id string) error {
	return s.exec(ctx, "store.ApproveMosque", true,
		`UPDATE mosques SET approved = ?, updated_at = ? WHERE id = ?`, true, s.timestamp(), id)
}

// NewIqama holds a submitted set of iqama times. Empty fields stay NULL.
type NewIqama struct {
	MosqueID         string
	Fajr             *string
	Dhuhr            *string
	Asr              *string
	Maghrib          *string
	Isha             *string
	Notes            *string
	Recurring        bool
	SubmittedByEmail *string
}

// CreateIqama records a submission pending approval.
func (s *Store) CreateIqama(ctx context.Context, in NewIqama) (*IqamaTimes, error) {
	now := s.timestamp()
	it := &IqamaTimes{
		ID:               newID(),
		MosqueID:         in.MosqueID,
		Fajr:             in.Fajr,
		Dhuhr:            in.Dhuhr,
		Asr:              in.Asr,
		Maghrib:          in.Maghrib,
		Isha:             in.Isha,
		Notes:            in.Notes,
		Recurring:        in.Recurring,
		SubmittedByEmail: in.SubmittedByEmail,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := s.exec(ctx, "store.CreateIqama", false,
		`INSERT INTO iqama_times
		   (id, mosque_id, fajr, dhuhr, asr, maghrib, isha, notes, recurring, approved, submitted_by_email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.MosqueID, it.Fajr, it.Dhuhr, it.Asr, it.Maghrib, it.Isha, it.Notes,
		it.Recurring, it.Approved, it.SubmittedByEmail, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// ApproveIqama marks a submission approved.
func (s *Store) ApproveIqama(ctx context.Context, id string) error {
	return s.exec(ctx, "store.ApproveIqama", true,
		`UPDATE iqama_times SET approved = ?, updated_at = ? WHERE id = ?`, true, s.timestamp(), id)
}

// LatestIqama returns the most recently approved iqama times for a mosque.
func (s *Store) LatestIqama(ctx context.Context, mosqueID string) (*IqamaTimes, error) {
	var it IqamaTimes
	if err := s.get(ctx, "store.LatestIqama", &it,
		`SELECT * FROM iqama_times
		 WHERE mosque_id = ? AND approved = ?
		 ORDER BY updated_at DESC, created_at DESC
		 LIMIT 1`, mosqueID, true); err != nil {
		return nil, err
	}
	return &it, nil
}
