package store

import (
	"context"
	"strings"
)

// NewDonation holds the fields of a donation record.
type NewDonation struct {
	MosqueID             string
	UserID               *string
	AmountPence          int64
	Currency             string
	DonorName            *string
	DonorEmail           *string
	Message              *string
	IsAnonymous          bool
	Status               string
	PaymentMethod        *string
	TransactionReference *string
}

// CreateDonation records a donation. Currency defaults to GBP and status to pending.
func (s *Store) CreateDonation(ctx context.Context, in NewDonation) (*Donation, error) {
	d := &Donation{
		ID:                   newID(),
		MosqueID:             in.MosqueID,
		UserID:               in.UserID,
		AmountPence:          in.AmountPence,
		Currency:             strings.ToUpper(in.Currency),
		DonorName:            in.DonorName,
		DonorEmail:           in.DonorEmail,
		Message:              in.Message,
		IsAnonymous:          in.IsAnonymous,
		Status:               in.Status,
		PaymentMethod:        in.PaymentMethod,
		TransactionReference: in.TransactionReference,
		CreatedAt:            s.timestamp(),
	}
	if d.Currency == "" {
		d.Currency = "GBP"
	}
	if d.Status == "" {
		d.Status = DonationPending
	}
	if d.IsAnonymous {
		d.DonorName = nil
	}

	err := s.exec(ctx, "store.CreateDonation", false,
		`INSERT INTO donations
		   (id, mosque_id, user_id, amount_pence, currency, donor_name, donor_email, message,
		    is_anonymous, status, payment_method, transaction_reference, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.MosqueID, d.UserID, d.AmountPence, d.Currency, d.DonorName, d.DonorEmail, d.Message,
		d.IsAnonymous, d.Status, d.PaymentMethod, d.TransactionReference, d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Donations lists a mosque's donations, newest first.
func (s *Store) Donations(ctx context.Context, mosqueID string) ([]Donation, error) {
	var out []Donation
	if err := s.selectAll(ctx, "store.Donations", &out,
		`SELECT * FROM donations WHERE mosque_id = ? ORDER BY created_at DESC, id`, mosqueID); err != nil {
		return nil, err
	}
	return out, nil
}

// DonationTotal sums a mosque's completed donations in pence and counts them.
func (s *Store) DonationTotal(ctx context.Context, mosqueID string) (total int64, count int64, err error) {
	var row struct {
		Total int64 `db:"total"`
		Count int64 `db:"n"`
	}
	if err := s.get(ctx, "store.DonationTotal", &row,
		`SELECT COALESCE(SUM(amount_pence), 0) AS total, COUNT(*) AS n
		 FROM donations WHERE mosque_id = ? AND status = ?`, mosqueID, DonationCompleted); err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}
