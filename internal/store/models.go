package store

import "time"

// Account is a registered user.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Postcode     *string   `db:"postcode" json:"postcode"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// NotificationSettings are a user's reminder channels.
type NotificationSettings struct {
	UserID           string    `db:"user_id" json:"-"`
	EnableEmail      bool      `db:"enable_email" json:"enable_email"`
	EnablePush       bool      `db:"enable_push" json:"enable_push"`
	EnableSMS        bool      `db:"enable_sms" json:"enable_sms"`
	NotificationTime *string   `db:"notification_time" json:"notification_time"`
	DeviceToken      *string   `db:"device_token" json:"device_token,omitempty"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Preferences are a user's lookup defaults.
type Preferences struct {
	UserID             string    `db:"user_id" json:"-"`
	DefaultPostcode    *string   `db:"default_postcode" json:"default_postcode"`
	PrayerMethod       int       `db:"prayer_method" json:"prayer_method"`
	UseCurrentLocation bool      `db:"use_current_location" json:"use_current_location"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// ReminderSignup is a public, account-less request for daily emails.
type ReminderSignup struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Postcode  string    `db:"postcode" json:"postcode"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Recipient is one address the daily reminder goes to.
type Recipient struct {
	Email    string `db:"email"`
	Name     string `db:"name"`
	Postcode string `db:"postcode"`
}

// Mosque is a mosque profile managed by its admin.
type Mosque struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	AdminEmail        string    `db:"admin_email" json:"admin_email"`
	Postcode          string    `db:"postcode" json:"postcode"`
	Address           *string   `db:"address" json:"address,omitempty"`
	Phone             *string   `db:"phone" json:"phone,omitempty"`
	WebsiteURL        *string   `db:"website_url" json:"website_url,omitempty"`
	DonationGoalPence *int64    `db:"donation_goal_pence" json:"donation_goal_pence,omitempty"`
	Approved          bool      `db:"approved" json:"approved"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IqamaTimes are the congregation start times a mosque publishes.
type IqamaTimes struct {
	ID               string    `db:"id" json:"id"`
	MosqueID         string    `db:"mosque_id" json:"mosque_id"`
	Fajr             *string   `db:"fajr" json:"fajr,omitempty"`
	Dhuhr            *string   `db:"dhuhr" json:"dhuhr,omitempty"`
	Asr              *string   `db:"asr" json:"asr,omitempty"`
	Maghrib          *string   `db:"maghrib" json:"maghrib,omitempty"`
	Isha             *string   `db:"isha" json:"isha,omitempty"`
	Notes            *string   `db:"notes" json:"notes,omitempty"`
	Recurring        bool      `db:"recurring" json:"recurring"`
	Approved         bool      `db:"approved" json:"approved"`
	SubmittedByEmail *string   `db:"submitted_by_email" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Donation statuses.
const (
	DonationPending   = "pending"
	DonationCompleted = "completed"
	DonationFailed    = "failed"
)

// Donation is a recorded gift to a mosque. Amounts are in pence.
type Donation struct {
	ID                   string    `db:"id" json:"id"`
	MosqueID             string    `db:"mosque_id" json:"mosque_id"`
	UserID               *string   `db:"user_id" json:"-"`
	AmountPence          int64     `db:"amount_pence" json:"amount_pence"`
	Currency             string    `db:"currency" json:"currency"`
	DonorName            *string   `db:"donor_name" json:"donor_name,omitempty"`
	DonorEmail           *string   `db:"donor_email" json:"-"`
	Message              *string   `db:"message" json:"message,omitempty"`
	IsAnonymous          bool      `db:"is_anonymous" json:"is_anonymous"`
	Status               string    `db:"status" json:"status"`
	PaymentMethod        *string   `db:"payment_method" json:"payment_method,omitempty"`
	TransactionReference *string   `db:"transaction_reference" json:"-"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Widget is an embeddable prayer-times widget.
type Widget struct {
	ID        string    `db:"id" json:"id"`
	Postcode  string    `db:"postcode" json:"postcode"`
	Theme     string    `db:"theme" json:"theme"`
	Size      string    `db:"size" json:"size"`
	CreatedBy *string   `db:"created_by" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostcodeSearch is one recorded lookup.
type PostcodeSearch struct {
	ID         string    `db:"id"`
	Postcode   string    `db:"postcode"`
	Lat        *float64  `db:"lat"`
	Lng        *float64  `db:"lng"`
	SearchedAt time.Time `db:"searched_at"`
}

// PostcodeCount is a postcode with how often it was searched.
type PostcodeCount struct {
	Postcode string `db:"postcode" json:"postcode"`
	Searches int64  `db:"searches" json:"searches"`
}
