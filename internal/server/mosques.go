package server

import (
	"errors"
	"math"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

type reminderSignupRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"max=32"`
	Postcode string `json:"postcode" binding:"required,ukpostcode"`
}

func (s *Server) reminderSignup(c *gin.Context) (any, error) {
	var req reminderSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	pc, err := geo.NormalizePostcode(req.Postcode)
	if err != nil {
		return nil, err
	}
	return s.store.CreateReminderSignup(c.Request.Context(), req.Name, req.Email, optionalString(req.Phone), pc)
}

type mosqueRequest struct {
	Name              string `json:"name" binding:"required,max=200"`
	AdminEmail        string `json:"admin_email" binding:"required,email"`
	Postcode          string `json:"postcode" binding:"required,ukpostcode"`
	Address           string `json:"address" binding:"max=500"`
	Phone             string `json:"phone" binding:"max=32"`
	WebsiteURL        string `json:"website_url" binding:"omitempty,url"`
	DonationGoalPence *int64 `json:"donation_goal_pence" binding:"omitempty,min=0"`
}

func (s *Server) createMosque(c *gin.Context) (any, error) {
	var req mosqueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	pc, err := geo.NormalizePostcode(req.Postcode)
	if err != nil {
		return nil, err
	}
	// A zero goal means no goal.
	if req.DonationGoalPence != nil && *req.DonationGoalPence == 0 {
		req.DonationGoalPence = nil
	}
	return s.store.CreateMosque(c.Request.Context(), store.NewMosque{
		Name:              req.Name,
		AdminEmail:        req.AdminEmail,
		Postcode:          pc,
		Address:           optionalString(req.Address),
		Phone:             optionalString(req.Phone),
		WebsiteURL:        optionalString(req.WebsiteURL),
		DonationGoalPence: req.DonationGoalPence,
	})
}

func (s *Server) listMosques(c *gin.Context) (any, error) {
	mosques, err := s.store.ApprovedMosques(c.Request.Context())
	if err != nil {
		return nil, err
	}
	if mosques == nil {
		mosques = []store.Mosque{}
	}
	return gin.H{"mosques": mosques}, nil
}

type mosqueView struct {
	*store.Mosque
	Iqama *store.IqamaTimes `json:"iqama,omitempty"`
}

func (s *Server) getMosque(c *gin.Context) (any, error) {
	m, err := s.store.Mosque(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	iqama, err := s.store.LatestIqama(c.Request.Context(), m.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return mosqueView{Mosque: m, Iqama: iqama}, nil
}

type iqamaRequest struct {
	Fajr             string `json:"fajr" binding:"omitempty,clock"`
	Dhuhr            string `json:"dhuhr" binding:"omitempty,clock"`
	Asr              string `json:"asr" binding:"omitempty,clock"`
	Maghrib          string `json:"maghrib" binding:"omitempty,clock"`
	Isha             string `json:"isha" binding:"omitempty,clock"`
	Notes            string `json:"notes" binding:"max=500"`
	Recurring        bool   `json:"recurring"`
	SubmittedByEmail string `json:"submitted_by_email" binding:"omitempty,email"`
}

// submitIqama records times for admin approval. At least one time is required.
func (s *Server) submitIqama(c *gin.Context) (any, error) {
	m, err := s.store.Mosque(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	var req iqamaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}
	if req.Fajr == "" && req.Dhuhr == "" && req.Asr == "" && req.Maghrib == "" && req.Isha == "" {
		return nil, badRequest("at least one iqama time is required")
	}

	return s.store.CreateIqama(c.Request.Context(), store.NewIqama{
		MosqueID:         m.ID,
		Fajr:             optionalString(req.Fajr),
		Dhuhr:            optionalString(req.Dhuhr),
		Asr:              optionalString(req.Asr),
		Maghrib:          optionalString(req.Maghrib),
		Isha:             optionalString(req.Isha),
		Notes:            optionalString(req.Notes),
		Recurring:        req.Recurring,
		SubmittedByEmail: optionalString(req.SubmittedByEmail),
	})
}

type donationRequest struct {
	AmountPence   int64  `json:"amount_pence" binding:"required,min=100"`
	Currency      string `json:"currency" binding:"omitempty,len=3"`
	DonorName     string `json:"donor_name" binding:"max=100"`
	DonorEmail    string `json:"donor_email" binding:"omitempty,email"`
	Message       string `json:"message" binding:"max=500"`
	IsAnonymous   bool   `json:"is_anonymous"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=card bank_transfer cash"`
}

// createDonation records a pending donation. Payment capture happens elsewhere.
func (s *Server) createDonation(c *gin.Context) (any, error) {
	m, err := s.store.Mosque(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	var req donationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	return s.store.CreateDonation(c.Request.Context(), store.NewDonation{
		MosqueID:      m.ID,
		AmountPence:   req.AmountPence,
		Currency:      req.Currency,
		DonorName:     optionalString(req.DonorName),
		DonorEmail:    optionalString(req.DonorEmail),
		Message:       optionalString(req.Message),
		IsAnonymous:   req.IsAnonymous,
		PaymentMethod: optionalString(req.PaymentMethod),
	})
}

type donationSummary struct {
	MosqueID   string   `json:"mosque_id"`
	TotalPence int64    `json:"total_pence"`
	Count      int64    `json:"count"`
	GoalPence  *int64   `json:"goal_pence,omitempty"`
	Progress   *float64 `json:"progress,omitempty"`
}

// donationSummary totals completed donations. Progress is a percentage of the
// goal, rounded to one decimal place.
func (s *Server) donationSummary(c *gin.Context) (any, error) {
	m, err := s.store.Mosque(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	total, count, err := s.store.DonationTotal(c.Request.Context(), m.ID)
	if err != nil {
		return nil, err
	}

	sum := donationSummary{MosqueID: m.ID, TotalPence: total, Count: count, GoalPence: m.DonationGoalPence}
	if goal := m.DonationGoalPence; goal != nil && *goal > 0 {
		p := math.Round(float64(total)*1000/float64(*goal)) / 10
		sum.Progress = &p
	}
	return sum, nil
}
