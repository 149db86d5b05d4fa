package store

import (
	"context"
	"time"
)

// Widget defaults.
const (
	DefaultWidgetTheme = "light"
	DefaultWidgetSize  = "medium"
)

// CreateWidget stores a widget configuration.
func (s *Store) CreateWidget(ctx context.Context, postcode, theme, size string, createdBy *string) (*Widget, error) {
	w := &Widget{
		ID:        newID(),
		Postcode:  postcode,
		Theme:     theme,
		Size:      size,
		CreatedBy: createdBy,
		CreatedAt: s.timestamp(),
	}
	if w.Theme == "" {
		w.Theme = DefaultWidgetTheme
	}
	if w.Size == "" {
		w.Size = DefaultWidgetSize
	}

	err := s.exec(ctx, "store.CreateWidget", false,
		`INSERT INTO widget_configs (id, postcode, theme, size, created_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.Postcode, w.Theme, w.Size, w.CreatedBy, w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Widget returns a widget by id.
func (s *Store) Widget(ctx context.Context, id string) (*Widget, error) {
	var w Widget
	if err := s.get(ctx, "store.Widget", &w, `SELECT * FROM widget_configs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &w, nil
}

// RecordWidgetView increments the widget's view counter for the day of at.
func (s *Store) RecordWidgetView(ctx context.Context, widgetID string, at time.Time) error {
	return s.exec(ctx, "store.RecordWidgetView", false,
		`INSERT INTO widget_views (widget_id, day, views) VALUES (?, ?, 1)
		 ON CONFLICT (widget_id, day) DO UPDATE SET views = widget_views.views + 1`,
		widgetID, at.Format("2006-01-02"))
}

// WidgetViews returns the total views of a widget across all days.
func (s *Store) WidgetViews(ctx context.Context, widgetID string) (int64, error) {
	var n int64
	if err := s.get(ctx, "store.WidgetViews", &n,
		`SELECT COALESCE(SUM(views), 0) FROM widget_views WHERE widget_id = ?`, widgetID); err != nil {
		return 0, err
	}
	return n, nil
}

// RecordPostcodeSearch stores one lookup. lat and lng may be nil when the
// lookup failed before geocoding.
func (s *Store) RecordPostcodeSearch(ctx context.Context, postcode string, lat, lng *float64) error {
	return s.exec(ctx, "store.RecordPostcodeSearch", false,
		`INSERT INTO postcode_searches (id, postcode, lat, lng, searched_at) VALUES (?, ?, ?, ?, ?)`,
		newID(), postcode, lat, lng, s.timestamp())
}

// TopPostcodes returns the most searched postcodes, most popular first.
func (s *Store) TopPostcodes(ctx context.Context, limit int) ([]PostcodeCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []PostcodeCount
	if err := s.selectAll(ctx, "store.TopPostcodes", &out,
		`SELECT postcode, COUNT(*) AS searches
		 FROM postcode_searches
		 GROUP BY postcode
		 ORDER BY searches DESC, postcode
		 LIMIT ?`, limit); err != nil {
		return nil, err
	}
	return out, nil
}
