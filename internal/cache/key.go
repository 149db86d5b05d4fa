package cache

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/geo"
)

// Span is the period a cache entry covers.
type Span string

const (
	SpanDay  Span = "day"
	SpanWeek Span = "week"
)

const (
	dayTTL  = 12 * time.Hour
	weekTTL = 24 * time.Hour
)

// TTL returns how long an entry of this span stays fresh.
func (s Span) TTL() time.Duration {
	if s == SpanWeek {
		return weekTTL
	}
	return dayTTL
}

// Key identifies a cached lookup: where, which day it starts on, how many
// days it covers and the calculation method.
type Key struct {
	Location string
	Date     time.Time
	Span     Span
	Method   int
}

// PostcodeKey keys a postcode lookup. The postcode is stored compact and upper case.
func PostcodeKey(postcode string, date time.Time, span Span, method int) Key {
	return Key{Location: geo.CompactPostcode(postcode), Date: date, Span: span, Method: method}
}

// CoordinatesKey keys a GPS lookup at four decimal places, about 11 metres.
func CoordinatesKey(c geo.Coordinates, date time.Time, span Span, method int) Key {
	return Key{Location: fmt.Sprintf("@%.4f,%.4f", c.Latitude, c.Longitude), Date: date, Span: span, Method: method}
}

// Day returns the key's date as YYYY-MM-DD.
func (k Key) Day() string {
	return k.Date.Format("2006-01-02")
}

func (k Key) String() string {
	return fmt.Sprintf("salahclock:%s:%s:%s:m%d", k.Span, k.Location, k.Day(), k.Method)
}
