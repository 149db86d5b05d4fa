package geo

import (
	"errors"
	"testing"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

func TestValidPostcode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"SW1A 1AA", true},
		{"sw1a1aa", true},
		{"  sw1a 1aa ", true},
		{"M1 1AE", true},
		{"B33 8TH", true},
		{"CR2 6XH", true},
		{"DN55 1PT", true},
		{"W1R 1AA", true},
		{"12345", false},
		{"", false},
		{"SW1A", false},
		{"SW1A 1A", false},
		{"SW1A  1AA", false},
		{"ZZZ1 1AA", false},
	}
	for _, tt := range tests {
		if got := ValidPostcode(tt.in); got != tt.want {
			t.Errorf("ValidPostcode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePostcode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sw1a1aa", "SW1A 1AA"},
		{"SW1A 1AA", "SW1A 1AA"},
		{"m11ae", "M1 1AE"},
		{" b33 8th ", "B33 8TH"},
	}
	for _, tt := range tests {
		got, err := NormalizePostcode(tt.in)
		if err != nil {
			t.Errorf("NormalizePostcode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePostcode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePostcode_Rejects(t *testing.T) {
	_, err := NormalizePostcode("12345")
	if err == nil {
		t.Fatal("expected error for 12345")
	}
	if !errors.Is(err, ErrInvalidPostcode) {
		t.Errorf("error should wrap ErrInvalidPostcode: %v", err)
	}
	if !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("error kind = %v, want InvalidInput", apperr.KindOf(err))
	}
	if got := apperr.UserMessage(err); got != InvalidPostcodeMessage {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestCompactPostcode(t *testing.T) {
	if got := CompactPostcode(" sw1a 1aa "); got != "SW1A1AA" {
		t.Errorf("CompactPostcode = %q, want SW1A1AA", got)
	}
}

func TestCoordinates_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Coordinates
		wantErr bool
	}{
		{"london", Coordinates{51.5074, -0.1278}, false},
		{"poles and antimeridian", Coordinates{90, -180}, false},
		{"latitude too high", Coordinates{90.1, 0}, true},
		{"latitude too low", Coordinates{-91, 0}, true},
		{"longitude too high", Coordinates{0, 180.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.InvalidInput) {
				t.Errorf("error kind = %v, want InvalidInput", apperr.KindOf(err))
			}
		})
	}
}
