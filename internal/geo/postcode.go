// Package geo resolves where the user is: UK postcode validation, postcode
// lookup through postcodes.io, coordinate checks and IP-based detection.
package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

// ErrInvalidPostcode is wrapped by every postcode validation failure.
var ErrInvalidPostcode = errors.New("invalid UK postcode")

// InvalidPostcodeMessage is shown to users who enter a malformed postcode.
const InvalidPostcodeMessage = "Please enter a valid UK postcode (e.g., SW1A 1AA)"

var postcodeRe = regexp.MustCompile(`^[A-Z]{1,2}[0-9R][0-9A-Z]?\s?[0-9][A-Z]{2}$`)

// ValidPostcode reports whether s is a UK postcode, ignoring case and
// surrounding whitespace.
func ValidPostcode(s string) bool {
	return postcodeRe.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}

// NormalizePostcode validates s and returns it upper case with a single space
// before the inward code, e.g. "sw1a1aa" becomes "SW1A 1AA".
func NormalizePostcode(s string) (string, error) {
	if !ValidPostcode(s) {
		return "", apperr.Wrap(apperr.InvalidInput, "geo.NormalizePostcode", InvalidPostcodeMessage,
			fmt.Errorf("%w: %q", ErrInvalidPostcode, s))
	}
	compact := CompactPostcode(s)
	return compact[:len(compact)-3] + " " + compact[len(compact)-3:], nil
}

// CompactPostcode upper-cases s and strips all whitespace. It does not validate.
func CompactPostcode(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), "")
}
