package geo

import (
	"fmt"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

// Coordinates is a point on the globe in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that c lies within latitude [-90, 90] and longitude [-180, 180].
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return apperr.New(apperr.InvalidInput, "geo.Coordinates",
			fmt.Sprintf("latitude %.4f is out of range (-90 to 90)", c.Latitude))
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return apperr.New(apperr.InvalidInput, "geo.Coordinates",
			fmt.Sprintf("longitude %.4f is out of range (-180 to 180)", c.Longitude))
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}
