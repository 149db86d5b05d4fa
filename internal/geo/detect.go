package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

// Location holds geographic coordinates detected from the user's IP.
type Location struct {
	Coordinates
	City     string `json:"city"`
	Country  string `json:"country"`
	Timezone string `json:"timezone"`
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// geoAPIURL is the geolocation API endpoint. It is a variable (not a constant)
// so that tests can override it with an httptest server URL.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// DetectLocation uses ip-api.com to determine the user's location from their
// public IP address. It backs the "use current location" preference when no
// postcode is configured.
func DetectLocation(ctx context.Context) (*Location, error) {
	const op = "geo.DetectLocation"
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoAPIURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "could not build geolocation request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "location service unreachable",
			fmt.Errorf("geolocation request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "location service returned an error",
			fmt.Errorf("geolocation API returned status %d", resp.StatusCode))
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "location service sent an unreadable response",
			fmt.Errorf("failed to decode geolocation response: %w", err))
	}

	if result.Status != "success" {
		return nil, apperr.New(apperr.NotFound, op, fmt.Sprintf("geolocation failed: %s", result.Message))
	}

	return &Location{
		Coordinates: Coordinates{Latitude: result.Lat, Longitude: result.Lon},
		City:        result.City,
		Country:     result.Country,
		Timezone:    result.Timezone,
	}, nil
}
