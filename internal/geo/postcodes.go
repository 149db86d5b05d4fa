package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

const defaultPostcodesURL = "https://api.postcodes.io"

// Place is a resolved postcode.
type Place struct {
	Postcode string
	Coordinates
	District string
	Region   string
	Country  string
}

// postcodesResponse maps the response from postcodes.io.
type postcodesResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Result *struct {
		Postcode      string  `json:"postcode"`
		Latitude      float64 `json:"latitude"`
		Longitude     float64 `json:"longitude"`
		AdminDistrict string  `json:"admin_district"`
		Region        string  `json:"region"`
		Country       string  `json:"country"`
	} `json:"result"`
}

// PostcodeClient looks up UK postcodes on postcodes.io. No API key is needed.
type PostcodeClient struct {
	httpClient *http.Client
	// BaseURL is exported for testing with httptest.
	BaseURL string
}

// NewPostcodeClient returns a client for the public postcodes.io service.
func NewPostcodeClient() *PostcodeClient {
	return &PostcodeClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    defaultPostcodesURL,
	}
}

// Lookup validates postcode and resolves it to coordinates.
func (c *PostcodeClient) Lookup(ctx context.Context, postcode string) (*Place, error) {
	const op = "geo.Lookup"

	normalized, err := NormalizePostcode(postcode)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/postcodes/%s", c.BaseURL, url.PathEscape(CompactPostcode(normalized)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "could not build postcode request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "postcode service unreachable",
			fmt.Errorf("postcode request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperr.New(apperr.NotFound, op, fmt.Sprintf("Postcode %s not found", normalized))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "postcode service returned an error",
			fmt.Errorf("postcode API returned status %d", resp.StatusCode))
	}

	var result postcodesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, op, "postcode service sent an unreadable response",
			fmt.Errorf("failed to decode postcode response: %w", err))
	}
	if result.Status != http.StatusOK || result.Result == nil {
		return nil, apperr.New(apperr.NotFound, op, fmt.Sprintf("Postcode %s not found", normalized))
	}

	r := result.Result
	return &Place{
		Postcode:    normalized,
		Coordinates: Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
		District:    r.AdminDistrict,
		Region:      r.Region,
		Country:     r.Country,
	}, nil
}
