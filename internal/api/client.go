package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/smokyabdulrahman/salahclock/internal/apperr"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Client communicates with the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Defaults to the Al Adhan API.
	// Exported for testing with httptest.
	BaseURL string
}

// NewClient creates a new API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: defaultBaseURL,
	}
}

// Params selects the calculation for a request. A negative Method or School
// is omitted from the query so the API picks its own default.
type Params struct {
	Method int
	School int
}

// DefaultParams uses Muslim World League with the API's default school.
func DefaultParams() Params {
	return Params{Method: MethodMWL, School: -1}
}

func (p Params) apply(q url.Values) {
	if p.Method >= 0 {
		q.Set("method", fmt.Sprintf("%d", p.Method))
	}
	if p.School >= 0 {
		q.Set("school", fmt.Sprintf("%d", p.School))
	}
}

// FetchByCoordinates fetches prayer times for the given date and coordinates.
func (c *Client) FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, p Params) (*Response, error) {
	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, date.Format("02-01-2006"))

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))
	p.apply(params)

	var apiResp Response
	if err := c.doRequest(ctx, "api.FetchByCoordinates", endpoint, params, &apiResp); err != nil {
		return nil, err
	}
	if err := checkCode(apiResp.Code, apiResp.Status); err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, "api.FetchByCoordinates", "prayer times service returned an error", err)
	}
	return &apiResp, nil
}

// FetchCalendarByCoordinates fetches a whole Gregorian month of prayer times.
func (c *Client) FetchCalendarByCoordinates(ctx context.Context, year int, month time.Month, lat, lon float64, p Params) (*CalendarResponse, error) {
	endpoint := fmt.Sprintf("%s/calendar/%d/%d", c.BaseURL, year, int(month))

	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%f", lat))
	params.Set("longitude", fmt.Sprintf("%f", lon))
	p.apply(params)

	var calResp CalendarResponse
	if err := c.doRequest(ctx, "api.FetchCalendarByCoordinates", endpoint, params, &calResp); err != nil {
		return nil, err
	}
	if err := checkCode(calResp.Code, calResp.Status); err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, "api.FetchCalendarByCoordinates", "prayer times service returned an error", err)
	}
	return &calResp, nil
}

// FetchHijri converts a Gregorian date to the Hijri calendar.
func (c *Client) FetchHijri(ctx context.Context, date time.Time) (*HijriDate, error) {
	endpoint := fmt.Sprintf("%s/gToH", c.BaseURL)

	params := url.Values{}
	params.Set("date", date.Format("02-01-2006"))

	var hResp HijriResponse
	if err := c.doRequest(ctx, "api.FetchHijri", endpoint, params, &hResp); err != nil {
		return nil, err
	}
	if err := checkCode(hResp.Code, hResp.Status); err != nil {
		return nil, apperr.Wrap(apperr.NetworkFailure, "api.FetchHijri", "calendar service returned an error", err)
	}
	return &hResp.Data.Hijri, nil
}

func checkCode(code int, status string) error {
	if code != 200 {
		return fmt.Errorf("API error: code=%d status=%s", code, status)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, op, endpoint string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperr.Wrap(apperr.NetworkFailure, op, "could not build prayer times request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.NetworkFailure, op, "prayer times service unreachable", fmt.Errorf("API request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Wrap(apperr.NetworkFailure, op, "prayer times service returned an error",
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.NetworkFailure, op, "prayer times service sent an unreadable response",
			fmt.Errorf("failed to decode API response: %w", err))
	}
	return nil
}
