package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/forecast"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
)

type locationView struct {
	Postcode  string  `json:"postcode,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type prayerView struct {
	Name   string `json:"name"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

type nextView struct {
	Name             string `json:"name"`
	Time             string `json:"time"`
	Remaining        string `json:"remaining"`
	RemainingMinutes int    `json:"remaining_minutes"`
	Tomorrow         bool   `json:"tomorrow"`
}

type scheduleView struct {
	Location locationView `json:"location"`
	Date     string       `json:"date"`
	Hijri    string       `json:"hijri,omitempty"`
	Method   string       `json:"method"`
	Prayers  []prayerView `json:"prayers"`
	Next     *nextView    `json:"next,omitempty"`
}

func (s *Server) methodName() string {
	return api.MethodName(s.schedules.Params().Method)
}

func (s *Server) viewOf(snap schedule.Snapshot) scheduleView {
	day := snap.Day
	v := scheduleView{
		Location: locationView{
			Postcode:  day.Query.Postcode,
			Latitude:  day.Coordinates.Latitude,
			Longitude: day.Coordinates.Longitude,
		},
		Date:   day.Schedule.Date().Format("2006-01-02"),
		Hijri:  day.DateInfo.Hijri.Format(),
		Method: s.methodName(),
	}
	for _, e := range snap.Classified.Entries() {
		v.Prayers = append(v.Prayers, prayerView{Name: string(e.Name), Time: e.Clock.String(), Status: string(e.Status)})
	}
	if snap.HasNext {
		v.Next = &nextView{
			Name:             string(snap.Next.Name),
			Time:             snap.Next.Clock.String(),
			Remaining:        snap.Next.RemainingText(),
			RemainingMinutes: int(snap.Next.Remaining.Minutes()),
			Tomorrow:         snap.Next.Tomorrow,
		}
	}
	return v
}

// queryFrom reads ?postcode= or ?lat=&lng=.
func queryFrom(c *gin.Context) (schedule.Query, error) {
	if pc := strings.TrimSpace(c.Query("postcode")); pc != "" {
		return schedule.PostcodeQuery(pc), nil
	}

	latS, lngS := c.Query("lat"), c.Query("lng")
	if latS == "" || lngS == "" {
		return schedule.Query{}, badRequest("postcode or lat and lng are required")
	}
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil {
		return schedule.Query{}, badRequest("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngS, 64)
	if err != nil {
		return schedule.Query{}, badRequest("lng must be a number")
	}
	return schedule.CoordinatesQuery(lat, lng), nil
}

type postcodeValidation struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (s *Server) validatePostcode(c *gin.Context) (any, error) {
	pc, err := geo.NormalizePostcode(c.Param("postcode"))
	if err != nil {
		return postcodeValidation{Valid: false, Message: geo.InvalidPostcodeMessage}, nil
	}
	return postcodeValidation{Valid: true, Normalized: pc}, nil
}

func (s *Server) prayers(c *gin.Context) (any, error) {
	q, err := queryFrom(c)
	if err != nil {
		return nil, err
	}

	now := s.today()
	day, err := s.schedules.Day(c.Request.Context(), q, now)
	if err != nil {
		return nil, err
	}

	if day.Query.Postcode != "" && s.store != nil {
		lat, lng := day.Coordinates.Latitude, day.Coordinates.Longitude
		if err := s.store.RecordPostcodeSearch(c.Request.Context(), day.Query.Postcode, &lat, &lng); err != nil {
			log.Warn().Err(err).Str("postcode", day.Query.Postcode).Msg("could not record postcode search")
		}
	}

	return s.viewOf(day.At(now, s.policy)), nil
}

type forecastDay struct {
	Date  string            `json:"date"`
	Hijri string            `json:"hijri,omitempty"`
	Times map[string]string `json:"times"`
}

type forecastView struct {
	Title    string        `json:"title"`
	Location string        `json:"location"`
	Method   string        `json:"method"`
	Days     []forecastDay `json:"days"`
	Skipped  []string      `json:"skipped,omitempty"`
}

func (s *Server) forecastTable(c *gin.Context) (forecast.Table, error) {
	q, err := queryFrom(c)
	if err != nil {
		return forecast.Table{}, err
	}

	days := forecast.DefaultDays
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return forecast.Table{}, badRequest("days must be a whole number")
		}
	}

	now := s.today()
	res, err := s.schedules.Range(c.Request.Context(), q, now, days)
	if err != nil {
		return forecast.Table{}, err
	}
	if len(res.Days) == 0 && len(res.Failed) > 0 {
		return forecast.Table{}, res.Failed[0].Err
	}
	return forecast.Build(res, s.methodName(), now), nil
}

func (s *Server) forecast(c *gin.Context) (any, error) {
	t, err := s.forecastTable(c)
	if err != nil {
		return nil, err
	}

	v := forecastView{Title: t.Title(), Location: t.Location, Method: t.Method, Days: []forecastDay{}}
	headers := forecast.Headers()[1:]
	for _, r := range t.Rows {
		d := forecastDay{Date: r.Date.Format("2006-01-02"), Hijri: r.Hijri, Times: make(map[string]string, len(r.Times))}
		for i, tm := range r.Times {
			d.Times[headers[i]] = tm
		}
		v.Days = append(v.Days, d)
	}
	for _, sk := range t.Skipped {
		v.Skipped = append(v.Skipped, sk.Format("2006-01-02"))
	}
	return v, nil
}

// forecastExport streams the forecast as a PDF or text attachment.
func (s *Server) forecastExport(c *gin.Context) {
	f, err := forecast.ParseFormat(c.DefaultQuery("format", string(forecast.FormatPDF)))
	if err != nil {
		writeError(c, badRequest("%s", err.Error()))
		return
	}
	t, err := s.forecastTable(c)
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	written, err := forecast.Export(&buf, t, f)
	if err != nil {
		writeError(c, err)
		return
	}

	contentType := "text/plain; charset=utf-8"
	if written == forecast.FormatPDF {
		contentType = "application/pdf"
	}
	name := "prayer-times-" + t.Generated.Format("2006-01-02") + written.Extension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
