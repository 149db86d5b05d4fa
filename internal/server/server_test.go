package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smokyabdulrahman/salahclock/internal/api"
	"github.com/smokyabdulrahman/salahclock/internal/apperr"
	"github.com/smokyabdulrahman/salahclock/internal/auth"
	"github.com/smokyabdulrahman/salahclock/internal/geo"
	"github.com/smokyabdulrahman/salahclock/internal/prayer"
	"github.com/smokyabdulrahman/salahclock/internal/schedule"
	"github.com/smokyabdulrahman/salahclock/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var testTimings = api.Timings{
	Fajr: "05:45", Sunrise: "07:15", Dhuhr: "12:30",
	Asr: "15:45", Maghrib: "18:20", Isha: "19:50",
}

// fakeSchedules returns the same timings for every location and day.
type fakeSchedules struct {
	err   error
	calls int
}

func (f *fakeSchedules) Day(_ context.Context, q schedule.Query, date time.Time) (*schedule.Day, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q, err := q.Validate()
	if err != nil {
		return nil, err
	}
	sched, err := prayer.ScheduleFromTimings(testTimings, date)
	if err != nil {
		return nil, err
	}
	return &schedule.Day{
		Query:       q,
		Coordinates: geo.Coordinates{Latitude: 51.5, Longitude: -0.14},
		Schedule:    sched,
	}, nil
}

func (f *fakeSchedules) Range(ctx context.Context, q schedule.Query, start time.Time, days int) (*schedule.RangeResult, error) {
	if days < 1 || days > schedule.MaxRangeDays {
		return nil, apperr.New(apperr.InvalidInput, "fake.Range", "days out of range")
	}
	res := &schedule.RangeResult{Query: q}
	for i := 0; i < days; i++ {
		d, err := f.Day(ctx, q, start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		res.Query = d.Query
		res.Days = append(res.Days, *d)
	}
	return res, nil
}

func (f *fakeSchedules) Params() api.Params {
	return api.DefaultParams()
}

type testEnv struct {
	srv    *Server
	store  *store.Store
	sched  *fakeSchedules
	issuer *auth.Issuer
}

// now is 12:00 UTC, half an hour before Dhuhr.
var testNow = time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(context.Background(), store.DriverSQLite, ":memory:", store.WithRetry(1, 0))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if _, err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	env := &testEnv{
		store:  st,
		sched:  &fakeSchedules{},
		issuer: auth.NewIssuer("test-secret", time.Hour),
	}
	env.srv = New(Options{
		Store:     st,
		Schedules: env.sched,
		Issuer:    env.issuer,
		Now:       func() time.Time { return testNow },
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// --- health and postcodes ---

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, "")
	expectStatus(t, rec, http.StatusOK)
}

func TestValidatePostcode(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		in         string
		valid      bool
		normalized string
	}{
		{"sw1a1aa", true, "SW1A 1AA"},
		{"SW1A%201AA", true, "SW1A 1AA"},
		{"12345", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/postcodes/"+tt.in+"/validate", nil, "")
			expectStatus(t, rec, http.StatusOK)
			got := decode[postcodeValidation](t, rec)
			if got.Valid != tt.valid || got.Normalized != tt.normalized {
				t.Errorf("got %+v, want valid=%v normalized=%q", got, tt.valid, tt.normalized)
			}
		})
	}
}

// --- prayers ---

func TestPrayers_ByPostcode(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/prayers?postcode=sw1a1aa", nil, "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[scheduleView](t, rec)

	if got.Location.Postcode != "SW1A 1AA" {
		t.Errorf("postcode = %q", got.Location.Postcode)
	}
	if got.Date != "2026-02-28" {
		t.Errorf("date = %q", got.Date)
	}
	if len(got.Prayers) != 6 {
		t.Fatalf("got %d prayers, want 6", len(got.Prayers))
	}
	wantStatus := map[string]string{
		"Fajr": "past", "Sunrise": "past", "Dhuhr": "current",
		"Asr": "upcoming", "Maghrib": "upcoming", "Isha": "upcoming",
	}
	for _, p := range got.Prayers {
		if p.Status != wantStatus[p.Name] {
			t.Errorf("%s status = %q, want %q", p.Name, p.Status, wantStatus[p.Name])
		}
	}
	if got.Next == nil || got.Next.Name != "Dhuhr" || got.Next.Remaining != "0h 30m" || got.Next.RemainingMinutes != 30 {
		t.Errorf("next = %+v, want Dhuhr in 0h 30m", got.Next)
	}

	top, err := env.store.TopPostcodes(context.Background(), 5)
	if err != nil {
		t.Fatalf("TopPostcodes: %v", err)
	}
	if len(top) != 1 || top[0].Postcode != "SW1A 1AA" || top[0].Searches != 1 {
		t.Errorf("searches = %+v", top)
	}
}

func TestPrayers_ByCoordinatesNotRecorded(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/prayers?lat=51.5&lng=-0.14", nil, "")
	expectStatus(t, rec, http.StatusOK)

	top, _ := env.store.TopPostcodes(context.Background(), 5)
	if len(top) != 0 {
		t.Errorf("GPS lookups should not be recorded, got %+v", top)
	}
}

func TestPrayers_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{"no location", "", "postcode or lat and lng are required"},
		{"lat only", "?lat=51.5", "postcode or lat and lng are required"},
		{"bad lat", "?lat=north&lng=0", "lat must be a number"},
		{"invalid postcode", "?postcode=12345", geo.InvalidPostcodeMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/prayers"+tt.query, nil, "")
			expectStatus(t, rec, http.StatusBadRequest)
			if msg := errorMessage(t, rec); msg != tt.wantMsg {
				t.Errorf("error = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestPrayers_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sched.err = apperr.New(apperr.NetworkFailure, "api.Fetch", "prayer times service unreachable")

	rec := env.do(t, http.MethodGet, "/api/prayers?postcode=SW1A1AA", nil, "")
	expectStatus(t, rec, http.StatusBadGateway)
	if msg := errorMessage(t, rec); msg != "prayer times service unreachable" {
		t.Errorf("error = %q", msg)
	}
}

func TestForecast(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/prayers/forecast?postcode=SW1A1AA&days=3", nil, "")
	expectStatus(t, rec, http.StatusOK)
	got := decode[forecastView](t, rec)

	if len(got.Days) != 3 {
		t.Fatalf("got %d days, want 3", len(got.Days))
	}
	if got.Days[0].Date != "2026-02-28" || got.Days[2].Date != "2026-03-02" {
		t.Errorf("dates = %s..%s", got.Days[0].Date, got.Days[2].Date)
	}
	if got.Days[1].Times["Maghrib"] != "18:20" {
		t.Errorf("Maghrib = %q", got.Days[1].Times["Maghrib"])
	}
	if got.Location != "SW1A 1AA" || got.Method != api.MethodName(api.MethodMWL) {
		t.Errorf("location/method = %q/%q", got.Location, got.Method)
	}
}

func TestForecast_DaysValidation(t *testing.T) {
	env := newTestEnv(t)

	for _, days := range []string{"0", "31", "week"} {
		rec := env.do(t, http.MethodGet, "/api/prayers/forecast?postcode=SW1A1AA&days="+days, nil, "")
		expectStatus(t, rec, http.StatusBadRequest)
	}
}

func TestForecastExport_Text(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/prayers/forecast/export?postcode=SW1A1AA&days=2&format=text", nil, "")
	expectStatus(t, rec, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "prayer-times-2026-02-28.txt") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "15:45") {
		t.Errorf("export missing Asr time:\n%s", rec.Body.String())
	}
}

func TestForecastExport_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/prayers/forecast/export?postcode=SW1A1AA&format=docx", nil, "")
	expectStatus(t, rec, http.StatusBadRequest)
}

// --- auth and account ---

func signup(t *testing.T, env *testEnv, email string) authResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/signup",
		map[string]string{"email": email, "password": "bismillah123", "postcode": "m11ae"}, "")
	expectStatus(t, rec, http.StatusCreated)
	return decode[authResponse](t, rec)
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	created := signup(t, env, "Amina@Example.com")
	if created.Token == "" {
		t.Fatal("signup returned no token")
	}
	if created.Account.Email != "amina@example.com" {
		t.Errorf("email = %q", created.Account.Email)
	}
	if created.Account.Postcode == nil || *created.Account.Postcode != "M1 1AE" {
		t.Errorf("postcode = %v", created.Account.Postcode)
	}

	rec := env.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "amina@example.com", "password": "bismillah123"}, "")
	expectStatus(t, rec, http.StatusOK)
	logged := decode[authResponse](t, rec)
	if id, err := env.issuer.Verify(logged.Token); err != nil || id != created.Account.ID {
		t.Errorf("login token subject = %q, %v", id, err)
	}
}

func TestSignup_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "amina@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/signup",
		map[string]string{"email": "AMINA@example.com", "password": "another-pass"}, "")
	expectStatus(t, rec, http.StatusConflict)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    map[string]string
		wantMsg string
	}{
		{"missing email", map[string]string{"password": "bismillah123"}, "Email is required"},
		{"bad email", map[string]string{"email": "nope", "password": "bismillah123"}, "Email must be a valid email address"},
		{"short password", map[string]string{"email": "a@b.com", "password": "short"}, "Password must be at least 8"},
		{"bad postcode", map[string]string{"email": "a@b.com", "password": "bismillah123", "postcode": "12345"}, geo.InvalidPostcodeMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/signup", tt.body, "")
			expectStatus(t, rec, http.StatusBadRequest)
			if msg := errorMessage(t, rec); msg != tt.wantMsg {
				t.Errorf("error = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestLogin_WrongCredentials(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "amina@example.com")

	for _, body := range []map[string]string{
		{"email": "amina@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "bismillah123"},
	} {
		rec := env.do(t, http.MethodPost, "/api/auth/login", body, "")
		expectStatus(t, rec, http.StatusUnauthorized)
		if msg := errorMessage(t, rec); msg != auth.ErrInvalidCredentials.Error() {
			t.Errorf("error = %q", msg)
		}
	}
}

func TestAccount_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing", "", "missing auth header"},
		{"not bearer", "Basic abc", "invalid auth header"},
		{"bad token", "Bearer garbage", auth.ErrInvalidToken.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.srv.Handler().ServeHTTP(rec, req)
			expectStatus(t, rec, http.StatusUnauthorized)
			if msg := errorMessage(t, rec); msg != tt.wantMsg {
				t.Errorf("error = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestAccount_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.issuer.Issue("00000000-0000-0000-0000-000000000000")

	rec := env.do(t, http.MethodGet, "/api/account", nil, token)
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAccount_GetAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	a := signup(t, env, "amina@example.com")

	rec := env.do(t, http.MethodGet, "/api/account", nil, a.Token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[store.Account](t, rec); got.ID != a.Account.ID {
		t.Errorf("account id = %q", got.ID)
	}

	rec = env.do(t, http.MethodPut, "/api/account", map[string]string{"postcode": "ec1a1bb"}, a.Token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[store.Account](t, rec); got.Postcode == nil || *got.Postcode != "EC1A 1BB" {
		t.Errorf("postcode = %v", got.Postcode)
	}

	rec = env.do(t, http.MethodPut, "/api/account", map[string]string{"postcode": ""}, a.Token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[store.Account](t, rec); got.Postcode != nil {
		t.Errorf("postcode should be cleared, got %q", *got.Postcode)
	}
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	a := signup(t, env, "amina@example.com")

	rec := env.do(t, http.MethodGet, "/api/account/notifications", nil, a.Token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[store.NotificationSettings](t, rec); got.EnableEmail {
		t.Error("email reminders should default to off")
	}

	rec = env.do(t, http.MethodPut, "/api/account/notifications",
		map[string]any{"enable_email": true, "notification_time": "25:00"}, a.Token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPut, "/api/account/notifications",
		map[string]any{"enable_email": true, "notification_time": "05:30"}, a.Token)
	expectStatus(t, rec, http.StatusOK)
	got := decode[store.NotificationSettings](t, rec)
	if !got.EnableEmail || got.NotificationTime == nil || *got.NotificationTime != "05:30" {
		t.Errorf("settings = %+v", got)
	}
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)
	a := signup(t, env, "amina@example.com")

	rec := env.do(t, http.MethodGet, "/api/account/preferences", nil, a.Token)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[store.Preferences](t, rec); got.PrayerMethod != api.MethodMWL {
		t.Errorf("default method = %d", got.PrayerMethod)
	}

	rec = env.do(t, http.MethodPut, "/api/account/preferences", map[string]any{"prayer_method": 99}, a.Token)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPut, "/api/account/preferences",
		map[string]any{"prayer_method": 2, "default_postcode": "b11aa", "use_current_location": true}, a.Token)
	expectStatus(t, rec, http.StatusOK)
	got := decode[store.Preferences](t, rec)
	if got.PrayerMethod != 2 || !got.UseCurrentLocation || got.DefaultPostcode == nil || *got.DefaultPostcode != "B1 1AA" {
		t.Errorf("preferences = %+v", got)
	}
}

// --- reminders, mosques and widgets ---

func TestReminderSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/reminders/signup",
		map[string]string{"name": "Yusuf", "email": "yusuf@example.com", "postcode": "ls11ur"}, "")
	expectStatus(t, rec, http.StatusCreated)
	if got := decode[store.ReminderSignup](t, rec); got.Postcode != "LS1 1UR" {
		t.Errorf("postcode = %q", got.Postcode)
	}

	rec = env.do(t, http.MethodPost, "/api/reminders/signup",
		map[string]string{"name": "Yusuf", "email": "yusuf@example.com", "postcode": "nowhere"}, "")
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != geo.InvalidPostcodeMessage {
		t.Errorf("error = %q", msg)
	}
}

func createMosque(t *testing.T, env *testEnv, goal int64) *store.Mosque {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/mosques", map[string]any{
		"name":                "East London Mosque",
		"admin_email":         "admin@elm.example",
		"postcode":            "e11jx",
		"donation_goal_pence": goal,
	}, "")
	expectStatus(t, rec, http.StatusCreated)
	m := decode[store.Mosque](t, rec)
	return &m
}

func TestMosques_CreateListGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	m := createMosque(t, env, 100000)

	if m.Approved || m.Postcode != "E1 1JX" {
		t.Errorf("mosque = %+v", m)
	}

	rec := env.do(t, http.MethodGet, "/api/mosques", nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string][]store.Mosque](t, rec)["mosques"]; len(got) != 0 {
		t.Errorf("unapproved mosque listed: %+v", got)
	}

	if err := env.store.ApproveMosque(ctx, m.ID); err != nil {
		t.Fatalf("ApproveMosque: %v", err)
	}
	rec = env.do(t, http.MethodGet, "/api/mosques", nil, "")
	if got := decode[map[string][]store.Mosque](t, rec)["mosques"]; len(got) != 1 {
		t.Errorf("approved mosques = %d, want 1", len(got))
	}

	rec = env.do(t, http.MethodPost, "/api/mosques/"+m.ID+"/iqama",
		map[string]any{"fajr": "06:15", "isha": "20:15", "recurring": true}, "")
	expectStatus(t, rec, http.StatusCreated)
	iq := decode[store.IqamaTimes](t, rec)

	rec = env.do(t, http.MethodGet, "/api/mosques/"+m.ID, nil, "")
	expectStatus(t, rec, http.StatusOK)
	if got := decode[mosqueView](t, rec); got.Iqama != nil {
		t.Error("pending iqama times should not be shown")
	}

	if err := env.store.ApproveIqama(ctx, iq.ID); err != nil {
		t.Fatalf("ApproveIqama: %v", err)
	}
	rec = env.do(t, http.MethodGet, "/api/mosques/"+m.ID, nil, "")
	got := decode[mosqueView](t, rec)
	if got.Iqama == nil || got.Iqama.Fajr == nil || *got.Iqama.Fajr != "06:15" {
		t.Errorf("iqama = %+v", got.Iqama)
	}
	if got.Mosque == nil || got.Mosque.Name != "East London Mosque" {
		t.Errorf("mosque = %+v", got.Mosque)
	}
}

func TestMosques_NotFound(t *testing.T) {
	env := newTestEnv(t)
	id := "6f1c7f9e-0000-4000-8000-000000000000"

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/mosques/" + id, nil},
		{http.MethodPost, "/api/mosques/" + id + "/iqama", map[string]string{"fajr": "06:00"}},
		{http.MethodPost, "/api/mosques/" + id + "/donations", map[string]any{"amount_pence": 500}},
		{http.MethodGet, "/api/mosques/" + id + "/donations/summary", nil},
	} {
		rec := env.do(t, tc.method, tc.path, tc.body, "")
		expectStatus(t, rec, http.StatusNotFound)
	}
}

func TestSubmitIqama_Validation(t *testing.T) {
	env := newTestEnv(t)
	m := createMosque(t, env, 0)

	rec := env.do(t, http.MethodPost, "/api/mosques/"+m.ID+"/iqama", map[string]any{"notes": "Jumuah only"}, "")
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != "at least one iqama time is required" {
		t.Errorf("error = %q", msg)
	}

	rec = env.do(t, http.MethodPost, "/api/mosques/"+m.ID+"/iqama", map[string]any{"fajr": "6am"}, "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestMosques_DonationGoal(t *testing.T) {
	env := newTestEnv(t)

	if m := createMosque(t, env, 0); m.DonationGoalPence != nil {
		t.Errorf("zero goal stored as %d, want none", *m.DonationGoalPence)
	}
	if m := createMosque(t, env, 5000); m.DonationGoalPence == nil || *m.DonationGoalPence != 5000 {
		t.Errorf("goal = %v, want 5000", m.DonationGoalPence)
	}

	rec := env.do(t, http.MethodPost, "/api/mosques", map[string]any{
		"name":                "East London Mosque",
		"admin_email":         "admin@elm.example",
		"postcode":            "E1 1JX",
		"donation_goal_pence": -1,
	}, "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDonations(t *testing.T) {
	env := newTestEnv(t)
	m := createMosque(t, env, 10000)

	rec := env.do(t, http.MethodPost, "/api/mosques/"+m.ID+"/donations",
		map[string]any{"amount_pence": 2500, "donor_name": "Bilal", "is_anonymous": true}, "")
	expectStatus(t, rec, http.StatusCreated)
	d := decode[store.Donation](t, rec)
	if d.Status != store.DonationPending || d.Currency != "GBP" || d.DonorName != nil {
		t.Errorf("donation = %+v", d)
	}

	rec = env.do(t, http.MethodPost, "/api/mosques/"+m.ID+"/donations", map[string]any{"amount_pence": 50}, "")
	expectStatus(t, rec, http.StatusBadRequest)

	// Only completed donations count towards the goal.
	if _, err := env.store.CreateDonation(context.Background(), store.NewDonation{
		MosqueID: m.ID, AmountPence: 3333, Status: store.DonationCompleted,
	}); err != nil {
		t.Fatalf("CreateDonation: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/mosques/"+m.ID+"/donations/summary", nil, "")
	expectStatus(t, rec, http.StatusOK)
	sum := decode[donationSummary](t, rec)
	if sum.TotalPence != 3333 || sum.Count != 1 {
		t.Errorf("total = %d over %d", sum.TotalPence, sum.Count)
	}
	if sum.Progress == nil || *sum.Progress != 33.3 {
		t.Errorf("progress = %v, want 33.3", sum.Progress)
	}
}

func TestWidgets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/widgets", map[string]string{"postcode": "g11xq", "theme": "dark"}, "")
	expectStatus(t, rec, http.StatusCreated)
	w := decode[widgetView](t, rec)
	if w.Widget == nil || w.Postcode != "G1 1XQ" || w.Theme != "dark" || w.Size != store.DefaultWidgetSize {
		t.Fatalf("widget = %+v", w)
	}
	if w.EmbedURL != "/api/widgets/"+w.ID+"/embed" {
		t.Errorf("embed url = %q", w.EmbedURL)
	}

	for i := 1; i <= 2; i++ {
		rec = env.do(t, http.MethodGet, w.EmbedURL, nil, "")
		expectStatus(t, rec, http.StatusOK)
		got := decode[embedView](t, rec)
		if got.Views != int64(i) {
			t.Errorf("views after %d embeds = %d", i, got.Views)
		}
		if got.Schedule.Next == nil || got.Schedule.Next.Name != "Dhuhr" {
			t.Errorf("next = %+v", got.Schedule.Next)
		}
	}

	rec = env.do(t, http.MethodPost, "/api/widgets", map[string]string{"postcode": "g11xq", "size": "huge"}, "")
	expectStatus(t, rec, http.StatusBadRequest)
	if msg := errorMessage(t, rec); msg != "Size must be one of: small medium large" {
		t.Errorf("error = %q", msg)
	}
}

// --- error mapping ---

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", apperr.New(apperr.InvalidInput, "op", "bad"), http.StatusBadRequest},
		{"not found", apperr.New(apperr.NotFound, "op", "missing"), http.StatusNotFound},
		{"network", apperr.New(apperr.NetworkFailure, "op", "down"), http.StatusBadGateway},
		{"persistence", apperr.New(apperr.PersistenceFailure, "op", "db"), http.StatusInternalServerError},
		{"conflict", apperr.Wrap(apperr.PersistenceFailure, "op", "dup", fmt.Errorf("%w: x", store.ErrConflict)), http.StatusConflict},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"token", fmt.Errorf("verify: %w", auth.ErrInvalidToken), http.StatusUnauthorized},
		{"explicit", badRequest("nope"), http.StatusBadRequest},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMessageFor_HidesInternalErrors(t *testing.T) {
	err := apperr.Wrap(apperr.PersistenceFailure, "store.Get", "database error", errors.New("pq: password authentication failed"))
	if got := messageFor(err, statusFor(err)); got != "internal error" {
		t.Errorf("message = %q", got)
	}
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/prayers", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
