package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripnest/catalog/internal/domain"
	"github.com/tripnest/catalog/internal/query"
	"github.com/tripnest/catalog/internal/storage"
)

var (
	testHotels = []domain.RawRecord{
		{"id": "1", "name": "Sea Pearl", "location": "Goa", "rating": 4.5, "reviewCount": 10.0, "pricePerNight": 6000.0, "amenities": []any{"Wi-Fi", "Pool"}},
		{"id": "2", "name": "Hill View", "location": "Manali", "rating": 4.8, "pricePerNight": 3000.0, "amenities": []any{"Wi-Fi"}},
		{"id": "3", "name": "Beach Hut", "location": "North Goa", "rating": 3.9, "pricePerNight": 2500.0, "amenities": []any{"Pool"}, "isAvailable": false},
	}
	testVehicles = []domain.RawRecord{
		{"id": "v1", "name": "Activa", "type": "Scooter", "transmission": "Automatic", "fuel": "Petrol", "rating": 4.2,
			"pricePerHour": 50.0, "pricePerDay": 400.0, "pricePerWeek": 2500.0},
		{"id": "v2", "name": "Swift", "type": "Car", "transmission": "Manual", "fuel": "Petrol", "ac": true, "rating": 4.6,
			"pricePerHour": 150.0, "pricePerDay": 1800.0, "pricePerWeek": 11000.0},
	}
)

type pageBody struct {
	Items []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"items"`
	TotalCount  int `json:"total_count"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
}

func (p pageBody) ids() []string {
	out := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, it.ID)
	}
	return out
}

type errorBody struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details"`
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.UpsertMany(ctx, domain.DomainHotel, testHotels))
	require.NoError(t, store.UpsertMany(ctx, domain.DomainVehicle, testVehicles))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(query.NewEngine(query.DefaultDefaults()), store, store, log)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	var got map[string]string
	resp := getJSON(t, ts.URL+"/health", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", got["status"])
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}

func TestList_FiltersSortAndPage(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	var got pageBody
	resp := getJSON(t, ts.URL+"/api/v1/hotels?location=GOA&sort=price_low", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"3", "1"}, got.ids())
	assert.Equal(t, 2, got.TotalCount)
	assert.Equal(t, 1, got.TotalPages)
	assert.Equal(t, 1, got.CurrentPage)
	assert.Equal(t, query.DefaultPageSize, got.PageSize)

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/hotels?amenities=wi-fi&amenities=POOL", &got)
	assert.Equal(t, []string{"1"}, got.ids())

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/hotels?available=false", &got)
	assert.Equal(t, []string{"3"}, got.ids())

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/hotels?q=hill", &got)
	assert.Equal(t, []string{"2"}, got.ids())

	// default sort is rating descending
	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/hotels?page_size=2&page=99", &got)
	assert.Equal(t, []string{"3"}, got.ids())
	assert.Equal(t, 2, got.TotalPages)
	assert.Equal(t, 2, got.CurrentPage)
	assert.Equal(t, 3, got.TotalCount)
}

func TestList_VehiclePriceBasis(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	var got pageBody
	getJSON(t, ts.URL+"/api/v1/vehicles?sort=priceLow", &got)
	assert.Equal(t, []string{"v1", "v2"}, got.ids())

	// the default range is a per-day range and does not apply to other bases
	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/vehicles?price_basis=hour&sort=priceLow", &got)
	assert.Equal(t, []string{"v1", "v2"}, got.ids())

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/vehicles?price_basis=week&sort=priceHigh", &got)
	assert.Equal(t, []string{"v2", "v1"}, got.ids())
	assert.Equal(t, 2, got.TotalCount)

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/vehicles?price_basis=hour&min_price=100", &got)
	assert.Equal(t, []string{"v2"}, got.ids())

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/vehicles?price_basis=week&max_price=3000", &got)
	assert.Equal(t, []string{"v1"}, got.ids())

	got = pageBody{}
	getJSON(t, ts.URL+"/api/v1/vehicles?ac=true&transmission=manual,automatic", &got)
	assert.Equal(t, []string{"v2"}, got.ids())
}

func TestList_InvertedRangeIsEmptyNotAnError(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	var got pageBody
	resp := getJSON(t, ts.URL+"/api/v1/hotels?min_price=5000&max_price=100", &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.TotalCount)
	assert.Equal(t, 1, got.TotalPages)
	assert.Equal(t, 1, got.CurrentPage)
}

func TestList_BadRequests(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	cases := map[string]string{
		"/api/v1/hotels?min_price=abc":      "min_price",
		"/api/v1/hotels?min_rating=7":       "min_rating",
		"/api/v1/hotels?sort=cheapest":      "sort",
		"/api/v1/vehicles?price_basis=year": "price_basis",
		"/api/v1/vehicles?ac=maybe":         "ac",
		"/api/v1/rooms?page=two":            "page",
	}
	for path, field := range cases {
		var got errorBody
		resp := getJSON(t, ts.URL+path, &got)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "invalid_query", got.Error, path)
		require.NotEmpty(t, got.Details, path)
		assert.Equal(t, field, got.Details[0].Field, path)
	}

	resp := getJSON(t, ts.URL+"/api/v1/boats", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetByID(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	var rec domain.ListingRecord
	resp := getJSON(t, ts.URL+"/api/v1/hotels/2", &rec)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hill View", rec.Name)
	require.NotNil(t, rec.Hotel)
	assert.Equal(t, 3000.0, rec.Hotel.PricePerNight)
	assert.Equal(t, 4, rec.Hotel.StarCategory)

	resp = getJSON(t, ts.URL+"/api/v1/hotels/99", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func TestCreate(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, body := post(t, ts.URL+"/api/v1/resorts", `{"id":"r-9","name":"Coral Bay","location":"Havelock","pricePerNight":7000,"roomTypes":["Villa"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created domain.ListingRecord
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "r-9", created.ID)
	require.NotNil(t, created.Resort)
	assert.Equal(t, []string{"Villa"}, created.Resort.RoomTypes)
	assert.NotEmpty(t, created.Images)

	var got pageBody
	getJSON(t, ts.URL+"/api/v1/resorts?room_types=villa", &got)
	assert.Equal(t, []string{"r-9"}, got.ids())

	resp, _ = post(t, ts.URL+"/api/v1/resorts", `{"id":"r-9","name":"Again"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = post(t, ts.URL+"/api/v1/resorts", `{"location":"Nowhere","rating":7}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var verr errorBody
	require.NoError(t, json.Unmarshal(body, &verr))
	assert.Equal(t, "validation_failed", verr.Error)
	fields := []string{}
	for _, d := range verr.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"name", "rating"}, fields)

	resp, _ = post(t, ts.URL+"/api/v1/resorts", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreate_GeneratesID(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, body := post(t, ts.URL+"/api/v1/rooms", `{"name":"Deluxe","hotelId":"1","capacity":3,"pricePerNight":4200}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created domain.ListingRecord
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Len(t, created.ID, 36)

	var got pageBody
	getJSON(t, ts.URL+"/api/v1/rooms?hotel_id=1&min_capacity=2", &got)
	assert.Equal(t, []string{created.ID}, got.ids())
	assert.Equal(t, query.DefaultRoomPageSize, got.PageSize)
}

func TestQuote(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	var q struct {
		VehicleID   string  `json:"vehicle_id"`
		Basis       string  `json:"basis"`
		Days        int     `json:"days"`
		Total       float64 `json:"total"`
		AmountMinor int64   `json:"amount_minor"`
	}
	resp := getJSON(t, ts.URL+"/api/v1/vehicles/v1/quote?pickup=2025-03-01T10:00:00Z&return=2025-03-03T09:00:00Z", &q)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "v1", q.VehicleID)
	assert.Equal(t, "day", q.Basis)
	assert.Equal(t, 2, q.Days)
	assert.Equal(t, 800.0, q.Total)
	assert.Equal(t, int64(80000), q.AmountMinor)

	var e errorBody
	resp = getJSON(t, ts.URL+"/api/v1/vehicles/v1/quote?pickup=2025-03-03T10:00:00Z&return=2025-03-01T10:00:00Z", &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_window", e.Error)

	resp = getJSON(t, ts.URL+"/api/v1/vehicles/v1/quote?pickup=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/v1/hotels/1/quote?pickup=2025-03-01T10:00:00Z&return=2025-03-02T10:00:00Z", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/v1/vehicles/nope/quote?pickup=2025-03-01T10:00:00Z&return=2025-03-02T10:00:00Z", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	srv.Limiter = NewRateLimiter(0.001, 2)
	h := srv.Routes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a forwarded address from a direct client is ignored
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// another peer has its own bucket
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_BehindProxy(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	srv.Limiter = NewRateLimiter(0.001, 1)
	srv.BehindProxy = true
	h := srv.Routes()

	serve := func(forwarded string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, serve("10.0.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.9"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.10"))
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(10 * time.Minute)
	assert.True(t, rl.allow("b"))
	rl.mu.Lock()
	_, kept := rl.clients["a"]
	rl.mu.Unlock()
	assert.False(t, kept)
}

func TestRecoverer(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	srv.Source = storage.SourceFunc(func(context.Context, domain.Domain) ([]domain.RawRecord, error) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hotels", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseListParams_MultiValue(t *testing.T) {
	p, errs := parseListParams(map[string][]string{
		"fuel":      {"Petrol, Diesel", "EV"},
		"star":      {" "},
		"available": {"any"},
	})
	require.Empty(t, errs)
	assert.Equal(t, map[string][]string{"fuel": {"Petrol", "Diesel", "EV"}}, p.categorical)
	assert.Nil(t, p.boolean)

	q := p.apply(domain.QueryState{SortKey: domain.SortRating, Page: 1})
	assert.Equal(t, domain.SortRating, q.SortKey)
	assert.True(t, strings.EqualFold("EV", q.CategoricalFilters["fuel"][2]))
}

func TestDelete(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	del := func(path string) *http.Response {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusOK, del("/api/v1/hotels/2").StatusCode)
	var got pageBody
	getJSON(t, ts.URL+"/api/v1/hotels", &got)
	assert.ElementsMatch(t, []string{"1", "3"}, got.ids())

	assert.Equal(t, http.StatusNotFound, del("/api/v1/hotels/2").StatusCode)
	assert.Equal(t, http.StatusNotFound, del("/api/v1/vehicles/1").StatusCode)
	assert.Equal(t, http.StatusNotFound, del("/api/v1/boats/1").StatusCode)
}

type hintedSource struct {
	storage.Source
	mu  sync.Mutex
	got []storage.Hints
}

func (h *hintedSource) ListHinted(ctx context.Context, d domain.Domain, hints storage.Hints) ([]domain.RawRecord, error) {
	h.mu.Lock()
	h.got = append(h.got, hints)
	h.mu.Unlock()
	return h.Source.List(ctx, d)
}

func TestList_PassesExplicitFiltersToSource(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	src := &hintedSource{Source: srv.Source}
	srv.Source = src
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	var got pageBody
	getJSON(t, ts.URL+"/api/v1/hotels?q=pearl&min_rating=4&amenities=pool", &got)
	assert.Equal(t, []string{"1"}, got.ids())

	getJSON(t, ts.URL+"/api/v1/hotels", &pageBody{})

	src.mu.Lock()
	defer src.mu.Unlock()
	require.Len(t, src.got, 1, "a request without filters uses the plain listing")
	assert.Equal(t, "pearl", src.got[0].Search)
	require.NotNil(t, src.got[0].MinRating)
	assert.Equal(t, 4.0, *src.got[0].MinRating)
	assert.Nil(t, src.got[0].MinPrice)
	assert.Equal(t, []string{"pool"}, src.got[0].Amenities)
}
