package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-search-service/internal/logger"
	"github.com/i474232898/weather-search-service/internal/weather"
)

// stubProvider serves a fixed forecast window around the real current day so
// handler tests can use future-only ranges without pinning the clock.
type stubProvider struct{}

func (stubProvider) Search(_ context.Context, _ string) ([]weather.LocationMatch, error) {
	return []weather.LocationMatch{{Name: "London", Lat: 51.52, Lon: -0.11}}, nil
}

func (stubProvider) Forecast(_ context.Context, _ string, days int) (*weather.ForecastPayload, error) {
	today := weather.DateOf(time.Now())
	var forecastDays []weather.DayRecord
	for i := 0; i < days; i++ {
		d := today.AddDays(i)
		raw := fmt.Sprintf(`{"date": %q, "day": {"avgtemp_c": 15, "avghumidity": 60, "maxwind_kph": 20, "condition": {"text": "Sunny"}}}`, d.String())
		var rec weather.DayRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		forecastDays = append(forecastDays, rec)
	}
	return &weather.ForecastPayload{
		Location: weather.LocationBlock{Name: "London", Lat: 51.52, Lon: -0.11},
		Forecast: weather.ForecastBlock{ForecastDay: forecastDays},
	}, nil
}

func (stubProvider) HistoryForDay(_ context.Context, _ string, _ weather.Date) (*weather.ForecastPayload, error) {
	return nil, weather.ErrProvider
}

// stubStore is a minimal in-memory weather.Store.
type stubStore struct {
	records map[uint]*weather.SearchRecord
	nextID  uint
}

func newStubStore() *stubStore {
	return &stubStore{records: make(map[uint]*weather.SearchRecord), nextID: 1}
}

func (s *stubStore) Create(_ context.Context, rec *weather.SearchRecord) (*weather.SearchRecord, error) {
	stored := *rec
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UTC()
	s.nextID++
	s.records[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *stubStore) Update(_ context.Context, rec *weather.SearchRecord) (*weather.SearchRecord, error) {
	if _, ok := s.records[rec.ID]; !ok {
		return nil, weather.ErrRecordNotFound
	}
	stored := *rec
	s.records[rec.ID] = &stored
	out := stored
	return &out, nil
}

func (s *stubStore) GetByID(_ context.Context, id uint) (*weather.SearchRecord, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, weather.ErrRecordNotFound
	}
	out := *rec
	return &out, nil
}

func (s *stubStore) List(_ context.Context, _, _ int) ([]weather.SearchRecord, error) {
	return s.all(), nil
}

func (s *stubStore) ListAll(_ context.Context) ([]weather.SearchRecord, error) {
	return s.all(), nil
}

func (s *stubStore) ListActiveOn(_ context.Context, _ weather.Date) ([]weather.SearchRecord, error) {
	return nil, nil
}

func (s *stubStore) Delete(_ context.Context, id uint) error {
	if _, ok := s.records[id]; !ok {
		return weather.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *stubStore) all() []weather.SearchRecord {
	var all []weather.SearchRecord
	for id := uint(1); id < s.nextID; id++ {
		if rec, ok := s.records[id]; ok {
			all = append(all, *rec)
		}
	}
	return all
}

func newTestApp(t *testing.T) (*fiber.App, *stubStore) {
	t.Helper()

	store := newStubStore()
	log := logger.NewNop()
	svc := weather.NewService(stubProvider{}, weather.NewEnricher(nil, log), store, log, nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})
	RegisterRoutes(app, svc)
	return app, store
}

func createSearch(t *testing.T, app *fiber.App) weather.SearchRecord {
	t.Helper()

	today := weather.DateOf(time.Now())
	body := fmt.Sprintf(`{"location_name": "london", "search_date_from": %q, "search_date_to": %q}`,
		today.AddDays(1).String(), today.AddDays(3).String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec weather.SearchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	return rec
}

func TestCreateEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	rec := createSearch(t, app)
	assert.Equal(t, uint(1), rec.ID)
	assert.Equal(t, "London", rec.LocationName)
	assert.Equal(t, "Sunny", rec.ConditionText)
	require.NotNil(t, rec.MapsURL)
}

func TestCreateEndpoint_Validation(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing_location", `{"search_date_from": "2025-06-01", "search_date_to": "2025-06-02"}`},
		{"missing_dates", `{"location_name": "london"}`},
		{"bad_date_format", `{"location_name": "london", "search_date_from": "01/06/2025", "search_date_to": "2025-06-02"}`},
		{"not_json", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCreateEndpoint_InvertedRangeIs400(t *testing.T) {
	app, _ := newTestApp(t)

	today := weather.DateOf(time.Now())
	body := fmt.Sprintf(`{"location_name": "london", "search_date_from": %q, "search_date_to": %q}`,
		today.AddDays(3).String(), today.AddDays(1).String())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetByIDEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	created := createSearch(t, app)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/weather/%d", created.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/999", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/abc", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	createSearch(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []weather.SearchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	assert.Len(t, records, 1)

	// Out-of-range pagination params are rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/?limit=500", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateEndpoint_NoteOnly(t *testing.T) {
	app, _ := newTestApp(t)
	created := createSearch(t, app)

	body := `{"user_note": "pack sunscreen"}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/weather/%d", created.ID), bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated weather.SearchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	require.NotNil(t, updated.UserNote)
	assert.Equal(t, "pack sunscreen", *updated.UserNote)
}

func TestUpdateEndpoint_EmptyBodyRejected(t *testing.T) {
	app, _ := newTestApp(t)
	created := createSearch(t, app)

	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/weather/%d", created.ID), bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteEndpoint(t *testing.T) {
	app, store := newTestApp(t)
	created := createSearch(t, app)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/weather/%d", created.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, store.records)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/weather/%d", created.ID), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	createSearch(t, app)

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/export?format=json", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var rows []map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &rows))
		assert.Len(t, rows, 1)
	})

	t.Run("csv", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/export?format=csv", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "location_name")
	})

	t.Run("invalid_format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/export?format=xml", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
