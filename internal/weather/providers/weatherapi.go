package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-search-service/internal/metrics"
	"github.com/i474232898/weather-search-service/internal/weather"
)

// WeatherAPI.com error code for "no location found matching parameter 'q'".
const codeNoMatchingLocation = 1006

// WeatherAPIClient implements weather.Provider against WeatherAPI.com.
// It covers the three endpoints the pipeline needs: search.json for fuzzy
// location resolution, forecast.json for the forward window, and history.json
// for single historical days.
type WeatherAPIClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// NewWeatherAPIClient builds a client. met may be nil.
func NewWeatherAPIClient(client *http.Client, apiKey, baseURL string, met *metrics.Metrics) *WeatherAPIClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &WeatherAPIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		metrics: met,
	}
}

// Search resolves a free-text query into ranked location matches.
func (c *WeatherAPIClient) Search(ctx context.Context, query string) ([]weather.LocationMatch, error) {
	values := url.Values{}
	values.Set("q", query)

	body, err := c.get(ctx, "search.json", values)
	if err != nil {
		return nil, err
	}

	var matches []weather.LocationMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("decode search response: %w", weather.ErrProvider)
	}
	return matches, nil
}

// Forecast requests up to days of forecast starting today.
func (c *WeatherAPIClient) Forecast(ctx context.Context, location string, days int) (*weather.ForecastPayload, error) {
	values := url.Values{}
	values.Set("q", location)
	values.Set("days", fmt.Sprintf("%d", days))
	values.Set("aqi", "yes")
	values.Set("alerts", "yes")

	return c.getPayload(ctx, "forecast.json", values)
}

// HistoryForDay requests a single historical day.
func (c *WeatherAPIClient) HistoryForDay(ctx context.Context, location string, day weather.Date) (*weather.ForecastPayload, error) {
	values := url.Values{}
	values.Set("q", location)
	values.Set("dt", day.String())
	values.Set("aqi", "yes")

	return c.getPayload(ctx, "history.json", values)
}

func (c *WeatherAPIClient) getPayload(ctx context.Context, endpoint string, values url.Values) (*weather.ForecastPayload, error) {
	body, err := c.get(ctx, endpoint, values)
	if err != nil {
		return nil, err
	}

	var payload weather.ForecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, weather.ErrProvider)
	}
	return &payload, nil
}

// get performs one resilient call and returns the raw body after translating
// transport failures and API error envelopes into the weather taxonomy.
func (c *WeatherAPIClient) get(ctx context.Context, endpoint string, values url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("weatherapi key is not configured: %w", weather.ErrProvider)
	}

	c.metrics.IncProviderCall(endpoint)

	buildRequest := func() (*http.Request, error) {
		v := url.Values{}
		for k, vals := range values {
			v[k] = vals
		}
		v.Set("key", c.apiKey)

		u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, v.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("weatherapi %s: %v: %w", endpoint, err, weather.ErrProvider)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weatherapi %s: read body: %w", endpoint, weather.ErrProvider)
	}

	if apiErr := parseErrorEnvelope(body); apiErr != nil {
		if apiErr.Code == codeNoMatchingLocation {
			return nil, fmt.Errorf("weatherapi: %s: %w", apiErr.Message, weather.ErrLocationNotFound)
		}
		return nil, fmt.Errorf("weatherapi: %s (code %d): %w", apiErr.Message, apiErr.Code, weather.ErrProvider)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("weatherapi %s: unexpected status %d: %w", endpoint, resp.StatusCode, weather.ErrProvider)
	}

	return body, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// parseErrorEnvelope detects WeatherAPI's {"error": {...}} envelope, which
// can arrive with 2xx or 4xx statuses. Array responses (search.json) never
// carry one.
func parseErrorEnvelope(body []byte) *apiError {
	if len(body) == 0 || body[0] != '{' {
		return nil
	}
	var envelope struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Error
}
