package weather

import "context"

// LocationMatch is one candidate from the provider's fuzzy location search,
// ranked best first.
type LocationMatch struct {
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Provider abstracts the upstream weather API (WeatherAPI.com in production).
// Implementations translate transport and API errors into the package
// taxonomy; callers never see raw HTTP failures.
type Provider interface {
	// Search resolves a free-text query to ranked location matches.
	Search(ctx context.Context, query string) ([]LocationMatch, error)

	// Forecast returns up to days of forecast starting today. There is no
	// way to request a sub-window; callers filter afterwards.
	Forecast(ctx context.Context, location string, days int) (*ForecastPayload, error)

	// HistoryForDay returns a single historical day. The provider has no
	// multi-day historical query, so range coverage means one call per day.
	HistoryForDay(ctx context.Context, location string, day Date) (*ForecastPayload, error)
}

// VideoProvider abstracts the video search used for enrichment.
type VideoProvider interface {
	SearchVideos(ctx context.Context, query string, maxResults int64) ([]string, error)
}

// Store is the persistence contract for search records. The pipeline hands
// it fully assembled records; the store owns ids and timestamps.
type Store interface {
	Create(ctx context.Context, rec *SearchRecord) (*SearchRecord, error)
	Update(ctx context.Context, rec *SearchRecord) (*SearchRecord, error)
	GetByID(ctx context.Context, id uint) (*SearchRecord, error)
	List(ctx context.Context, skip, limit int) ([]SearchRecord, error)
	ListAll(ctx context.Context) ([]SearchRecord, error)
	// ListActiveOn returns records whose range still includes day or later,
	// i.e. records whose forecast portion can go stale.
	ListActiveOn(ctx context.Context, day Date) ([]SearchRecord, error)
	Delete(ctx context.Context, id uint) error
}
