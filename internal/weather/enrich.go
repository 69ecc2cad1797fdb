package weather

import (
	"context"
	"fmt"

	"github.com/i474232898/weather-search-service/internal/logger"
)

// maxVideoResults caps the enrichment video search.
const maxVideoResults = 5

// Enricher produces best-effort auxiliary data for a resolved location.
// Nothing here ever fails the caller: missing credentials, network errors and
// empty results all degrade to absent fields.
type Enricher struct {
	videos VideoProvider
	log    logger.Logger
}

// NewEnricher builds an Enricher. videos may be nil when no video credential
// is configured; lookups then resolve to no data.
func NewEnricher(videos VideoProvider, log logger.Logger) *Enricher {
	return &Enricher{videos: videos, log: log}
}

// Videos searches for travel videos about the location, capped at
// maxVideoResults. Any failure returns nil.
func (e *Enricher) Videos(ctx context.Context, locationName string) []string {
	if e == nil || e.videos == nil {
		return nil
	}

	query := fmt.Sprintf("%s travel guide", locationName)
	ids, err := e.videos.SearchVideos(ctx, query, maxVideoResults)
	if err != nil {
		e.log.Warn("video enrichment failed", "location", locationName, "error", err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// MapsURL derives a Google Maps link from the provider's location block.
// No API call involved; absent coordinates yield nil.
func MapsURL(loc LocationBlock) *string {
	if loc.Lat == 0 && loc.Lon == 0 {
		return nil
	}
	u := fmt.Sprintf("https://www.google.com/maps?q=%v,%v", loc.Lat, loc.Lon)
	return &u
}
