package weather

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/i474232898/weather-search-service/internal/logger"
	"github.com/i474232898/weather-search-service/internal/metrics"
)

// Service orchestrates the aggregation pipeline and hands results to the
// store. One call to Create or Update is one independent unit of work; the
// record is fully assembled in memory before persistence is invoked, so a
// failure at any stage leaves nothing half-written.
type Service struct {
	provider Provider
	enricher *Enricher
	store    Store
	log      logger.Logger
	metrics  *metrics.Metrics

	// now is the clock; tests pin it.
	now func() time.Time
}

// NewService creates a Service. met may be nil.
func NewService(provider Provider, enricher *Enricher, store Store, log logger.Logger, met *metrics.Metrics) *Service {
	return &Service{
		provider: provider,
		enricher: enricher,
		store:    store,
		log:      log,
		metrics:  met,
		now:      time.Now,
	}
}

func (s *Service) today() Date {
	return DateOf(s.now())
}

// CreateRequest carries the parameters for a new weather search.
type CreateRequest struct {
	LocationName string
	DateFrom     Date
	DateTo       Date
}

// UpdateRequest carries optional new parameters for an existing record.
// Changing the location or either date re-runs the whole pipeline; a
// note-only change touches nothing else.
type UpdateRequest struct {
	LocationName *string
	DateFrom     *Date
	DateTo       *Date
	UserNote     *string
}

func (r UpdateRequest) changesSearch() bool {
	return (r.LocationName != nil && *r.LocationName != "") ||
		(r.DateFrom != nil && !r.DateFrom.IsZero()) ||
		(r.DateTo != nil && !r.DateTo.IsZero())
}

func (r UpdateRequest) empty() bool {
	return !r.changesSearch() && r.UserNote == nil
}

// Create runs the full pipeline for the request and persists a new record.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*SearchRecord, error) {
	result, err := s.runPipeline(ctx, req.LocationName, req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}

	rec, err := recordFromResult(result)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Create(ctx, rec)
	if err != nil {
		s.metrics.IncPipelineFailure("persist")
		return nil, err
	}

	s.metrics.IncRecordCreated()
	s.log.Info("search record created",
		"id", stored.ID, "location", stored.LocationName,
		"from", stored.DateFrom.String(), "to", stored.DateTo.String())
	return stored, nil
}

// Update modifies an existing record. If any search parameter changes, the
// whole pipeline re-runs against the merged parameters and every derived
// field is overwritten; there is no incremental patching. A note-only update
// skips the pipeline. An update changing nothing is rejected.
func (s *Service) Update(ctx context.Context, id uint, req UpdateRequest) (*SearchRecord, error) {
	if req.empty() {
		return nil, ErrNoOpUpdate
	}

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.changesSearch() {
		location := rec.LocationName
		if req.LocationName != nil && *req.LocationName != "" {
			location = *req.LocationName
		}
		from := rec.DateFrom
		if req.DateFrom != nil && !req.DateFrom.IsZero() {
			from = *req.DateFrom
		}
		to := rec.DateTo
		if req.DateTo != nil && !req.DateTo.IsZero() {
			to = *req.DateTo
		}

		result, err := s.runPipeline(ctx, location, from, to)
		if err != nil {
			return nil, err
		}
		if err := applyResult(rec, result); err != nil {
			return nil, err
		}
	}

	if req.UserNote != nil {
		rec.UserNote = req.UserNote
	}

	return s.store.Update(ctx, rec)
}

// GetByID delegates to the store.
func (s *Service) GetByID(ctx context.Context, id uint) (*SearchRecord, error) {
	return s.store.GetByID(ctx, id)
}

// List delegates to the store, newest first.
func (s *Service) List(ctx context.Context, skip, limit int) ([]SearchRecord, error) {
	return s.store.List(ctx, skip, limit)
}

// Delete delegates to the store.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.store.Delete(ctx, id)
}

// runPipeline executes validate -> resolve -> fetch -> filter -> summarize,
// with video enrichment running concurrently from the moment the location is
// resolved. The enrichment result is awaited before returning so the record
// is internally consistent, but its failure never aborts the run.
func (s *Service) runPipeline(ctx context.Context, location string, from, to Date) (*AggregatedWeatherResult, error) {
	start := s.now()
	defer func() { s.metrics.ObservePipeline(s.now().Sub(start)) }()

	today := s.today()

	r, err := ValidateRange(from, to, today)
	if err != nil {
		s.metrics.IncPipelineFailure("validate")
		return nil, err
	}

	name, err := ResolveLocation(ctx, s.provider, location)
	if err != nil {
		s.metrics.IncPipelineFailure("resolve")
		return nil, err
	}

	videoCh := make(chan []string, 1)
	go func() {
		videoCh <- s.enricher.Videos(ctx, name)
	}()

	payload, err := FetchRange(ctx, s.provider, name, r, today)
	if err != nil {
		s.metrics.IncPipelineFailure("fetch")
		return nil, err
	}

	filtered, err := FilterToRange(payload, r)
	if err != nil {
		s.metrics.IncPipelineFailure("filter")
		return nil, err
	}

	summary, err := Summarize(filtered.Forecast.ForecastDay)
	if err != nil {
		s.metrics.IncPipelineFailure("summarize")
		return nil, err
	}

	return &AggregatedWeatherResult{
		LocationName: name,
		Range:        r,
		Days:         filtered.Forecast.ForecastDay,
		Summary:      summary,
		RawPayload:   *filtered,
		Enrichment: Enrichment{
			MapsURL:  MapsURL(payload.Location),
			VideoIDs: <-videoCh,
		},
	}, nil
}

// RefreshActiveForecasts re-runs the pipeline for every record whose range
// still reaches into the forecast window, rewriting the derived fields so
// stored summaries do not go stale. Individual failures are logged and
// skipped; the job continues with the remaining records.
func (s *Service) RefreshActiveForecasts(ctx context.Context) error {
	records, err := s.store.ListActiveOn(ctx, s.today())
	if err != nil {
		return err
	}

	for i := range records {
		rec := &records[i]
		result, err := s.runPipeline(ctx, rec.LocationName, rec.DateFrom, rec.DateTo)
		if err != nil {
			s.log.Warn("refresh failed", "id", rec.ID, "location", rec.LocationName, "error", err)
			continue
		}
		if err := applyResult(rec, result); err != nil {
			s.log.Warn("refresh apply failed", "id", rec.ID, "error", err)
			continue
		}
		if _, err := s.store.Update(ctx, rec); err != nil {
			s.log.Warn("refresh persist failed", "id", rec.ID, "error", err)
			continue
		}
		s.metrics.IncRecordRefreshed()
	}

	return nil
}

func recordFromResult(result *AggregatedWeatherResult) (*SearchRecord, error) {
	rec := &SearchRecord{}
	if err := applyResult(rec, result); err != nil {
		return nil, err
	}
	return rec, nil
}

// applyResult overwrites every derived field on the record from a pipeline
// result. The user note is deliberately untouched.
func applyResult(rec *SearchRecord, result *AggregatedWeatherResult) error {
	raw, err := json.Marshal(result.RawPayload)
	if err != nil {
		return fmt.Errorf("encode raw payload: %w", err)
	}

	rec.LocationName = result.LocationName
	rec.DateFrom = result.Range.From
	rec.DateTo = result.Range.To
	rec.AvgTempC = result.Summary.AvgTempC
	rec.ConditionText = result.Summary.ConditionText
	rec.AvgHumidity = result.Summary.AvgHumidity
	rec.MaxWindKph = result.Summary.MaxWindKph
	rec.MapsURL = result.Enrichment.MapsURL
	rec.VideoIDs = result.Enrichment.VideoIDs
	rec.RawForecast = raw
	return nil
}

// exportHeader fixes the export column order for both formats.
var exportHeader = []string{
	"id", "location_name", "search_date_from", "search_date_to",
	"summary_avg_temp_c", "summary_condition_text",
	"summary_avg_humidity", "summary_max_wind_kph",
	"user_note", "google_maps_url", "created_at",
}

// Export renders every stored record as flattened rows in the requested
// format ("json" or "csv"). The raw payload and video id blobs are omitted
// in both for readability.
func (s *Service) Export(ctx context.Context, format string) ([]byte, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		rows := make([]map[string]interface{}, 0, len(records))
		for i := range records {
			rows = append(rows, exportRow(&records[i]))
		}
		return json.Marshal(rows)

	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(exportHeader); err != nil {
			return nil, err
		}
		for i := range records {
			if err := w.Write(exportCSVRow(&records[i])); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("invalid export format %q: supported formats are json and csv", format)
	}
}

func exportRow(rec *SearchRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":                     rec.ID,
		"location_name":          rec.LocationName,
		"search_date_from":       rec.DateFrom.String(),
		"search_date_to":         rec.DateTo.String(),
		"summary_avg_temp_c":     rec.AvgTempC,
		"summary_condition_text": rec.ConditionText,
		"summary_avg_humidity":   rec.AvgHumidity,
		"summary_max_wind_kph":   rec.MaxWindKph,
		"user_note":              rec.UserNote,
		"google_maps_url":        rec.MapsURL,
		"created_at":             rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func exportCSVRow(rec *SearchRecord) []string {
	note := ""
	if rec.UserNote != nil {
		note = *rec.UserNote
	}
	mapsURL := ""
	if rec.MapsURL != nil {
		mapsURL = *rec.MapsURL
	}
	return []string{
		strconv.FormatUint(uint64(rec.ID), 10),
		rec.LocationName,
		rec.DateFrom.String(),
		rec.DateTo.String(),
		strconv.FormatFloat(rec.AvgTempC, 'f', -1, 64),
		rec.ConditionText,
		strconv.FormatFloat(rec.AvgHumidity, 'f', -1, 64),
		strconv.FormatFloat(rec.MaxWindKph, 'f', -1, 64),
		note,
		mapsURL,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
