package weather

import (
	"context"
	"errors"
	"fmt"
)

// ResolveLocation normalizes a free-text location through the provider's
// search endpoint and returns the top match's canonical name. The canonical
// name, never the raw query, is used for all subsequent calls and persisted.
func ResolveLocation(ctx context.Context, p Provider, query string) (string, error) {
	matches, err := p.Search(ctx, query)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			return "", fmt.Errorf("location not found for query %q: %w", query, ErrLocationNotFound)
		}
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("location not found for query %q: %w", query, ErrLocationNotFound)
	}
	return matches[0].Name, nil
}

// FetchRange issues the provider calls needed to cover the range and stitches
// the responses into one provider-shaped payload with days in ascending order.
//
// The range is split on today: days up to yesterday come from the historical
// endpoint one call per day (the provider has no bulk historical query); any
// part of the range from today onward is covered by a single forecast call at
// the maximum horizon. A range straddling today runs both segments, and the
// segments are date-disjoint by construction.
//
// Any failed or dayless historical call aborts the fetch: the summary needs
// complete coverage, so partial historical data is worse than none.
func FetchRange(ctx context.Context, p Provider, location string, r DateRange, today Date) (*ForecastPayload, error) {
	yesterday := today.AddDays(-1)

	var (
		histDays []DayRecord
		histLoc  LocationBlock
	)
	if !r.From.After(yesterday) {
		end := r.To
		if end.After(yesterday) {
			end = yesterday
		}
		for d := r.From; !d.After(end); d = d.AddDays(1) {
			payload, err := p.HistoryForDay(ctx, location, d)
			if err != nil {
				return nil, fmt.Errorf("history for %s: %w", d, err)
			}
			days := payload.Forecast.ForecastDay
			if len(days) == 0 {
				return nil, fmt.Errorf("history for %s returned no day: %w", d, ErrProvider)
			}
			histDays = append(histDays, days[0])
			if histLoc.Empty() {
				histLoc = payload.Location
			}
		}
	}

	var (
		fcDays []DayRecord
		fcLoc  LocationBlock
	)
	if !r.To.Before(today) {
		payload, err := p.Forecast(ctx, location, ForecastHorizonDays)
		if err != nil {
			return nil, fmt.Errorf("forecast: %w", err)
		}
		fcDays = payload.Forecast.ForecastDay
		fcLoc = payload.Location
	}

	merged := stitch(histDays, fcDays)
	if len(merged) == 0 {
		return nil, ErrNoDataFound
	}

	loc := fcLoc
	if loc.Empty() {
		loc = histLoc
	}

	return &ForecastPayload{
		Location: loc,
		Forecast: ForecastBlock{ForecastDay: merged},
	}, nil
}

// stitch concatenates the historical and forecast segments in that order.
// No de-duplication: historical days end at yesterday and forecast days start
// today, so the segments never overlap.
func stitch(historical, forecast []DayRecord) []DayRecord {
	merged := make([]DayRecord, 0, len(historical)+len(forecast))
	merged = append(merged, historical...)
	merged = append(merged, forecast...)
	return merged
}
