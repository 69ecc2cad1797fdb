package weather

import "sort"

// FilterToRange narrows a stitched payload to days inside the requested range,
// inclusive. Days with unparsable dates are dropped: the upstream format is
// not contractually guaranteed, and a bad date only costs that day.
//
// The input is never mutated; the result is an independent copy (including the
// verbatim per-day JSON) because it is persisted as the audit payload.
func FilterToRange(payload *ForecastPayload, r DateRange) (*ForecastPayload, error) {
	var kept []DayRecord
	for _, day := range payload.Forecast.ForecastDay {
		d, err := day.ParsedDate()
		if err != nil {
			continue
		}
		if r.Contains(d) {
			kept = append(kept, day.Clone())
		}
	}

	if len(kept) == 0 {
		return nil, ErrNoDataInRange
	}

	return &ForecastPayload{
		Location: payload.Location,
		Forecast: ForecastBlock{ForecastDay: kept},
	}, nil
}

// Summarize reduces filtered days to the range-wide summary: mean temperature
// and humidity, maximum wind, and the earliest day's condition text. The input
// is sorted by date first, so a shuffled list still yields the earliest day's
// condition.
//
// An empty input should be unreachable after FilterToRange, but is re-checked
// rather than dividing by zero.
func Summarize(days []DayRecord) (Summary, error) {
	if len(days) == 0 {
		return Summary{}, ErrNoDataInRange
	}

	ordered := make([]DayRecord, len(days))
	copy(ordered, days)
	// ISO dates sort correctly as strings.
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	var (
		sumTemp     float64
		sumHumidity float64
		maxWind     float64
	)
	for i, day := range ordered {
		sumTemp += day.Day.AvgTempC
		sumHumidity += day.Day.AvgHumidity
		if i == 0 || day.Day.MaxWindKph > maxWind {
			maxWind = day.Day.MaxWindKph
		}
	}

	n := float64(len(ordered))

	return Summary{
		AvgTempC:      sumTemp / n,
		AvgHumidity:   sumHumidity / n,
		MaxWindKph:    maxWind,
		ConditionText: ordered[0].Day.Condition.Text,
	}, nil
}
