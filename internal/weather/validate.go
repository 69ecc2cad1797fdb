package weather

import "time"

const (
	// ForecastHorizonDays is the provider's maximum forecast window: today
	// plus 13 more days, requested as days=14 in a single call.
	ForecastHorizonDays = 14

	// MaxRangeDays is the largest allowed from..to span in whole days.
	MaxRangeDays = 13
)

// HistoryFloor is the earliest date the historical endpoint supports.
var HistoryFloor = NewDate(2010, time.January, 1)

// ValidateRange checks a requested date range against today and returns it as
// a DateRange. Rules are applied in a fixed order; the first failure wins.
//
// The horizon rule only fires for ranges starting today or later: a range
// that begins in the past may end beyond the forecast horizon, and the
// fetcher simply returns as many forecast days as the provider has.
func ValidateRange(from, to, today Date) (DateRange, error) {
	if from.After(to) {
		return DateRange{}, ErrRangeInverted
	}

	if from.DaysUntil(to) > MaxRangeDays {
		return DateRange{}, ErrRangeTooLong
	}

	maxForecast := today.AddDays(ForecastHorizonDays - 1)
	if to.After(maxForecast) && !from.Before(today) {
		return DateRange{}, ErrForecastHorizonExceeded
	}

	if from.Before(HistoryFloor) {
		return DateRange{}, ErrBeforeHistoryFloor
	}

	return DateRange{From: from, To: to}, nil
}
