package weather

import "errors"

// Error taxonomy for the aggregation pipeline. Handlers map these to HTTP
// statuses; nothing below this package leaks raw transport errors.
var (
	// Range validation failures.
	ErrRangeInverted           = errors.New("'search_date_from' cannot be after 'search_date_to'")
	ErrRangeTooLong            = errors.New("search range cannot exceed 14 days")
	ErrForecastHorizonExceeded = errors.New("forecast cannot extend beyond the 14-day provider limit")
	ErrBeforeHistoryFloor      = errors.New("historical data is only available from 2010-01-01")

	// ErrLocationNotFound means the search endpoint produced no match.
	ErrLocationNotFound = errors.New("location not found")

	// ErrProvider covers upstream failures: transport errors, malformed
	// payloads and non-"not found" API error envelopes.
	ErrProvider = errors.New("weather provider error")

	// ErrNoDataFound means neither segment returned any days.
	ErrNoDataFound = errors.New("no weather data found for range")

	// ErrNoDataInRange means the provider returned days, but none inside
	// the requested window.
	ErrNoDataInRange = errors.New("no forecast data available for the specified dates")

	// ErrRecordNotFound is the persistence-level miss for a record id.
	ErrRecordNotFound = errors.New("search record not found")

	// ErrNoOpUpdate rejects an update request that changes nothing.
	ErrNoOpUpdate = errors.New("at least one field must be provided for update")
)

// IsValidationError reports whether err is one of the range validation
// failures, which surface as client input errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrRangeInverted) ||
		errors.Is(err, ErrRangeTooLong) ||
		errors.Is(err, ErrForecastHorizonExceeded) ||
		errors.Is(err, ErrBeforeHistoryFloor)
}
