package weather

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day (UTC midnight). It marshals as "YYYY-MM-DD" on the
// wire and stores as a DATE column.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t.UTC()}, nil
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so Date persists as a DATE column.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner; drivers hand back time.Time, string or []byte
// depending on the backend.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType tells gorm to create a DATE column for Date fields.
func (Date) GormDataType() string {
	return "date"
}

// DateRange is a validated, inclusive calendar range.
type DateRange struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Days returns the number of calendar days the range covers.
func (r DateRange) Days() int {
	return r.From.DaysUntil(r.To) + 1
}

// Contains reports whether the day falls inside the range, inclusive.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// LocationBlock mirrors the provider's location object.
type LocationBlock struct {
	Name    string  `json:"name"`
	Region  string  `json:"region,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	TzID    string  `json:"tz_id,omitempty"`
}

// Empty reports whether the provider returned no usable location metadata.
func (l LocationBlock) Empty() bool {
	return l.Name == "" && l.Lat == 0 && l.Lon == 0
}

// ConditionBlock is the provider's condition descriptor for a day.
type ConditionBlock struct {
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
	Code int    `json:"code,omitempty"`
}

// DayDetail holds the per-day aggregates the summary calculator consumes.
type DayDetail struct {
	AvgTempC    float64        `json:"avgtemp_c"`
	AvgHumidity float64        `json:"avghumidity"`
	MaxWindKph  float64        `json:"maxwind_kph"`
	Condition   ConditionBlock `json:"condition"`
}

// DayRecord is one calendar day as returned by the provider. The fields we
// compute over are parsed out; the original JSON is retained verbatim so the
// persisted payload stays provider-shaped for audit and export.
type DayRecord struct {
	Date string    `json:"date"`
	Day  DayDetail `json:"day"`

	raw json.RawMessage
}

func (d *DayRecord) UnmarshalJSON(b []byte) error {
	type plain struct {
		Date string    `json:"date"`
		Day  DayDetail `json:"day"`
	}
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	d.Date = p.Date
	d.Day = p.Day
	d.raw = append(d.raw[:0], b...)
	return nil
}

func (d DayRecord) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	type plain struct {
		Date string    `json:"date"`
		Day  DayDetail `json:"day"`
	}
	return json.Marshal(plain{Date: d.Date, Day: d.Day})
}

// ParsedDate parses the record's date field.
func (d DayRecord) ParsedDate() (Date, error) {
	return ParseDate(d.Date)
}

// Clone returns an independent copy, including the raw payload bytes.
func (d DayRecord) Clone() DayRecord {
	c := d
	if len(d.raw) > 0 {
		c.raw = append(json.RawMessage(nil), d.raw...)
	}
	return c
}

// ForecastBlock wraps the provider's forecastday list.
type ForecastBlock struct {
	ForecastDay []DayRecord `json:"forecastday"`
}

// ForecastPayload is the provider-shaped envelope returned by forecast and
// history calls, and the shape the stitched/filtered dataset keeps.
type ForecastPayload struct {
	Location LocationBlock `json:"location"`
	Forecast ForecastBlock `json:"forecast"`
}

// Summary holds the range-wide aggregate metrics.
type Summary struct {
	AvgTempC      float64 `json:"avg_temp_c"`
	AvgHumidity   float64 `json:"avg_humidity"`
	MaxWindKph    float64 `json:"max_wind_kph"`
	ConditionText string  `json:"condition_text"`
}

// Enrichment is best-effort auxiliary data; either field may be absent.
type Enrichment struct {
	MapsURL  *string  `json:"maps_url,omitempty"`
	VideoIDs []string `json:"video_ids,omitempty"`
}

// AggregatedWeatherResult is the fully assembled output of one pipeline run,
// handed to persistence in a single step.
type AggregatedWeatherResult struct {
	LocationName string
	Range        DateRange
	Days         []DayRecord
	Summary      Summary
	RawPayload   ForecastPayload
	Enrichment   Enrichment
}

// SearchRecord is the persisted entity for one weather search.
type SearchRecord struct {
	ID           uint   `json:"id"`
	LocationName string `json:"location_name"`
	DateFrom     Date   `json:"search_date_from"`
	DateTo       Date   `json:"search_date_to"`

	AvgTempC      float64 `json:"summary_avg_temp_c"`
	ConditionText string  `json:"summary_condition_text"`
	AvgHumidity   float64 `json:"summary_avg_humidity"`
	MaxWindKph    float64 `json:"summary_max_wind_kph"`

	MapsURL  *string  `json:"google_maps_url"`
	VideoIDs []string `json:"youtube_video_ids"`
	UserNote *string  `json:"user_note"`

	RawForecast json.RawMessage `json:"raw_forecast_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
