package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/i474232898/weather-search-service/internal/weather"
)

// searchRow is the gorm model backing weather.SearchRecord. Video ids are
// JSON-encoded into a text column so the same schema works on postgres and
// sqlite.
type searchRow struct {
	ID             uint         `gorm:"primaryKey"`
	LocationName   string       `gorm:"index;not null"`
	SearchDateFrom weather.Date `gorm:"not null"`
	SearchDateTo   weather.Date `gorm:"index;not null"`

	SummaryAvgTempC      float64
	SummaryConditionText string
	SummaryAvgHumidity   float64
	SummaryMaxWindKph    float64

	GoogleMapsURL   *string
	YoutubeVideoIDs *string `gorm:"type:text"`
	UserNote        *string

	RawForecastData []byte `gorm:"not null"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (searchRow) TableName() string {
	return "weather_searches"
}

// Open connects to the database selected by the DSN and migrates the schema.
// postgres:// and postgresql:// DSNs use the postgres driver; anything else
// is treated as a SQLite path (":memory:" works for tests).
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&searchRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

// GormStore implements weather.Store on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, rec *weather.SearchRecord) (*weather.SearchRecord, error) {
	row, err := toRow(rec)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("create search record: %w", err)
	}
	return fromRow(row)
}

func (s *GormStore) Update(ctx context.Context, rec *weather.SearchRecord) (*weather.SearchRecord, error) {
	row, err := toRow(rec)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&searchRow{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"location_name":          row.LocationName,
		"search_date_from":       row.SearchDateFrom,
		"search_date_to":         row.SearchDateTo,
		"summary_avg_temp_c":     row.SummaryAvgTempC,
		"summary_condition_text": row.SummaryConditionText,
		"summary_avg_humidity":   row.SummaryAvgHumidity,
		"summary_max_wind_kph":   row.SummaryMaxWindKph,
		"google_maps_url":        row.GoogleMapsURL,
		"youtube_video_ids":      row.YoutubeVideoIDs,
		"user_note":              row.UserNote,
		"raw_forecast_data":      row.RawForecastData,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("update search record %d: %w", row.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, weather.ErrRecordNotFound
	}

	return s.GetByID(ctx, row.ID)
}

func (s *GormStore) GetByID(ctx context.Context, id uint) (*weather.SearchRecord, error) {
	var row searchRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, weather.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get search record %d: %w", id, err)
	}
	return fromRow(&row)
}

func (s *GormStore) List(ctx context.Context, skip, limit int) ([]weather.SearchRecord, error) {
	var rows []searchRow
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list search records: %w", err)
	}
	return fromRows(rows)
}

func (s *GormStore) ListAll(ctx context.Context) ([]weather.SearchRecord, error) {
	var rows []searchRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list all search records: %w", err)
	}
	return fromRows(rows)
}

func (s *GormStore) ListActiveOn(ctx context.Context, day weather.Date) ([]weather.SearchRecord, error) {
	var rows []searchRow
	err := s.db.WithContext(ctx).
		Where("search_date_to >= ?", day.Time).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active search records: %w", err)
	}
	return fromRows(rows)
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&searchRow{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete search record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return weather.ErrRecordNotFound
	}
	return nil
}

func toRow(rec *weather.SearchRecord) (*searchRow, error) {
	row := &searchRow{
		ID:                   rec.ID,
		LocationName:         rec.LocationName,
		SearchDateFrom:       rec.DateFrom,
		SearchDateTo:         rec.DateTo,
		SummaryAvgTempC:      rec.AvgTempC,
		SummaryConditionText: rec.ConditionText,
		SummaryAvgHumidity:   rec.AvgHumidity,
		SummaryMaxWindKph:    rec.MaxWindKph,
		GoogleMapsURL:        rec.MapsURL,
		UserNote:             rec.UserNote,
		RawForecastData:      rec.RawForecast,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}

	if len(rec.VideoIDs) > 0 {
		encoded, err := json.Marshal(rec.VideoIDs)
		if err != nil {
			return nil, fmt.Errorf("encode video ids: %w", err)
		}
		s := string(encoded)
		row.YoutubeVideoIDs = &s
	}

	return row, nil
}

func fromRow(row *searchRow) (*weather.SearchRecord, error) {
	rec := &weather.SearchRecord{
		ID:            row.ID,
		LocationName:  row.LocationName,
		DateFrom:      row.SearchDateFrom,
		DateTo:        row.SearchDateTo,
		AvgTempC:      row.SummaryAvgTempC,
		ConditionText: row.SummaryConditionText,
		AvgHumidity:   row.SummaryAvgHumidity,
		MaxWindKph:    row.SummaryMaxWindKph,
		MapsURL:       row.GoogleMapsURL,
		UserNote:      row.UserNote,
		RawForecast:   row.RawForecastData,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	if row.YoutubeVideoIDs != nil && *row.YoutubeVideoIDs != "" {
		if err := json.Unmarshal([]byte(*row.YoutubeVideoIDs), &rec.VideoIDs); err != nil {
			return nil, fmt.Errorf("decode video ids for record %d: %w", row.ID, err)
		}
	}

	return rec, nil
}

func fromRows(rows []searchRow) ([]weather.SearchRecord, error) {
	records := make([]weather.SearchRecord, 0, len(rows))
	for i := range rows {
		rec, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}
