package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aquaculture-platform/internal/models"
	"aquaculture-platform/pkg/database"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// AnalysisRepository persists analysis reports together with their inputs
type AnalysisRepository interface {
	// Store saves one analysis and returns its new identifier
	Store(ctx context.Context, report models.AnalysisReport, params models.PondParameters, weather *models.WeatherReading) (string, error)
	GetAnalysis(ctx context.Context, id string) (*models.StoredAnalysis, error)

	HealthCheck(ctx context.Context) error
}

// analysisRow mirrors the pond_analyses table
type analysisRow struct {
	ID              string    `db:"id"`
	Location        string    `db:"location"`
	PondParams      []byte    `db:"pond_params"`
	WeatherData     []byte    `db:"weather_data"`
	AnalysisResult  []byte    `db:"analysis_result"`
	ConfidenceScore int       `db:"confidence_score"`
	CreatedAt       time.Time `db:"created_at"`
}

type analysisRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewAnalysisRepository creates a repository over Postgres or SQLite
func NewAnalysisRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AnalysisRepository {
	return &analysisRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// Store serialises params, weather and report as JSON documents
func (r *analysisRepository) Store(ctx context.Context, report models.AnalysisReport, params models.PondParameters, weather *models.WeatherReading) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode pond parameters: %w", err)
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis report: %w", err)
	}

	var weatherJSON sql.NullString
	if weather != nil {
		data, err := json.Marshal(weather)
		if err != nil {
			return "", fmt.Errorf("failed to encode weather reading: %w", err)
		}
		weatherJSON = sql.NullString{String: string(data), Valid: true}
	}

	id := uuid.NewString()
	query := r.db.Rebind(`
		INSERT INTO pond_analyses (id, location, pond_params, weather_data, analysis_result, confidence_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err = r.db.ExecContext(ctx, "insert_analysis", query,
		id,
		params.Location,
		string(paramsJSON),
		weatherJSON,
		string(reportJSON),
		report.ConfidenceScore,
		r.now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store analysis: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_STORE_ANALYSIS] Analysis stored", logging.Fields{
		"analysis_id":      id,
		"location":         params.Location,
		"confidence_score": report.ConfidenceScore,
		"has_weather":      weather != nil,
	})

	return id, nil
}

// GetAnalysis retrieves a stored analysis by ID
func (r *analysisRepository) GetAnalysis(ctx context.Context, id string) (*models.StoredAnalysis, error) {
	// ids are always UUIDs; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, &NotFoundError{Resource: "pond_analysis", ID: id}
	}

	query := r.db.Rebind(`
		SELECT id, location, pond_params, weather_data, analysis_result, confidence_score, created_at
		FROM pond_analyses
		WHERE id = ?
	`)

	var row analysisRow
	err := r.db.GetContext(ctx, "get_analysis", &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "pond_analysis", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	return row.toModel()
}

func (row analysisRow) toModel() (*models.StoredAnalysis, error) {
	stored := &models.StoredAnalysis{
		ID:        row.ID,
		CreatedAt: row.CreatedAt.UTC(),
	}

	if err := json.Unmarshal(row.PondParams, &stored.Params); err != nil {
		return nil, fmt.Errorf("failed to decode pond parameters for %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.AnalysisResult, &stored.Report); err != nil {
		return nil, fmt.Errorf("failed to decode analysis report for %s: %w", row.ID, err)
	}
	if len(row.WeatherData) > 0 {
		stored.Weather = &models.WeatherReading{}
		if err := json.Unmarshal(row.WeatherData, stored.Weather); err != nil {
			return nil, fmt.Errorf("failed to decode weather reading for %s: %w", row.ID, err)
		}
	}

	return stored, nil
}

// HealthCheck performs a repository health check
func (r *analysisRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
