package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aquaculture-platform/internal/analysis"
	"aquaculture-platform/internal/models"
	"aquaculture-platform/internal/repository"
	"aquaculture-platform/internal/weather"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

// ReportPublisher fans stored reports out to downstream consumers.
// Implementations must not block the caller.
type ReportPublisher interface {
	PublishReport(ctx context.Context, id string, params models.PondParameters, report models.AnalysisReport)
}

// AnalysisResult is a stored analysis as returned to API callers
type AnalysisResult struct {
	ID      string
	Report  models.AnalysisReport
	Weather *models.WeatherReading
}

// StoreError reports a persistence failure after the analysis was computed
type StoreError struct {
	Report models.AnalysisReport
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to store analysis: %v", e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsTransient returns true as storage outages are usually temporary
func (e *StoreError) IsTransient() bool {
	return true
}

// AnalysisService runs pond analyses end to end
type AnalysisService struct {
	repo            repository.AnalysisRepository
	weather         weather.Provider
	publisher       ReportPublisher
	defaultLocation string
	now             func() time.Time
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(repo repository.AnalysisRepository, provider weather.Provider, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		repo:            repo,
		weather:         provider,
		defaultLocation: "Ranipet",
		now:             time.Now,
		logger:          logger,
		metrics:         metricsCollector,
	}
}

// WithPublisher enables report publishing
func (s *AnalysisService) WithPublisher(p ReportPublisher) *AnalysisService {
	s.publisher = p
	return s
}

// WithDefaultLocation sets the location used when a submission has none
func (s *AnalysisService) WithDefaultLocation(location string) *AnalysisService {
	s.defaultLocation = location
	return s
}

// WithClock overrides the evaluation clock
func (s *AnalysisService) WithClock(now func() time.Time) *AnalysisService {
	s.now = now
	return s
}

// Evaluate validates params and computes a report without storing it.
// Validation failures are returned as *models.ValidationError.
func (s *AnalysisService) Evaluate(ctx context.Context, params models.PondParameters) (models.AnalysisReport, *models.WeatherReading, error) {
	// one clock reading for validation and every derived quantity
	now := s.now()

	if strings.TrimSpace(params.Location) == "" {
		params.Location = s.defaultLocation
	}

	stage := time.Now()
	problems := analysis.Validate(params, now)
	s.metrics.RecordProcessingTime("validate", time.Since(stage))
	if len(problems) > 0 {
		s.metrics.RecordAnalysis("invalid")
		for _, problem := range problems {
			s.metrics.RecordValidationError(problemField(problem))
		}
		s.logger.Info(ctx, "[ANALYSIS_REJECTED] Pond parameters failed validation", logging.Fields{
			"location":      params.Location,
			"problem_count": len(problems),
			"problems":      problems,
		})
		return models.AnalysisReport{}, nil, models.NewValidationError(problems)
	}

	stage = time.Now()
	reading := s.weather.Fetch(ctx, params.Location)
	s.metrics.RecordProcessingTime("weather", time.Since(stage))
	if reading == nil {
		s.logger.Warn(ctx, "[ANALYSIS_NO_WEATHER] Analysing without weather data", logging.Fields{
			"location": params.Location,
		})
	}

	stage = time.Now()
	report := analysis.Analyze(params, reading, now)
	s.metrics.RecordProcessingTime("analyze", time.Since(stage))

	s.metrics.ConfidenceScore.Observe(float64(report.ConfidenceScore))
	for _, rec := range report.Recommendations {
		s.metrics.RecordRecommendation(string(rec.Priority))
	}

	return report, reading, nil
}

// AnalyzePond validates, analyses, stores and publishes one submission
func (s *AnalysisService) AnalyzePond(ctx context.Context, params models.PondParameters) (*AnalysisResult, error) {
	timer := s.metrics.NewTimer(s.metrics.AnalysisDuration)
	defer timer.ObserveDuration()

	if strings.TrimSpace(params.Location) == "" {
		params.Location = s.defaultLocation
	}

	report, reading, err := s.Evaluate(ctx, params)
	if err != nil {
		return nil, err
	}

	stage := time.Now()
	id, err := s.repo.Store(ctx, report, params, reading)
	s.metrics.RecordProcessingTime("store", time.Since(stage))
	if err != nil {
		s.metrics.RecordAnalysis("error")
		s.logger.Error(ctx, "[ANALYSIS_STORE_ERROR] Failed to persist analysis", logging.Fields{
			"location": params.Location,
		}, err)
		return nil, &StoreError{Report: report, Err: err}
	}

	ctx = logging.WithAnalysisID(ctx, id)

	if s.publisher != nil {
		s.publisher.PublishReport(ctx, id, params, report)
	}

	s.metrics.RecordAnalysis("ok")
	s.logger.Info(ctx, "[ANALYSIS_COMPLETE] Pond analysis stored", logging.Fields{
		"location":             params.Location,
		"days_of_culture":      report.DaysOfCulture,
		"water_quality":        report.WaterQuality.Status,
		"estimated_biomass_kg": report.BiomassEstimation.EstimatedBiomassKg,
		"recommendations":      len(report.Recommendations),
		"confidence_score":     report.ConfidenceScore,
		"has_weather":          reading != nil,
	})

	return &AnalysisResult{ID: id, Report: report, Weather: reading}, nil
}

// GetAnalysis returns a previously stored analysis
func (s *AnalysisService) GetAnalysis(ctx context.Context, id string) (*models.StoredAnalysis, error) {
	return s.repo.GetAnalysis(ctx, id)
}

// HealthCheck reports whether the analysis store is reachable
func (s *AnalysisService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// problemField recovers the field name from a validation message for metric labels
func problemField(problem string) string {
	switch {
	case strings.HasPrefix(problem, "Invalid "):
		field, _, _ := strings.Cut(strings.TrimPrefix(problem, "Invalid "), ".")
		return field
	case strings.HasPrefix(problem, "Culture start date"):
		return "culture_start_date"
	default:
		field, _, _ := strings.Cut(problem, " ")
		return field
	}
}
