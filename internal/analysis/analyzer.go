// Package analysis turns validated pond parameters and an optional weather
// reading into an AnalysisReport. Everything here is a pure function of its
// arguments; callers capture the evaluation time once and pass it in.
package analysis

import (
	"time"

	"aquaculture-platform/internal/models"
)

// DaysOfCulture returns the whole days elapsed between start and now.
// A start after now yields 0.
func DaysOfCulture(start, now time.Time) int {
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// Analyze runs the full pipeline. p must already have passed Validate.
func Analyze(p models.PondParameters, weather *models.WeatherReading, now time.Time) models.AnalysisReport {
	days := DaysOfCulture(p.CultureStartDate, now)

	growth := PredictGrowth(p, weather, days)
	survival := EstimateSurvival(p, days)
	biomass := EstimateBiomass(p, growth, survival)
	quality := AssessWaterQuality(p)
	capacity := CalculateCarryingCapacity(p)
	feeding := PlanFeeding(biomass.EstimatedBiomassKg)

	return models.AnalysisReport{
		DaysOfCulture:         days,
		GrowthPrediction:      growth,
		BiomassEstimation:     biomass,
		WaterQuality:          quality,
		CarryingCapacity:      capacity,
		FeedingRecommendation: feeding,
		Recommendations:       Recommend(weather, quality, biomass, capacity),
		ConfidenceScore:       ScoreConfidence(p, weather, days),
	}
}
