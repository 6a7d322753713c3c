package analysis

import (
	"aquaculture-platform/internal/models"
)

const (
	capacityWarningRatio = 0.8
	highTemperatureC     = 32
)

const (
	IssueCarryingCapacity = "Approaching Carrying Capacity"
	IssueHighTemperature  = "High Temperature"

	ActionCarryingCapacity = "Short term: consider partial harvest, increase aeration. Long term: plan water exchange or pond expansion"
	ActionWaterQuality     = "Implement water quality management measures"
	ActionHighTemperature  = "Increase aeration and monitor oxygen levels"
)

// Recommend builds the action list in fixed priority order:
// carrying capacity, then each water issue, then heat stress.
func Recommend(
	weather *models.WeatherReading,
	quality models.WaterQuality,
	biomass models.BiomassEstimation,
	capacity models.CarryingCapacity,
) []models.Recommendation {
	recs := make([]models.Recommendation, 0)

	if biomass.EstimatedBiomassKg > capacity.MaxBiomassKg*capacityWarningRatio {
		recs = append(recs, models.Recommendation{
			Issue:    IssueCarryingCapacity,
			Action:   ActionCarryingCapacity,
			Priority: models.PriorityHigh,
		})
	}

	for _, issue := range quality.Issues {
		recs = append(recs, models.Recommendation{
			Issue:    issue,
			Action:   ActionWaterQuality,
			Priority: models.PriorityHigh,
		})
	}

	if weather != nil && weather.TemperatureCelsius > highTemperatureC {
		recs = append(recs, models.Recommendation{
			Issue:    IssueHighTemperature,
			Action:   ActionHighTemperature,
			Priority: models.PriorityMedium,
		})
	}

	return recs
}

// ScoreConfidence starts from 100 and subtracts a penalty for each
// source of uncertainty. The result never drops below 0.
func ScoreConfidence(p models.PondParameters, weather *models.WeatherReading, days int) int {
	score := 100

	if weather == nil {
		score -= 20
	}

	if p.PH < 6.5 || p.PH > 8.8 {
		score -= 10
	}

	if p.SecchiDiskCm < 15 || p.SecchiDiskCm > 55 {
		score -= 10
	}

	if p.StockingDensity > 120 {
		score -= 10
	}

	if days > 100 {
		score -= 5
	}

	return max(score, 0)
}
