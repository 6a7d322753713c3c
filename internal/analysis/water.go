package analysis

import (
	"aquaculture-platform/internal/models"
)

const (
	optimalPHMin        = 6.5
	optimalPHMax        = 8.5
	minSecchiDiskCm     = 20
	maxBiomassPerM3     = 0.4  // kg/m³
	dailyFeedPercentage = 0.03 // of standing biomass
)

const (
	IssuePHOutOfRange = "pH out of optimal range"
	IssueLowClarity   = "Water transparency is too low"
)

// AssessWaterQuality classifies the water from pH and Secchi depth.
// Both checks run; either one marks the water Poor.
func AssessWaterQuality(p models.PondParameters) models.WaterQuality {
	quality := models.WaterQuality{
		Status: models.WaterQualityGood,
		Issues: make([]string, 0, 2),
	}

	if p.PH < optimalPHMin || p.PH > optimalPHMax {
		quality.Status = models.WaterQualityPoor
		quality.Issues = append(quality.Issues, IssuePHOutOfRange)
	}

	if p.SecchiDiskCm < minSecchiDiskCm {
		quality.Status = models.WaterQualityPoor
		quality.Issues = append(quality.Issues, IssueLowClarity)
	}

	return quality
}

// CalculateCarryingCapacity returns pond volume and the biomass it can sustain
func CalculateCarryingCapacity(p models.PondParameters) models.CarryingCapacity {
	volume := p.AreaM2 * p.DepthM

	return models.CarryingCapacity{
		MaxBiomassKg: round(volume*maxBiomassPerM3, 2),
		VolumeM3:     round(volume, 2),
	}
}

// PlanFeeding sizes the daily ration and splits it over the fixed timetable
func PlanFeeding(biomassKg float64) models.FeedingRecommendation {
	return models.FeedingRecommendation{
		DailyFeedKg:     round(biomassKg*dailyFeedPercentage, 2),
		FeedingSchedule: feedingSchedule(),
	}
}

// feedingSchedule returns a new copy of the timetable on every call
func feedingSchedule() []models.FeedingSlot {
	return []models.FeedingSlot{
		{TimeOfDay: "06:00", Percentage: 15},
		{TimeOfDay: "09:00", Percentage: 15},
		{TimeOfDay: "12:00", Percentage: 15},
		{TimeOfDay: "15:00", Percentage: 15},
		{TimeOfDay: "18:00", Percentage: 20},
		{TimeOfDay: "21:00", Percentage: 20},
	}
}
