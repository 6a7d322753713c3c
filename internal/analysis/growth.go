package analysis

import (
	"aquaculture-platform/internal/models"
)

const (
	baseGrowthRate   = 0.028 // g/day
	postlarvaWeight  = 0.002 // g, starting weight of stocked PL
	baseSurvivalRate = 0.85
)

// PredictGrowth projects daily and weekly growth and the current size.
// A nil weather reading leaves the temperature factor neutral.
func PredictGrowth(p models.PondParameters, weather *models.WeatherReading, days int) models.GrowthPrediction {
	rate := baseGrowthRate * densityFactor(p.StockingDensity) * depthFactor(p.DepthM) * temperatureFactor(weather)

	return models.GrowthPrediction{
		DailyGrowthGrams:   round(rate, 4),
		WeeklyGrowthGrams:  round(rate*7, 4),
		EstimatedSizeGrams: round(postlarvaWeight+rate*float64(days), 4),
	}
}

func densityFactor(density int) float64 {
	switch {
	case density < 50:
		return 1.1
	case density > 100:
		return 0.9
	default:
		return 1.0
	}
}

func depthFactor(depth float64) float64 {
	switch {
	case depth < 1.2:
		return 0.9
	case depth > 1.8:
		return 0.95
	default:
		return 1.0
	}
}

func temperatureFactor(weather *models.WeatherReading) float64 {
	if weather == nil {
		return 1.0
	}
	switch {
	case weather.TemperatureCelsius < 25:
		return 0.8
	case weather.TemperatureCelsius > 32:
		return 0.7
	default:
		return 1.0
	}
}

// EstimateSurvival returns the surviving fraction of the stock after
// crowding and culture-duration mortality, rounded to 2 decimals.
func EstimateSurvival(p models.PondParameters, days int) float64 {
	rate := baseSurvivalRate

	if p.StockingDensity > 100 {
		rate *= 0.95
	}

	if days > 60 {
		rate *= 0.98
	}

	return round(rate, 2)
}

// EstimateBiomass combines the surviving population with the projected size
func EstimateBiomass(p models.PondParameters, growth models.GrowthPrediction, survivalRate float64) models.BiomassEstimation {
	population := roundInt(p.AreaM2 * float64(p.StockingDensity) * survivalRate)

	return models.BiomassEstimation{
		EstimatedPopulation: population,
		SurvivalRate:        survivalRate,
		EstimatedBiomassKg:  round(float64(population)*growth.EstimatedSizeGrams, 2) / 1000,
	}
}
