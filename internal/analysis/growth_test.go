package analysis

import (
	"math"
	"testing"

	"aquaculture-platform/internal/models"
)

const tolerance = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func weatherAt(tempC float64) *models.WeatherReading {
	return &models.WeatherReading{TemperatureCelsius: tempC, Condition: "Partly cloudy", CapturedAt: evalTime}
}

func TestPredictGrowth_Factors(t *testing.T) {
	tests := []struct {
		name      string
		density   int
		depth     float64
		weather   *models.WeatherReading
		wantDaily float64
	}{
		{"all neutral", 80, 1.5, weatherAt(28), 0.028},
		{"no weather is neutral", 80, 1.5, nil, 0.028},
		{"low density bonus", 40, 1.5, weatherAt(28), 0.0308},
		{"density 50 is neutral", 50, 1.5, weatherAt(28), 0.028},
		{"density 100 is neutral", 100, 1.5, weatherAt(28), 0.028},
		{"high density penalty", 120, 1.5, weatherAt(28), 0.0252},
		{"shallow pond", 80, 1.0, weatherAt(28), 0.0252},
		{"depth 1.2 is neutral", 80, 1.2, weatherAt(28), 0.028},
		{"depth 1.8 is neutral", 80, 1.8, weatherAt(28), 0.028},
		{"deep pond", 80, 2.0, weatherAt(28), 0.0266},
		{"cold water", 80, 1.5, weatherAt(20), 0.0224},
		{"25C is neutral", 80, 1.5, weatherAt(25), 0.028},
		{"32C is neutral", 80, 1.5, weatherAt(32), 0.028},
		{"hot water", 80, 1.5, weatherAt(35), 0.0196},
		{"factors multiply", 40, 1.0, weatherAt(35), 0.0194},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPond()
			p.StockingDensity = tt.density
			p.DepthM = tt.depth

			got := PredictGrowth(p, tt.weather, 10)
			if !approxEqual(got.DailyGrowthGrams, tt.wantDaily) {
				t.Errorf("DailyGrowthGrams = %v, want %v", got.DailyGrowthGrams, tt.wantDaily)
			}
		})
	}
}

func TestPredictGrowth_NeutralPond(t *testing.T) {
	got := PredictGrowth(validPond(), weatherAt(28), 45)

	if !approxEqual(got.DailyGrowthGrams, 0.028) {
		t.Errorf("DailyGrowthGrams = %v, want 0.028", got.DailyGrowthGrams)
	}
	if !approxEqual(got.WeeklyGrowthGrams, 0.196) {
		t.Errorf("WeeklyGrowthGrams = %v, want 0.196", got.WeeklyGrowthGrams)
	}
	if !approxEqual(got.EstimatedSizeGrams, 1.262) {
		t.Errorf("EstimatedSizeGrams = %v, want 1.262", got.EstimatedSizeGrams)
	}
}

func TestPredictGrowth_DayZeroIsPostlarvaWeight(t *testing.T) {
	got := PredictGrowth(validPond(), nil, 0)
	if !approxEqual(got.EstimatedSizeGrams, 0.002) {
		t.Errorf("EstimatedSizeGrams = %v, want 0.002", got.EstimatedSizeGrams)
	}
}

func TestPredictGrowth_SizeIncreasesWithDays(t *testing.T) {
	slowest := validPond()
	slowest.StockingDensity = 150
	slowest.DepthM = 1.0

	for _, p := range []models.PondParameters{validPond(), slowest} {
		prev := PredictGrowth(p, weatherAt(35), 0).EstimatedSizeGrams
		for days := 1; days <= 365; days++ {
			size := PredictGrowth(p, weatherAt(35), days).EstimatedSizeGrams
			if size <= prev {
				t.Fatalf("size at day %d = %v, not greater than day %d = %v", days, size, days-1, prev)
			}
			prev = size
		}
	}
}

func TestEstimateSurvival(t *testing.T) {
	tests := []struct {
		name    string
		density int
		days    int
		want    float64
	}{
		{"no penalties", 80, 45, 0.85},
		{"density 100 is not crowded", 100, 45, 0.85},
		{"day 60 is not long", 80, 60, 0.85},
		{"crowded", 120, 45, 0.81},
		{"long culture", 80, 61, 0.83},
		{"crowded and long", 120, 90, 0.79},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPond()
			p.StockingDensity = tt.density

			got := EstimateSurvival(p, tt.days)
			if !approxEqual(got, tt.want) {
				t.Errorf("EstimateSurvival() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimateBiomass(t *testing.T) {
	p := validPond()
	growth := models.GrowthPrediction{EstimatedSizeGrams: 1.262}

	got := EstimateBiomass(p, growth, 0.85)

	if got.EstimatedPopulation != 68000 {
		t.Errorf("EstimatedPopulation = %d, want 68000", got.EstimatedPopulation)
	}
	if got.SurvivalRate != 0.85 {
		t.Errorf("SurvivalRate = %v, want 0.85", got.SurvivalRate)
	}
	if !approxEqual(got.EstimatedBiomassKg, 85.816) {
		t.Errorf("EstimatedBiomassKg = %v, want 85.816", got.EstimatedBiomassKg)
	}
}

func TestEstimateBiomass_UsesRoundedPopulation(t *testing.T) {
	// 333 * 17 * 0.81 = 4585.41, rounded to 4585 before sizing
	p := validPond()
	p.AreaM2 = 333
	p.StockingDensity = 17

	got := EstimateBiomass(p, models.GrowthPrediction{EstimatedSizeGrams: 2}, 0.81)

	if got.EstimatedPopulation != 4585 {
		t.Errorf("EstimatedPopulation = %d, want 4585", got.EstimatedPopulation)
	}
	if !approxEqual(got.EstimatedBiomassKg, 9.17) {
		t.Errorf("EstimatedBiomassKg = %v, want 9.17", got.EstimatedBiomassKg)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		x      float64
		places int32
		want   float64
	}{
		{0.0308, 4, 0.0308},
		{0.019404, 4, 0.0194},
		{0.125, 2, 0.12},
		{0.135, 2, 0.14},
		{2.57448, 2, 2.57},
		{85816.00000000001, 2, 85816},
		// stored as 2.294999999999999929 so the tie is not real
		{76.5 * 0.03, 2, 2.29},
	}

	for _, tt := range tests {
		if got := round(tt.x, tt.places); !approxEqual(got, tt.want) {
			t.Errorf("round(%v, %d) = %v, want %v", tt.x, tt.places, got, tt.want)
		}
	}

	if got := roundInt(2.5); got != 2 {
		t.Errorf("roundInt(2.5) = %d, want 2", got)
	}
	if got := roundInt(3.5); got != 4 {
		t.Errorf("roundInt(3.5) = %d, want 4", got)
	}
}
