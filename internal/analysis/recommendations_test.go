package analysis

import (
	"reflect"
	"testing"

	"aquaculture-platform/internal/models"
)

func TestRecommend(t *testing.T) {
	goodWater := models.WaterQuality{Status: models.WaterQualityGood, Issues: []string{}}
	badWater := models.WaterQuality{Status: models.WaterQualityPoor, Issues: []string{IssuePHOutOfRange, IssueLowClarity}}
	capacity := models.CarryingCapacity{MaxBiomassKg: 600, VolumeM3: 1500}

	capacityRec := models.Recommendation{Issue: IssueCarryingCapacity, Action: ActionCarryingCapacity, Priority: models.PriorityHigh}
	phRec := models.Recommendation{Issue: IssuePHOutOfRange, Action: ActionWaterQuality, Priority: models.PriorityHigh}
	clarityRec := models.Recommendation{Issue: IssueLowClarity, Action: ActionWaterQuality, Priority: models.PriorityHigh}
	heatRec := models.Recommendation{Issue: IssueHighTemperature, Action: ActionHighTemperature, Priority: models.PriorityMedium}

	tests := []struct {
		name    string
		weather *models.WeatherReading
		quality models.WaterQuality
		biomass float64
		want    []models.Recommendation
	}{
		{"clean pond", weatherAt(28), goodWater, 85.8, []models.Recommendation{}},
		{"clean pond without weather", nil, goodWater, 85.8, []models.Recommendation{}},
		{"at 80 percent is not approaching", weatherAt(28), goodWater, 480, []models.Recommendation{}},
		{"over 80 percent", weatherAt(28), goodWater, 500, []models.Recommendation{capacityRec}},
		{"water issues in order", weatherAt(28), badWater, 10, []models.Recommendation{phRec, clarityRec}},
		{"32C is not hot", weatherAt(32), goodWater, 10, []models.Recommendation{}},
		{"hot day", weatherAt(33), goodWater, 10, []models.Recommendation{heatRec}},
		{"everything fires in priority order", weatherAt(36), badWater, 590, []models.Recommendation{capacityRec, phRec, clarityRec, heatRec}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			biomass := models.BiomassEstimation{EstimatedBiomassKg: tt.biomass}

			got := Recommend(tt.weather, tt.quality, biomass, capacity)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Recommend() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoreConfidence(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *models.PondParameters)
		weather *models.WeatherReading
		days    int
		want    int
	}{
		{"no penalties", func(p *models.PondParameters) {}, weatherAt(28), 45, 100},
		{"missing weather", func(p *models.PondParameters) {}, nil, 45, 80},
		{"crowded pond without weather", func(p *models.PondParameters) { p.StockingDensity = 130; p.PH = 7 }, nil, 50, 70},
		{"ph 6.5 is not penalized", func(p *models.PondParameters) { p.PH = 6.5 }, weatherAt(28), 45, 100},
		{"ph 8.8 is not penalized", func(p *models.PondParameters) { p.PH = 8.8 }, weatherAt(28), 45, 100},
		{"acidic", func(p *models.PondParameters) { p.PH = 6.4 }, weatherAt(28), 45, 90},
		{"alkaline", func(p *models.PondParameters) { p.PH = 8.9 }, weatherAt(28), 45, 90},
		{"secchi 15 is not penalized", func(p *models.PondParameters) { p.SecchiDiskCm = 15 }, weatherAt(28), 45, 100},
		{"secchi 55 is not penalized", func(p *models.PondParameters) { p.SecchiDiskCm = 55 }, weatherAt(28), 45, 100},
		{"murky", func(p *models.PondParameters) { p.SecchiDiskCm = 14 }, weatherAt(28), 45, 90},
		{"very clear", func(p *models.PondParameters) { p.SecchiDiskCm = 56 }, weatherAt(28), 45, 90},
		{"density 120 is not penalized", func(p *models.PondParameters) { p.StockingDensity = 120 }, weatherAt(28), 45, 100},
		{"day 100 is not penalized", func(p *models.PondParameters) {}, weatherAt(28), 100, 100},
		{"long culture", func(p *models.PondParameters) {}, weatherAt(28), 101, 95},
		{
			name: "every penalty",
			mutate: func(p *models.PondParameters) {
				p.PH = 6.0
				p.SecchiDiskCm = 12
				p.StockingDensity = 140
			},
			weather: nil,
			days:    150,
			want:    45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPond()
			tt.mutate(&p)

			got := ScoreConfidence(p, tt.weather, tt.days)
			if got != tt.want {
				t.Errorf("ScoreConfidence() = %d, want %d", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("ScoreConfidence() = %d, outside [0, 100]", got)
			}
			if again := ScoreConfidence(p, tt.weather, tt.days); again != got {
				t.Errorf("ScoreConfidence() not deterministic: %d then %d", got, again)
			}
		})
	}
}

func TestScoreConfidence_MorePenaltiesNeverRaiseScore(t *testing.T) {
	p := validPond()
	prev := ScoreConfidence(p, weatherAt(28), 10)

	steps := []func(){
		func() { p.PH = 9.0 },
		func() { p.SecchiDiskCm = 10 },
		func() { p.StockingDensity = 150 },
	}

	for i, step := range steps {
		step()
		score := ScoreConfidence(p, nil, 200)
		if score > prev {
			t.Errorf("step %d: score rose from %d to %d", i, prev, score)
		}
		prev = score
	}
}
