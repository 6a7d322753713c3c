package models

import (
	"time"
)

// WaterQualityStatus is the overall water verdict
type WaterQualityStatus string

const (
	WaterQualityGood WaterQualityStatus = "Good"
	WaterQualityPoor WaterQualityStatus = "Poor"
)

// Priority ranks a recommendation
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// GrowthPrediction projects shrimp growth in grams
type GrowthPrediction struct {
	DailyGrowthGrams   float64 `json:"daily_growth"`
	WeeklyGrowthGrams  float64 `json:"weekly_growth"`
	EstimatedSizeGrams float64 `json:"estimated_size"`
}

// BiomassEstimation is the standing stock estimate
type BiomassEstimation struct {
	EstimatedPopulation int64   `json:"estimated_population"`
	SurvivalRate        float64 `json:"survival_rate"`
	EstimatedBiomassKg  float64 `json:"estimated_biomass"`
}

// WaterQuality is the water verdict and the issues that produced it
type WaterQuality struct {
	Status WaterQualityStatus `json:"status"`
	Issues []string           `json:"issues"`
}

// CarryingCapacity describes how much biomass the pond can sustain
type CarryingCapacity struct {
	MaxBiomassKg float64 `json:"max_biomass"`
	VolumeM3     float64 `json:"volume"`
}

// FeedingSlot is one entry of the daily feeding timetable
type FeedingSlot struct {
	TimeOfDay  string `json:"time"`
	Percentage int    `json:"percentage"`
}

// FeedingRecommendation is the daily feed mass and its timetable
type FeedingRecommendation struct {
	DailyFeedKg     float64       `json:"daily_feed_kg"`
	FeedingSchedule []FeedingSlot `json:"feeding_schedule"`
}

// Recommendation is one prioritized action item
type Recommendation struct {
	Issue    string   `json:"issue"`
	Action   string   `json:"action"`
	Priority Priority `json:"priority"`
}

// AnalysisReport is the full health assessment for one submission
type AnalysisReport struct {
	DaysOfCulture         int                   `json:"days_of_culture"`
	GrowthPrediction      GrowthPrediction      `json:"growth_prediction"`
	BiomassEstimation     BiomassEstimation     `json:"biomass_estimation"`
	WaterQuality          WaterQuality          `json:"water_quality"`
	CarryingCapacity      CarryingCapacity      `json:"carrying_capacity"`
	FeedingRecommendation FeedingRecommendation `json:"feeding_recommendation"`
	Recommendations       []Recommendation      `json:"recommendations"`
	ConfidenceScore       int                   `json:"confidence_score"`
}

// StoredAnalysis is a persisted analysis as read back from the repository
type StoredAnalysis struct {
	ID        string          `json:"_id"`
	Params    PondParameters  `json:"pond_params"`
	Weather   *WeatherReading `json:"weather_data"`
	Report    AnalysisReport  `json:"analysis_result"`
	CreatedAt time.Time       `json:"timestamp"`
}
