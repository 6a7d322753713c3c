package models

import (
	"strings"
	"time"
)

// WaterColor is the pond water color reported by the farmer
type WaterColor string

const (
	WaterColorClear WaterColor = "Clear"
	WaterColorGreen WaterColor = "Green"
	WaterColorBrown WaterColor = "Brown"
	WaterColorOther WaterColor = "Other"
)

// AllWaterColors returns the accepted water colors in display order
func AllWaterColors() []WaterColor {
	return []WaterColor{WaterColorClear, WaterColorGreen, WaterColorBrown, WaterColorOther}
}

// Valid reports whether c is one of the accepted water colors
func (c WaterColor) Valid() bool {
	for _, v := range AllWaterColors() {
		if c == v {
			return true
		}
	}
	return false
}

// ShrimpBehavior is the observed behavior of the stock
type ShrimpBehavior string

const (
	ShrimpBehaviorActive          ShrimpBehavior = "Active"
	ShrimpBehaviorLethargic       ShrimpBehavior = "Lethargic"
	ShrimpBehaviorComingToSurface ShrimpBehavior = "Coming to Surface"
)

// AllShrimpBehaviors returns the accepted behaviors in display order
func AllShrimpBehaviors() []ShrimpBehavior {
	return []ShrimpBehavior{ShrimpBehaviorActive, ShrimpBehaviorLethargic, ShrimpBehaviorComingToSurface}
}

// Valid reports whether b is one of the accepted behaviors
func (b ShrimpBehavior) Valid() bool {
	for _, v := range AllShrimpBehaviors() {
		if b == v {
			return true
		}
	}
	return false
}

// PondParameters holds one submission of pond measurements.
// Values are read-only once constructed.
type PondParameters struct {
	AreaM2           float64        `json:"area"`
	DepthM           float64        `json:"depth"`
	StockingDensity  int            `json:"stocking_density"`
	CultureStartDate time.Time      `json:"culture_start_date"`
	WaterColor       WaterColor     `json:"water_color"`
	ShrimpBehavior   ShrimpBehavior `json:"shrimp_behavior"`
	SecchiDiskCm     float64        `json:"secchi_disk"`
	PH               float64        `json:"ph"`
	Location         string         `json:"location"`
}

// WeatherReading is a current-conditions snapshot for a pond location.
// A nil *WeatherReading means the reading is absent.
type WeatherReading struct {
	TemperatureCelsius float64   `json:"temperature"`
	Condition          string    `json:"condition"`
	WindSpeedKph       float64   `json:"wind_speed"`
	PrecipitationMm    float64   `json:"precipitation"`
	CapturedAt         time.Time `json:"timestamp"`
}

// ParseCultureStartDate accepts the ISO-8601 forms clients send:
// a plain date, a local date-time, or RFC3339. Forms without an offset
// are read in the process's local time zone.
func ParseCultureStartDate(s string) (time.Time, error) {
	return ParseCultureStartDateIn(s, time.Local)
}

// ParseCultureStartDateIn is ParseCultureStartDate with the zone for
// offset-less forms given explicitly
func ParseCultureStartDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999",
		time.RFC3339,
		time.RFC3339Nano,
	}

	var lastErr error
	for _, layout := range layouts {
		// RFC3339 layouts carry their own offset; loc only applies to the rest
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, &ValidationError{
		Field:    "culture_start_date",
		Value:    s,
		Message:  "invalid culture_start_date format, expected ISO-8601 date (YYYY-MM-DD)",
		Problems: []string{"invalid culture_start_date format, expected ISO-8601 date (YYYY-MM-DD)"},
		cause:    lastErr,
	}
}
