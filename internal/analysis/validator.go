package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"aquaculture-platform/internal/models"
)

// measurementRange is an inclusive admissible range for one numeric field
type measurementRange struct {
	field    string
	min      float64
	max      float64
	decimals int
	value    func(p models.PondParameters) float64
}

func (r measurementRange) check(p models.PondParameters) (string, bool) {
	v := r.value(p)
	if v >= r.min && v <= r.max {
		return "", true
	}
	return fmt.Sprintf("%s must be between %s and %s",
		r.field,
		strconv.FormatFloat(r.min, 'f', r.decimals, 64),
		strconv.FormatFloat(r.max, 'f', r.decimals, 64),
	), false
}

var measurementRanges = []measurementRange{
	{field: "secchi_disk", min: 10, max: 60, value: func(p models.PondParameters) float64 { return p.SecchiDiskCm }},
	{field: "ph", min: 6.0, max: 9.0, decimals: 1, value: func(p models.PondParameters) float64 { return p.PH }},
	{field: "area", min: 100, max: 10000, value: func(p models.PondParameters) float64 { return p.AreaM2 }},
	{field: "depth", min: 0.8, max: 2.5, decimals: 1, value: func(p models.PondParameters) float64 { return p.DepthM }},
	{field: "stocking_density", min: 15, max: 150, value: func(p models.PondParameters) float64 { return float64(p.StockingDensity) }},
}

// Validate returns every admissibility violation in p, in a fixed order.
// An empty result means p may be analyzed.
func Validate(p models.PondParameters, now time.Time) []string {
	problems := make([]string, 0)

	if !p.WaterColor.Valid() {
		problems = append(problems, fmt.Sprintf("Invalid water_color. Must be one of: %s", joinValues(models.AllWaterColors())))
	}

	if !p.ShrimpBehavior.Valid() {
		problems = append(problems, fmt.Sprintf("Invalid shrimp_behavior. Must be one of: %s", joinValues(models.AllShrimpBehaviors())))
	}

	for _, r := range measurementRanges {
		if msg, ok := r.check(p); !ok {
			problems = append(problems, msg)
		}
	}

	if p.CultureStartDate.After(now) {
		problems = append(problems, "Culture start date cannot be in the future")
	}

	return problems
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
