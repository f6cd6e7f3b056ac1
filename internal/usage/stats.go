// Package usage derives chart statistics and axis bounds from usage series.
package usage

import (
	"math"

	"github.com/jgoulah/powerguard/pkg/models"
)

// ComputeStats summarizes a series: the mean rounded to one decimal, the
// minimum, and the last value. An empty series yields all zeros.
func ComputeStats(series []models.ChartPoint) models.UsageStats {
	if len(series) == 0 {
		return models.UsageStats{}
	}

	sum := 0.0
	minimum := series[0].Value
	for _, p := range series {
		sum += p.Value
		if p.Value < minimum {
			minimum = p.Value
		}
	}

	return models.UsageStats{
		Average: math.Round(sum/float64(len(series))*10) / 10,
		Minimum: minimum,
		Current: series[len(series)-1].Value,
	}
}

// NiceMax returns a y-axis bound covering every value and the average line.
// Bounds are at least 100; above that they round up to the next multiple of
// half the order of magnitude (120 -> 150, 730 -> 750, 1234 -> 1500).
func NiceMax(values []float64, average float64) float64 {
	m := average
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	if m <= 100 {
		return 100
	}

	step := math.Pow(10, math.Floor(math.Log10(m))) / 2
	return math.Ceil(m/step) * step
}

// Last7DaysAverage is the average of the most recent seven daily points.
// Threshold validation compares against this value.
func Last7DaysAverage(bundle models.PowerBundle) float64 {
	chart := bundle.Daily.Chart
	if len(chart) > 7 {
		chart = chart[len(chart)-7:]
	}
	return ComputeStats(chart).Average
}

// ChartView is a bucket prepared for a chart renderer
type ChartView struct {
	Tab   models.TabType      `json:"tab"`
	Stats models.UsageStats   `json:"stats"`
	Chart []models.ChartPoint `json:"chart"`
	YMax  float64             `json:"yMax"`
}

// View builds the chart view of one reporting period. Stats are recomputed
// from the chart rather than trusted from storage.
func View(bundle models.PowerBundle, tab models.TabType) (ChartView, bool) {
	bucket := bundle.Bucket(tab)
	if bucket == nil {
		return ChartView{}, false
	}

	stats := ComputeStats(bucket.Chart)
	values := make([]float64, len(bucket.Chart))
	for i, p := range bucket.Chart {
		values[i] = p.Value
	}

	chart := bucket.Chart
	if chart == nil {
		chart = []models.ChartPoint{}
	}
	return ChartView{
		Tab:   tab,
		Stats: stats,
		Chart: chart,
		YMax:  NiceMax(values, stats.Average),
	}, true
}
