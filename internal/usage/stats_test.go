package usage

import (
	"testing"
	"time"

	"github.com/jgoulah/powerguard/pkg/models"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name   string
		series []models.ChartPoint
		want   models.UsageStats
	}{
		{
			name:   "empty",
			series: nil,
			want:   models.UsageStats{},
		},
		{
			name:   "three points",
			series: []models.ChartPoint{{"a", 10}, {"b", 20}, {"c", 30}},
			want:   models.UsageStats{Average: 20, Minimum: 10, Current: 30},
		},
		{
			name:   "rounds average to one decimal",
			series: []models.ChartPoint{{"a", 1}, {"b", 1}, {"c", 2}},
			want:   models.UsageStats{Average: 1.3, Minimum: 1, Current: 2},
		},
		{
			name:   "current is last not max",
			series: []models.ChartPoint{{"a", 50}, {"b", 5}},
			want:   models.UsageStats{Average: 27.5, Minimum: 5, Current: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeStats(tt.series); got != tt.want {
				t.Errorf("ComputeStats = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNiceMax(t *testing.T) {
	tests := []struct {
		values  []float64
		average float64
		want    float64
	}{
		{nil, 0, 100},
		{[]float64{10, 99}, 50, 100},
		{[]float64{100}, 100, 100},
		{[]float64{120}, 80, 150},
		{[]float64{40}, 130, 150},
		{[]float64{730}, 0, 750},
		{[]float64{1234}, 0, 1500},
		{[]float64{5000}, 0, 5000},
		{[]float64{43800}, 0, 45000},
	}

	for _, tt := range tests {
		if got := NiceMax(tt.values, tt.average); got != tt.want {
			t.Errorf("NiceMax(%v, %v) = %v, want %v", tt.values, tt.average, got, tt.want)
		}
	}
}

func TestSeedBundleDailyAverageIsBase(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	for id := 1; id <= 5; id++ {
		b := SeedBundle(id, now)
		if got, want := Last7DaysAverage(b), BaseDailyUsage(id); got != want {
			t.Errorf("controller %d: Last7DaysAverage = %v, want %v", id, got, want)
		}
		if len(b.Hourly.Chart) != 24 || len(b.Daily.Chart) != 7 || len(b.Weekly.Chart) != 5 ||
			len(b.Monthly.Chart) != 12 || len(b.Yearly.Chart) != 5 {
			t.Errorf("controller %d: unexpected chart lengths", id)
		}
		if b.Daily.Chart[6].Label != "03/04" {
			t.Errorf("last daily label = %q", b.Daily.Chart[6].Label)
		}
		for _, p := range b.Daily.Chart {
			if p.Value <= 0 {
				t.Errorf("controller %d: non-positive daily value %v", id, p.Value)
			}
		}
	}
}

func TestSeedBundleDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	a, b := SeedBundle(2, now), SeedBundle(2, now)
	for i := range a.Monthly.Chart {
		if a.Monthly.Chart[i] != b.Monthly.Chart[i] {
			t.Fatalf("monthly point %d differs", i)
		}
	}
}

func TestView(t *testing.T) {
	b := models.PowerBundle{
		Weekly: models.UsageBucket{Chart: []models.ChartPoint{{"1주", 700}, {"2주", 760}}},
	}
	v, ok := View(b, models.TabWeekly)
	if !ok {
		t.Fatal("View returned !ok")
	}
	if v.Stats.Average != 730 || v.YMax != 800 {
		t.Errorf("View = %+v", v)
	}

	v, ok = View(b, models.TabHourly)
	if !ok || v.Chart == nil || v.YMax != 100 {
		t.Errorf("empty bucket view = %+v", v)
	}

	if _, ok := View(b, "minutely"); ok {
		t.Error("unknown tab accepted")
	}
}
