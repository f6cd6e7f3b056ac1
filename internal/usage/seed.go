package usage

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jgoulah/powerguard/pkg/models"
)

// BaseDailyUsage is the nominal daily kWh of a controller's seeded data
func BaseDailyUsage(controllerID int) float64 {
	return 100 + 20*float64(controllerID)
}

// SeedBundle generates the canned usage data for a controller. Output is
// deterministic for a given controller and day so reseeding is stable.
func SeedBundle(controllerID int, now time.Time) models.PowerBundle {
	rng := rand.New(rand.NewPCG(uint64(controllerID), uint64(now.Year()*1000+now.YearDay())))
	base := BaseDailyUsage(controllerID)

	hourly := make([]models.ChartPoint, 24)
	for h := range hourly {
		hourly[h] = models.ChartPoint{Label: fmt.Sprintf("%02d시", h), Value: jitter(rng, base/24)}
	}

	// Threshold validation averages the daily week, so it is built from
	// symmetric pairs around base and averages to exactly base.
	values := make([]float64, 7)
	values[6] = base
	for i := 0; i < 3; i++ {
		d := round1(base * rng.Float64() * 0.2)
		values[2*i] = base + d
		values[2*i+1] = base - d
	}
	rng.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })

	daily := make([]models.ChartPoint, 7)
	for i := range daily {
		day := now.AddDate(0, 0, i-6)
		daily[i] = models.ChartPoint{Label: day.Format("01/02"), Value: values[i]}
	}

	weekly := make([]models.ChartPoint, 5)
	for i := range weekly {
		weekly[i] = models.ChartPoint{Label: fmt.Sprintf("%d주", i+1), Value: jitter(rng, base*7)}
	}

	monthly := make([]models.ChartPoint, 12)
	for i := range monthly {
		monthly[i] = models.ChartPoint{Label: fmt.Sprintf("%d월", i+1), Value: jitter(rng, base*30)}
	}

	yearly := make([]models.ChartPoint, 5)
	for i := range yearly {
		yearly[i] = models.ChartPoint{Label: fmt.Sprintf("%d년", now.Year()-4+i), Value: jitter(rng, base*365)}
	}

	return models.PowerBundle{
		AutoBlockThreshold: 0,
		Hourly:             bucket(hourly),
		Daily:              bucket(daily),
		Weekly:             bucket(weekly),
		Monthly:            bucket(monthly),
		Yearly:             bucket(yearly),
	}
}

func bucket(chart []models.ChartPoint) models.UsageBucket {
	return models.UsageBucket{Stats: ComputeStats(chart), Chart: chart}
}

// jitter returns base scaled by a factor in [0.8, 1.2), rounded to one decimal
func jitter(rng *rand.Rand, base float64) float64 {
	return round1(base * (0.8 + rng.Float64()*0.4))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
