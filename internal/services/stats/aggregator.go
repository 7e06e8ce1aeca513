// Package stats buckets scan history into per-day aggregates for the
// trailing week.
package stats

import (
	"time"

	"github.com/ternarybob/safebite/internal/models"
)

// WindowDays is the fixed lookback window. Callers always receive exactly
// this many buckets so the chart x-axis is stable.
const WindowDays = 7

// DailyBucket aggregates metrics for one calendar day.
type DailyBucket struct {
	Date           string `json:"date"` // YYYY-MM-DD
	ScanCount      int    `json:"scan_count"`
	NutritionScore int    `json:"nutrition_score"`
	EcoScore       int    `json:"eco_score"`
	RiskScore      int    `json:"risk_score"`
	Calories       int    `json:"calories"`
}

// Aggregate produces exactly WindowDays buckets for the trailing calendar
// days ending at now, in ascending date order. It is a pure function of the
// record set and now: running it twice over the same inputs yields identical
// buckets. Sentinel score values contribute zero to the day's sums while the
// record still counts toward ScanCount. Days without records yield zero-value
// buckets, never absent ones.
func Aggregate(products []*models.Product, now time.Time) []DailyBucket {
	buckets := make([]DailyBucket, WindowDays)
	index := make(map[string]int, WindowDays)

	start := now.AddDate(0, 0, -(WindowDays - 1))
	for i := 0; i < WindowDays; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		buckets[i] = DailyBucket{Date: date}
		index[date] = i
	}

	for _, p := range products {
		day := p.TimeScanned.In(now.Location()).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			continue
		}

		buckets[i].ScanCount++
		buckets[i].NutritionScore += zeroIfSentinel(p.NutritionScore)
		buckets[i].EcoScore += zeroIfSentinel(p.EcoScore)
		buckets[i].RiskScore += zeroIfSentinel(p.RiskScore)
		buckets[i].Calories += p.Calories
	}

	return buckets
}

// zeroIfSentinel treats the unknown and failed sentinels as contributing
// nothing to a sum.
func zeroIfSentinel(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
