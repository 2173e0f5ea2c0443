package restaurant

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysInChart is the fixed size of the daily revenue histogram.
const DaysInChart = 31

// FinancialStats is derived from the order history; nothing here is stored.
type FinancialStats struct {
	CurrentRevenue  decimal.Decimal
	PreviousRevenue decimal.Decimal
	GrowthPercent   float64
	DailyRevenue    [DaysInChart]decimal.Decimal
	MaxDailyRevenue decimal.Decimal
}

// Financials buckets non-cancelled orders into the calendar month of now
// and the month before it. Current-month orders also land in the daily
// histogram at index day-1. Months are evaluated in now's location.
func Financials(orders []Order, now time.Time) FinancialStats {
	loc := now.Location()
	thisYear, thisMonth, _ := now.Date()
	prev := time.Date(thisYear, thisMonth-1, 1, 0, 0, 0, 0, loc)
	prevYear, prevMonth, _ := prev.Date()

	var stats FinancialStats
	for i := range stats.DailyRevenue {
		stats.DailyRevenue[i] = decimal.Zero
	}

	for _, o := range orders {
		if o.Status == OrderCancelled {
			continue
		}
		at := time.UnixMilli(o.CreatedAt).In(loc)
		y, m, d := at.Date()

		switch {
		case y == thisYear && m == thisMonth:
			stats.CurrentRevenue = stats.CurrentRevenue.Add(o.Total)
			stats.DailyRevenue[d-1] = stats.DailyRevenue[d-1].Add(o.Total)
		case y == prevYear && m == prevMonth:
			stats.PreviousRevenue = stats.PreviousRevenue.Add(o.Total)
		}
	}

	stats.GrowthPercent = Growth(stats.CurrentRevenue, stats.PreviousRevenue)

	stats.MaxDailyRevenue = decimal.NewFromInt(1)
	for _, v := range stats.DailyRevenue {
		if v.GreaterThan(stats.MaxDailyRevenue) {
			stats.MaxDailyRevenue = v
		}
	}
	return stats
}

// Growth is the month-over-month change in percent. Starting from zero
// revenue counts as 100% growth; zero to zero is 0%.
func Growth(current, previous decimal.Decimal) float64 {
	if previous.IsPositive() {
		return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	if current.IsPositive() {
		return 100
	}
	return 0
}
