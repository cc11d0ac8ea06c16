// Package summary derives portfolio aggregates from a list of trades.
package summary

import (
	"encoding/json"
	"sort"

	"github.com/gw/optlog/internal/trade"
)

type MonthBucket struct {
	Month string  `json:"month"`
	Net   float64 `json:"net"`
}

// Point is one step of the cumulative profit series.
type Point struct {
	Date    trade.Date `json:"date"`
	TradeID string     `json:"tradeId"`
	Net     float64    `json:"net"`
	Total   float64    `json:"total"`
}

type Summary struct {
	Trades          int
	Wins            int
	Losses          int
	TotalProfit     float64
	WinRate         float64
	AvgPremium      float64
	AvgDurationDays float64
	HasDuration     bool
	Incomplete      int
	Monthly         []MonthBucket
	Cumulative      []Point
}

// Summarize returns nil for an empty list so callers can tell "no data"
// apart from a portfolio that nets to zero.
func Summarize(records []trade.Record) *Summary {
	if len(records) == 0 {
		return nil
	}

	s := &Summary{Trades: len(records)}
	var premiums, days float64
	var withDates int
	for _, r := range records {
		s.TotalProfit += r.Net
		premiums += r.Premium
		if r.Win() {
			s.Wins++
		}
		if d, ok := r.HoldingDays(); ok {
			days += d
			withDates++
		}
		if !r.Finite() {
			s.Incomplete++
		}
	}
	s.Losses = s.Trades - s.Wins
	s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	s.AvgPremium = premiums / float64(s.Trades)
	if withDates > 0 {
		s.AvgDurationDays = days / float64(withDates)
		s.HasDuration = true
	}
	s.Monthly = Monthly(records)
	s.Cumulative = Cumulative(records)
	return s
}

// MonthlyNet sums net profit per close month, keyed "YYYY-MM".
func MonthlyNet(records []trade.Record) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		out[r.CloseDate.Month()] += r.Net
	}
	return out
}

// Monthly is MonthlyNet ordered by month ascending.
func Monthly(records []trade.Record) []MonthBucket {
	m := MonthlyNet(records)
	buckets := make([]MonthBucket, 0, len(m))
	for k, v := range m {
		buckets = append(buckets, MonthBucket{Month: k, Net: v})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })
	return buckets
}

// Cumulative is the running total of net profit by close date ascending.
// Trades closed on the same day keep their list order.
func Cumulative(records []trade.Record) []Point {
	sorted := make([]trade.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CloseDate.Before(sorted[j].CloseDate)
	})

	points := make([]Point, 0, len(sorted))
	var total float64
	for _, r := range sorted {
		total += r.Net
		points = append(points, Point{Date: r.CloseDate, TradeID: r.ID, Net: r.Net, Total: total})
	}
	return points
}

type summaryJSON struct {
	Trades          int         `json:"trades"`
	Wins            int         `json:"wins"`
	Losses          int         `json:"losses"`
	TotalProfit     *float64    `json:"totalProfit"`
	WinRate         float64     `json:"winRate"`
	AvgPremium      *float64    `json:"avgPremium"`
	AvgDurationDays *float64    `json:"avgDurationDays"`
	Incomplete      int         `json:"incomplete"`
	Monthly         []monthJSON `json:"monthly"`
	Cumulative      []pointJSON `json:"cumulative"`
}

type monthJSON struct {
	Month string   `json:"month"`
	Net   *float64 `json:"net"`
}

type pointJSON struct {
	Date    trade.Date `json:"date"`
	TradeID string     `json:"tradeId"`
	Net     *float64   `json:"net"`
	Total   *float64   `json:"total"`
}

// MarshalJSON writes non-finite numbers as null and leaves avgDurationDays
// null when no trade has an open date.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := summaryJSON{
		Trades:      s.Trades,
		Wins:        s.Wins,
		Losses:      s.Losses,
		TotalProfit: trade.FiniteOrNil(s.TotalProfit),
		WinRate:     s.WinRate,
		AvgPremium:  trade.FiniteOrNil(s.AvgPremium),
		Incomplete:  s.Incomplete,
		Monthly:     make([]monthJSON, 0, len(s.Monthly)),
		Cumulative:  make([]pointJSON, 0, len(s.Cumulative)),
	}
	if s.HasDuration {
		out.AvgDurationDays = trade.FiniteOrNil(s.AvgDurationDays)
	}
	for _, b := range s.Monthly {
		out.Monthly = append(out.Monthly, monthJSON{Month: b.Month, Net: trade.FiniteOrNil(b.Net)})
	}
	for _, p := range s.Cumulative {
		out.Cumulative = append(out.Cumulative, pointJSON{
			Date:    p.Date,
			TradeID: p.TradeID,
			Net:     trade.FiniteOrNil(p.Net),
			Total:   trade.FiniteOrNil(p.Total),
		})
	}
	return json.Marshal(out)
}
