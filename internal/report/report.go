// Package report renders trades and aggregates as fixed-width text tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/gw/optlog/internal/summary"
	"github.com/gw/optlog/internal/trade"
)

const notAvailable = "n/a"

// Money formats v as dollars with two decimals and thousands separators.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	abs, _ := d.Abs().Float64()
	return sign + "$" + humanize.FormatFloat("#,###.##", abs)
}

// Percent formats v, already scaled to 0-100, with two decimals.
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).Round(2).StringFixed(2) + "%"
}

// Number formats a plain value such as a strike or premium.
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).String()
}

func rule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat("-", n))
}

// Trades prints one row per record in the given order.
func Trades(w io.Writer, records []trade.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No trades.")
		return
	}
	fmt.Fprintf(w, "%-36s %-6s %-14s %-10s %-10s %8s %8s %8s %5s %8s %12s %8s\n",
		"ID", "Ticker", "Strategy", "Open", "Close", "Strike", "Premium", "Buyback", "Qty", "Comm", "Net", "Return")
	rule(w, 146)
	for _, r := range records {
		flag := ""
		if !r.Finite() {
			flag = " !"
		}
		fmt.Fprintf(w, "%-36s %-6s %-14s %-10s %-10s %8s %8s %8s %5d %8s %12s %8s%s\n",
			r.ID,
			r.Ticker,
			truncate(r.Strategy, 14),
			r.OpenDate,
			r.CloseDate,
			Number(r.Strike),
			Number(r.Premium),
			Number(r.Buyback),
			r.Qty,
			Money(r.Commissions),
			Money(r.Net),
			Percent(r.Percent),
			flag,
		)
	}
}

// Summary prints the aggregate block. A nil summary means no trades.
func Summary(w io.Writer, s *summary.Summary) {
	if s == nil {
		fmt.Fprintln(w, "No trades.")
		return
	}
	avgDuration := notAvailable
	if s.HasDuration {
		avgDuration = decimal.NewFromFloat(s.AvgDurationDays).Round(1).StringFixed(1) + " days"
	}
	rows := [][2]string{
		{"Trades", humanize.Comma(int64(s.Trades))},
		{"Wins / Losses", fmt.Sprintf("%d / %d", s.Wins, s.Losses)},
		{"Win rate", Percent(s.WinRate)},
		{"Total profit", Money(s.TotalProfit)},
		{"Avg premium", Money(s.AvgPremium)},
		{"Avg duration", avgDuration},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-16s %s\n", r[0], r[1])
	}
	if s.Incomplete > 0 {
		fmt.Fprintf(w, "%-16s %d (unparseable strike or premium, marked !)\n", "Incomplete", s.Incomplete)
	}
}

// Monthly prints the net profit per close month.
func Monthly(w io.Writer, buckets []summary.MonthBucket) {
	if len(buckets) == 0 {
		fmt.Fprintln(w, "No trades.")
		return
	}
	fmt.Fprintf(w, "%-8s %14s\n", "Month", "Net")
	rule(w, 23)
	var total float64
	for _, b := range buckets {
		fmt.Fprintf(w, "%-8s %14s\n", b.Month, Money(b.Net))
		total += b.Net
	}
	rule(w, 23)
	fmt.Fprintf(w, "%-8s %14s\n", "TOTAL", Money(total))
}

// Series prints the cumulative profit series.
func Series(w io.Writer, points []summary.Point) {
	if len(points) == 0 {
		fmt.Fprintln(w, "No trades.")
		return
	}
	fmt.Fprintf(w, "%-10s %-36s %12s %14s\n", "Date", "Trade", "Net", "Cumulative")
	rule(w, 75)
	for _, p := range points {
		fmt.Fprintf(w, "%-10s %-36s %12s %14s\n", p.Date, p.TradeID, Money(p.Net), Money(p.Total))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
