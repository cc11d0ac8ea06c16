package trade

import "time"

// Defaults is the pre-filled entry for a new trade: a GME covered call
// opened Monday of last week and closed that Friday.
func Defaults(now time.Time) Raw {
	today := DateOf(now).Time()
	sinceMonday := (int(today.Weekday()) + 6) % 7
	lastMonday := today.AddDate(0, 0, -sinceMonday-7)
	lastFriday := lastMonday.AddDate(0, 0, 4)

	return Raw{
		Ticker:      "GME",
		Strategy:    "Covered Call",
		OpenDate:    lastMonday.Format(DateLayout),
		CloseDate:   lastFriday.Format(DateLayout),
		Strike:      "25",
		Premium:     "0.10",
		Buyback:     "0.1",
		Qty:         "10",
		Commissions: "10",
	}
}
