package trade

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the text form of a Date in JSON, CSV and sqlite.
const DateLayout = "2006-01-02"

// Date is a civil calendar date. The zero value means "absent".
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

var dateLayouts = []string{DateLayout, time.RFC3339, "2006/01/02", "01/02/2006"}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return DateOf(t), nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}

func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Month is the monthly bucket key, "YYYY-MM".
func (d Date) Month() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01")
}

// DaysSince returns the number of calendar days from o to d.
func (d Date) DaysSince(o Date) float64 {
	return d.t.Sub(o.t).Hours() / 24
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Field is a loosely typed scalar as it arrives from a form, a CSV cell or
// stored JSON. It accepts JSON numbers, strings and null.
type Field string

func (f *Field) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*f = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*f = Field(str)
	default:
		*f = Field(s)
	}
	return nil
}

// Raw is unvalidated trade input. It only ever reaches the rest of the
// system through Normalize.
type Raw struct {
	ID          Field  `json:"id"`
	Ticker      string `json:"ticker"`
	Strategy    string `json:"strategy"`
	OpenDate    string `json:"openDate"`
	CloseDate   string `json:"closeDate"`
	Strike      Field  `json:"strike"`
	Premium     Field  `json:"premium"`
	Buyback     Field  `json:"buyback"`
	Qty         Field  `json:"qty"`
	Commissions Field  `json:"commissions"`
}

// Record is a normalized, valued option trade.
type Record struct {
	ID          string
	Ticker      string
	Strategy    string
	OpenDate    Date
	CloseDate   Date
	Strike      float64
	Premium     float64
	Buyback     float64
	Qty         int
	Commissions float64

	// Net and Percent are derived by Value and never taken from input.
	Net     float64
	Percent float64
}

// Capital is the notional at risk: strike x 100 x quantity.
func (r Record) Capital() float64 {
	return r.Strike * ContractMultiplier * float64(r.Qty)
}

func (r Record) Win() bool { return r.Net > 0 }

// Finite reports whether every valued number of the record is usable.
// Records that fail it came from input with an unparseable strike or premium.
func (r Record) Finite() bool {
	return finite(r.Strike) && finite(r.Premium) && finite(r.Net) && finite(r.Percent)
}

// HoldingDays is close date minus open date in days; ok is false without an open date.
func (r Record) HoldingDays() (days float64, ok bool) {
	if r.OpenDate.IsZero() || r.CloseDate.IsZero() {
		return 0, false
	}
	return r.CloseDate.DaysSince(r.OpenDate), true
}

// Raw converts the record back into input form, keeping its ID.
func (r Record) Raw() Raw {
	return Raw{
		ID:          Field(r.ID),
		Ticker:      r.Ticker,
		Strategy:    r.Strategy,
		OpenDate:    r.OpenDate.String(),
		CloseDate:   r.CloseDate.String(),
		Strike:      formatField(r.Strike),
		Premium:     formatField(r.Premium),
		Buyback:     formatField(r.Buyback),
		Qty:         Field(fmt.Sprint(r.Qty)),
		Commissions: formatField(r.Commissions),
	}
}

type recordJSON struct {
	ID          string   `json:"id"`
	Ticker      string   `json:"ticker"`
	Strategy    string   `json:"strategy"`
	OpenDate    Date     `json:"openDate"`
	CloseDate   Date     `json:"closeDate"`
	Strike      *float64 `json:"strike"`
	Premium     *float64 `json:"premium"`
	Buyback     *float64 `json:"buyback"`
	Qty         int      `json:"qty"`
	Commissions *float64 `json:"commissions"`
	Net         *float64 `json:"net"`
	Percent     *float64 `json:"percent"`
}

// MarshalJSON writes non-finite numbers as null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:          r.ID,
		Ticker:      r.Ticker,
		Strategy:    r.Strategy,
		OpenDate:    r.OpenDate,
		CloseDate:   r.CloseDate,
		Strike:      FiniteOrNil(r.Strike),
		Premium:     FiniteOrNil(r.Premium),
		Buyback:     FiniteOrNil(r.Buyback),
		Qty:         r.Qty,
		Commissions: FiniteOrNil(r.Commissions),
		Net:         FiniteOrNil(r.Net),
		Percent:     FiniteOrNil(r.Percent),
	})
}

// FiniteOrNil returns nil for NaN and infinities so they encode as JSON null.
func FiniteOrNil(v float64) *float64 {
	if !finite(v) {
		return nil
	}
	return &v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatField(v float64) Field {
	if !finite(v) {
		return ""
	}
	return Field(fmt.Sprint(v))
}
