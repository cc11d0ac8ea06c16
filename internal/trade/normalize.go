package trade

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var ErrMissingDate = errors.New("date is required")

// NormalizationError reports input that cannot become a Record at all.
// Numeric coercion never produces one; see Normalize.
type NormalizationError struct {
	Field string
	Value string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// NewID returns a fresh record identifier. UUIDv7 keeps IDs time ordered
// and unique across concurrently created records.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Normalize coerces raw input into a valued Record.
//
// Strike and premium that do not parse become NaN and travel on as
// non-finite values (see Record.Finite). Buyback and commissions fall back
// to 0 and quantity to 1; a quantity of zero or less is also 1. The only
// error is a missing or unparseable close date.
func Normalize(raw Raw) (Record, error) {
	closeText := strings.TrimSpace(raw.CloseDate)
	if closeText == "" {
		return Record{}, &NormalizationError{Field: "closeDate", Err: ErrMissingDate}
	}
	closeDate, err := ParseDate(closeText)
	if err != nil {
		return Record{}, &NormalizationError{Field: "closeDate", Value: closeText, Err: err}
	}
	var openDate Date
	if s := strings.TrimSpace(raw.OpenDate); s != "" {
		if d, err := ParseDate(s); err == nil {
			openDate = d
		}
	}

	id := strings.TrimSpace(string(raw.ID))
	if id == "" {
		id = NewID()
	}

	r := Record{
		ID:          id,
		Ticker:      strings.ToUpper(strings.TrimSpace(raw.Ticker)),
		Strategy:    strings.TrimSpace(raw.Strategy),
		OpenDate:    openDate,
		CloseDate:   closeDate,
		Strike:      parseCritical(raw.Strike),
		Premium:     parseCritical(raw.Premium),
		Buyback:     parseOr(raw.Buyback, 0),
		Qty:         parseQty(raw.Qty),
		Commissions: parseOr(raw.Commissions, 0),
	}
	return Value(r), nil
}

func cleanNumber(f Field) string {
	s := strings.TrimSpace(string(f))
	s = strings.TrimPrefix(s, "$")
	return strings.ReplaceAll(s, ",", "")
}

func parseNumber(f Field) (float64, bool) {
	s := cleanNumber(f)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func parseCritical(f Field) float64 {
	v, ok := parseNumber(f)
	if !ok {
		return math.NaN()
	}
	return v
}

func parseOr(f Field, def float64) float64 {
	v, ok := parseNumber(f)
	if !ok || v == 0 {
		return def
	}
	return v
}

// parseQty truncates decimal text toward zero the way parseInt does.
func parseQty(f Field) int {
	s := cleanNumber(f)
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 1
		}
		return n
	}
	v, ok := parseNumber(f)
	if !ok || math.IsInf(v, 0) || v < 1 || v > math.MaxInt32 {
		return 1
	}
	return int(v)
}
