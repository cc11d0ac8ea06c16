package trade

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column counts of the accepted bulk import layouts.
const (
	// ticker, strategy, openDate, closeDate, strike, premium, buyback, qty, commissions
	csvColsStrategy = 9
	// ticker, openDate, closeDate, strike, premium, buyback, qty, commissions
	csvColsOpenDate = 8
	// ticker, closeDate, strike, premium, buyback, qty, commissions
	csvColsMinimal = 7
)

// RowError is a bulk import row that could not be read or normalized.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// CSVRow is one data row of a bulk import.
type CSVRow struct {
	Line int
	Raw  Raw
}

// ReadCSV reads a bulk import. The first row is a header and is discarded.
// Malformed rows are reported in the returned RowErrors and never stop the
// remaining rows; the error is only set when the reader itself fails.
func ReadCSV(r io.Reader) ([]CSVRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		rows    []CSVRow
		rowErrs []RowError
		header  = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				if !header {
					rowErrs = append(rowErrs, RowError{Line: pe.Line, Err: pe.Err})
				}
				header = false
				continue
			}
			return rows, rowErrs, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if header {
			header = false
			continue
		}
		if blank(rec) {
			continue
		}
		raw, err := rawFromColumns(rec)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, CSVRow{Line: line, Raw: raw})
	}
	return rows, rowErrs, nil
}

func rawFromColumns(c []string) (Raw, error) {
	switch {
	case len(c) >= csvColsStrategy:
		return Raw{
			Ticker: c[0], Strategy: c[1], OpenDate: c[2], CloseDate: c[3],
			Strike: Field(c[4]), Premium: Field(c[5]), Buyback: Field(c[6]),
			Qty: Field(c[7]), Commissions: Field(c[8]),
		}, nil
	case len(c) == csvColsOpenDate:
		return Raw{
			Ticker: c[0], OpenDate: c[1], CloseDate: c[2],
			Strike: Field(c[3]), Premium: Field(c[4]), Buyback: Field(c[5]),
			Qty: Field(c[6]), Commissions: Field(c[7]),
		}, nil
	case len(c) == csvColsMinimal:
		return Raw{
			Ticker: c[0], CloseDate: c[1],
			Strike: Field(c[2]), Premium: Field(c[3]), Buyback: Field(c[4]),
			Qty: Field(c[5]), Commissions: Field(c[6]),
		}, nil
	default:
		return Raw{}, fmt.Errorf("expected %d, %d or %d columns, got %d",
			csvColsMinimal, csvColsOpenDate, csvColsStrategy, len(c))
	}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
