package trade

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestNormalizeFallbacks(t *testing.T) {
	r, err := Normalize(Raw{
		Ticker:      " gme ",
		CloseDate:   "2024-01-05",
		Strike:      "25",
		Premium:     "0.10",
		Buyback:     "abc",
		Qty:         "",
		Commissions: "n/a",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if r.Ticker != "GME" {
		t.Fatalf("ticker=%q want GME", r.Ticker)
	}
	if r.Buyback != 0 || r.Qty != 1 || r.Commissions != 0 {
		t.Fatalf("buyback=%v qty=%v commissions=%v want 0 1 0", r.Buyback, r.Qty, r.Commissions)
	}
	if !near(r.Net, 10) {
		t.Fatalf("net=%v want 10", r.Net)
	}
	if r.ID == "" {
		t.Fatalf("id not assigned")
	}
}

func TestNormalizeQuantity(t *testing.T) {
	cases := map[Field]int{
		"10":    10,
		"0":     1,
		"-4":    1,
		"":      1,
		"x":     1,
		"7.9":   7,
		" 3 ":   3,
		"1e3":   1000,
		"0.4":   1,
		"2,000": 2000,
	}
	for in, want := range cases {
		if got := parseQty(in); got != want {
			t.Errorf("parseQty(%q)=%d want %d", in, got, want)
		}
	}
}

func TestNormalizeCriticalFieldsBecomeNaN(t *testing.T) {
	r, err := Normalize(Raw{CloseDate: "2024-02-01", Strike: "twenty", Premium: "", Qty: "1"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !math.IsNaN(r.Strike) || !math.IsNaN(r.Premium) {
		t.Fatalf("strike=%v premium=%v want NaN", r.Strike, r.Premium)
	}
	if r.Finite() {
		t.Fatalf("expected non-finite record")
	}
}

func TestNormalizeNumberText(t *testing.T) {
	r, err := Normalize(Raw{CloseDate: "2024-02-01", Strike: " $1,250.5 ", Premium: "-0.35", Qty: "1"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if r.Strike != 1250.5 || r.Premium != -0.35 {
		t.Fatalf("strike=%v premium=%v", r.Strike, r.Premium)
	}
}

func TestNormalizeCloseDate(t *testing.T) {
	_, err := Normalize(Raw{Strike: "1", Premium: "1"})
	var ne *NormalizationError
	if !errors.As(err, &ne) || ne.Field != "closeDate" || !errors.Is(err, ErrMissingDate) {
		t.Fatalf("err=%v want missing closeDate", err)
	}

	_, err = Normalize(Raw{CloseDate: "last friday"})
	if !errors.As(err, &ne) || ne.Value != "last friday" {
		t.Fatalf("err=%v want unparseable closeDate", err)
	}

	for _, s := range []string{"2024-03-08", "2024/03/08", "03/08/2024", "2024-03-08T15:04:05Z"} {
		r, err := Normalize(Raw{CloseDate: s})
		if err != nil {
			t.Fatalf("%s: err=%v", s, err)
		}
		if r.CloseDate != NewDate(2024, time.March, 8) {
			t.Fatalf("%s: close=%v", s, r.CloseDate)
		}
	}
}

func TestNormalizeOpenDateOptional(t *testing.T) {
	r, err := Normalize(Raw{CloseDate: "2024-03-08", OpenDate: "garbage"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !r.OpenDate.IsZero() {
		t.Fatalf("open=%v want zero", r.OpenDate)
	}
	if _, ok := r.HoldingDays(); ok {
		t.Fatalf("holding days reported without open date")
	}

	r, _ = Normalize(Raw{CloseDate: "2024-03-08", OpenDate: "2024-03-04"})
	if d, ok := r.HoldingDays(); !ok || d != 4 {
		t.Fatalf("holding=%v ok=%v want 4", d, ok)
	}
}

func TestNormalizeKeepsStoredID(t *testing.T) {
	r, err := Normalize(Raw{ID: "1704067200000.42", CloseDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if r.ID != "1704067200000.42" {
		t.Fatalf("id=%q", r.ID)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestRawFromStoredJSON(t *testing.T) {
	stored := `[{"id":1704067200000.5,"ticker":"AMC","strategy":"CSP","openDate":"2024-01-02",
		"closeDate":"2024-01-05","strike":5,"premium":"0.2","buyback":null,"qty":3,"commissions":1.5,"net":0}]`
	var raws []Raw
	if err := json.Unmarshal([]byte(stored), &raws); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r, err := Normalize(raws[0])
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.ID != "1704067200000.5" || r.Qty != 3 || r.Buyback != 0 || r.Premium != 0.2 {
		t.Fatalf("record=%+v", r)
	}
	if !near(r.Net, 58.5) {
		t.Fatalf("net=%v want 58.5 (stored net ignored)", r.Net)
	}
}

func TestRecordJSONNonFinite(t *testing.T) {
	r, _ := Normalize(Raw{ID: "a", CloseDate: "2024-01-05", Strike: "bad", Premium: "1"})
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"strike":null`) || !strings.Contains(s, `"percent":null`) {
		t.Fatalf("json=%s", s)
	}
	if !strings.Contains(s, `"openDate":""`) || !strings.Contains(s, `"closeDate":"2024-01-05"`) {
		t.Fatalf("json=%s", s)
	}

	var back Raw
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	again, err := Normalize(back)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !math.IsNaN(again.Strike) || again.ID != "a" {
		t.Fatalf("round trip=%+v", again)
	}
}

func TestRecordRawRoundTrip(t *testing.T) {
	orig, _ := Normalize(Raw{Ticker: "TSLA", Strategy: "Put", OpenDate: "2024-05-01", CloseDate: "2024-05-10",
		Strike: "180.5", Premium: "2.37", Buyback: "0.11", Qty: "4", Commissions: "2.6"})
	back, err := Normalize(orig.Raw())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if back != orig {
		t.Fatalf("round trip\n got %+v\nwant %+v", back, orig)
	}
}

func TestDefaults(t *testing.T) {
	// Wednesday 2024-01-17 -> last week's Monday 2024-01-08 and Friday 2024-01-12.
	raw := Defaults(time.Date(2024, 1, 17, 13, 0, 0, 0, time.UTC))
	if raw.OpenDate != "2024-01-08" || raw.CloseDate != "2024-01-12" {
		t.Fatalf("open=%s close=%s", raw.OpenDate, raw.CloseDate)
	}
	// Sunday belongs to the week that started the previous Monday.
	raw = Defaults(time.Date(2024, 1, 21, 9, 0, 0, 0, time.UTC))
	if raw.OpenDate != "2024-01-08" || raw.CloseDate != "2024-01-12" {
		t.Fatalf("sunday: open=%s close=%s", raw.OpenDate, raw.CloseDate)
	}
	r, err := Normalize(raw)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if r.Ticker != "GME" || r.Qty != 10 || r.Strategy != "Covered Call" {
		t.Fatalf("record=%+v", r)
	}
}
