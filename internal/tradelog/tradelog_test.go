package tradelog

import (
	"context"
	"math"
	"testing"

	"github.com/gw/optlog/internal/trade"
)

func sample(t *testing.T) []trade.Record {
	t.Helper()
	raws := []trade.Raw{
		{ID: "b", Ticker: "GME", Strategy: "Covered Call", OpenDate: "2024-01-01", CloseDate: "2024-01-05",
			Strike: "25", Premium: "0.10", Buyback: "0.01", Qty: "10", Commissions: "10"},
		{ID: "a", Ticker: "AMC", CloseDate: "2024-01-05", Strike: "oops", Premium: "-0.5", Qty: "2"},
	}
	out := make([]trade.Record, 0, len(raws))
	for _, raw := range raws {
		r, err := trade.Normalize(raw)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, r)
	}
	return out
}

// roundTrip saves the sample through b, loads it back and checks that the
// reloaded records match, including the non-finite strike.
func roundTrip(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()
	want := sample(t)
	if err := b.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	raws, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(raws) != len(want) {
		t.Fatalf("loaded %d want %d", len(raws), len(want))
	}
	for i, raw := range raws {
		got, err := trade.Normalize(raw)
		if err != nil {
			t.Fatalf("normalize %d: %v", i, err)
		}
		if i == 1 {
			if !math.IsNaN(got.Strike) || got.ID != "a" || got.Premium != -0.5 || got.Qty != 2 {
				t.Fatalf("record %d=%+v", i, got)
			}
			continue
		}
		if got != want[i] {
			t.Fatalf("record %d\n got %+v\nwant %+v", i, got, want[i])
		}
	}
}
