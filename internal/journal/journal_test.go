package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/trade"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestRecordEvents(t *testing.T) {
	j, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	r, _ := trade.Normalize(trade.Raw{ID: "x1", CloseDate: "2024-01-05", Strike: "10", Premium: "1"})
	j.Record(ledger.Event{Seq: 1, Kind: ledger.Inserted, ID: "x1", Trades: []trade.Record{r}})
	j.Record(ledger.Event{Seq: 2, Kind: ledger.Removed, ID: "x1"})

	lines := readLines(t, j.Path())
	if len(lines) != 2 {
		t.Fatalf("lines=%d want 2", len(lines))
	}
	if lines[0]["kind"] != "inserted" || lines[0]["seq"] != 1.0 || lines[0]["totalProfit"] != 100.0 {
		t.Fatalf("first=%v", lines[0])
	}
	if tr, ok := lines[0]["trade"].(map[string]any); !ok || tr["id"] != "x1" {
		t.Fatalf("trade=%v", lines[0]["trade"])
	}
	if lines[1]["kind"] != "removed" || lines[1]["trades"] != 0.0 || lines[1]["trade"] != nil {
		t.Fatalf("second=%v", lines[1])
	}
}

func TestWriterRotatesDaily(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, "ledger")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	day := time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC)
	if err := w.Write(Entry{Time: day, Seq: 1, Kind: ledger.Inserted, Trades: 1}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Entry{Time: day.Add(2 * time.Minute), Seq: 2, Kind: ledger.Removed}); err != nil {
		t.Fatal(err)
	}

	for i, name := range []string{"ledger-2024-01-05.jsonl", "ledger-2024-01-06.jsonl"} {
		lines := readLines(t, filepath.Join(dir, name))
		if len(lines) != 1 || lines[0]["seq"] != float64(i+1) {
			t.Fatalf("%s: lines=%v", name, lines)
		}
	}
	if got := w.PathFor(day); got != filepath.Join(dir, "ledger-2024-01-05.jsonl") {
		t.Fatalf("path=%s", got)
	}
}
