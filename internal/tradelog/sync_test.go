package tradelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSyncFileToSQLite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.json")
	stored := `[
  {"id": "1", "ticker": "gme", "closeDate": "2024-01-05", "strike": 25, "premium": 0.1, "qty": 10},
  {"id": "2", "ticker": "amc", "strike": 5, "premium": 0.2},
  {"id": "3", "ticker": "tsla", "closeDate": "2024-02-01", "strike": "bad", "premium": 1}
]`
	if err := os.WriteFile(path, []byte(stored), 0644); err != nil {
		t.Fatal(err)
	}
	src := NewFileStore(path)
	dst := openTestStore(t)

	copied, skipped, err := Sync(context.Background(), src, dst, nil)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if copied != 2 || skipped != 1 {
		t.Fatalf("copied=%d skipped=%d want 2 1", copied, skipped)
	}
	raws, err := dst.Load(context.Background())
	if err != nil || len(raws) != 2 || raws[0].Ticker != "GME" || raws[1].Strike != "" {
		t.Fatalf("raws=%+v err=%v", raws, err)
	}
}
