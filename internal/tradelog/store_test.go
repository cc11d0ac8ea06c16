package tradelog

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tradelog.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	roundTrip(t, openTestStore(t))
}

func TestStoreSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	recs := sample(t)

	if err := s.Save(ctx, recs); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, recs[:1]); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count=%d err=%v want 1", n, err)
	}
	if err := s.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}
	raws, err := s.Load(ctx)
	if err != nil || len(raws) != 0 {
		t.Fatalf("raws=%v err=%v", raws, err)
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tradelog.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), sample(t)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	raws, err := s.Load(context.Background())
	if err != nil || len(raws) != 2 || raws[0].ID != "b" {
		t.Fatalf("raws=%v err=%v", raws, err)
	}
}
