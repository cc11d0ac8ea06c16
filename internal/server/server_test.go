package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/trade"
)

type memGateway struct {
	mu      sync.Mutex
	saved   []trade.Record
	saveErr error
}

func (g *memGateway) Load(context.Context) ([]trade.Raw, error) { return nil, nil }

func (g *memGateway) Save(_ context.Context, records []trade.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.saved = records
	return nil
}

func newTestServer(t *testing.T, gw *memGateway) (*ledger.Ledger, http.Handler) {
	t.Helper()
	l := ledger.New(gw)
	return l, New(Options{Ledger: l})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const gmeJSON = `[{"ticker":"GME","closeDate":"2024-01-05","strike":25,"premium":"0.10","buyback":0.01,"qty":10,"commissions":10}]`

func TestGetTradesEmpty(t *testing.T) {
	_, h := newTestServer(t, &memGateway{})
	rec := do(h, http.MethodGet, "/api/trades", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestPutThenGet(t *testing.T) {
	gw := &memGateway{}
	l, h := newTestServer(t, gw)

	rec := do(h, http.MethodPut, "/api/trades", gmeJSON)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("put code=%d body=%s", rec.Code, rec.Body)
	}
	if l.Len() != 1 || len(gw.saved) != 1 {
		t.Fatalf("len=%d saved=%d", l.Len(), len(gw.saved))
	}

	rec = do(h, http.MethodGet, "/api/trades", "")
	var got []struct {
		ID      string   `json:"id"`
		Ticker  string   `json:"ticker"`
		Net     *float64 `json:"net"`
		Percent *float64 `json:"percent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body)
	}
	if len(got) != 1 || got[0].ID == "" || got[0].Ticker != "GME" || got[0].Net == nil || *got[0].Net < 79.99 {
		t.Fatalf("got %+v", got)
	}
}

func TestPutInvalidJSON(t *testing.T) {
	_, h := newTestServer(t, &memGateway{})
	for _, body := range []string{`{"not":"an array"}`, `[{"ticker":`, ``, `null`} {
		rec := do(h, http.MethodPut, "/api/trades", body)
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"Invalid JSON"`) {
			t.Fatalf("body %q: code=%d resp=%s", body, rec.Code, rec.Body)
		}
	}
}

func TestPutInvalidTrade(t *testing.T) {
	l, h := newTestServer(t, &memGateway{})
	rec := do(h, http.MethodPut, "/api/trades", `[{"ticker":"X","strike":1}]`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid trade at index 0") {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if l.Len() != 0 {
		t.Fatalf("collection changed on rejected put")
	}
}

func TestPutStorageFailure(t *testing.T) {
	_, h := newTestServer(t, &memGateway{saveErr: errors.New("disk full")})
	rec := do(h, http.MethodPut, "/api/trades", gmeJSON)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "disk full") {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	_, h := newTestServer(t, &memGateway{})
	rec := do(h, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "null" {
		t.Fatalf("empty summary code=%d body=%s", rec.Code, rec.Body)
	}

	do(h, http.MethodPut, "/api/trades", gmeJSON)
	rec = do(h, http.MethodGet, "/api/summary", "")
	var s struct {
		Trades  int `json:"trades"`
		Wins    int `json:"wins"`
		Monthly []struct {
			Month string `json:"month"`
		} `json:"monthly"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Trades != 1 || s.Wins != 1 || len(s.Monthly) != 1 || s.Monthly[0].Month != "2024-01" {
		t.Fatalf("summary=%+v", s)
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	_, h := newTestServer(t, &memGateway{})
	rec := do(h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("health code=%d body=%s", rec.Code, rec.Body)
	}
	if rec := do(h, http.MethodGet, "/api/trades/123", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("field-level route code=%d want 404", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/api/trades", gmeJSON); rec.Code != http.StatusNotFound {
		t.Fatalf("POST code=%d want 404", rec.Code)
	}
}
