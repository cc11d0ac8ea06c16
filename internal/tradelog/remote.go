package tradelog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/trade"
)

const tradesPath = "/api/trades"

// Remote reads and replaces the collection held by an optlogd server.
type Remote struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewRemote(baseURL string, timeout time.Duration, log *zap.Logger) (*Remote, error) {
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

func (c *Remote) Load(ctx context.Context) ([]trade.Raw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tradesPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var raws []trade.Raw
	if err := c.doRequest(req, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

func (c *Remote) Save(ctx context.Context, records []trade.Record) error {
	if records == nil {
		records = []trade.Record{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding trades: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+tradesPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var ack struct {
		OK bool `json:"ok"`
	}
	if err := c.doRequest(req, &ack); err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("server did not acknowledge save")
	}
	return nil
}

func (c *Remote) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Remote) doRequest(req *http.Request, out interface{}) error {
	c.log.Debug("remote request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.log.Error("remote API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w (body: %s)", err, string(body))
		}
	}

	return nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
