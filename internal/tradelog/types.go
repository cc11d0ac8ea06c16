package tradelog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gw/optlog/internal/trade"
)

var ErrNotConfigured = errors.New("remote store URL not configured")

// Backend is a ledger gateway that holds a resource.
type Backend interface {
	Load(ctx context.Context) ([]trade.Raw, error)
	Save(ctx context.Context, records []trade.Record) error
	Close() error
}

// APIError is a non-2xx reply from the remote store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API error %d: %s", e.Status, e.Message)
}

var (
	_ Backend = (*FileStore)(nil)
	_ Backend = (*Store)(nil)
	_ Backend = (*Remote)(nil)
)
