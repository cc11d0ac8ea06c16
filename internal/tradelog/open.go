package tradelog

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/config"
)

// FromConfig opens the backend selected by cfg.Store.
func FromConfig(cfg *config.Config, log *zap.Logger) (Backend, error) {
	switch cfg.Store {
	case config.StoreFile:
		return NewFileStore(cfg.FilePath()), nil
	case config.StoreSQLite:
		if err := ensureDir(cfg.DBPath()); err != nil {
			return nil, err
		}
		return Open(cfg.DBPath())
	case config.StoreRemote:
		return NewRemote(cfg.RemoteURL, cfg.RemoteTimeout, log)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
