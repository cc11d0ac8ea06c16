package tradelog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/trade"
)

// Sync copies every trade held by src into dst, replacing what dst holds.
// Records that fail normalization are skipped and counted.
func Sync(ctx context.Context, src, dst Backend, log *zap.Logger) (copied, skipped int, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	raws, err := src.Load(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading source: %w", err)
	}

	records := make([]trade.Record, 0, len(raws))
	for i, raw := range raws {
		r, err := trade.Normalize(raw)
		if err != nil {
			log.Warn("skipping trade", zap.Int("index", i), zap.Error(err))
			skipped++
			continue
		}
		records = append(records, r)
	}

	if err := dst.Save(ctx, records); err != nil {
		return 0, skipped, fmt.Errorf("saving destination: %w", err)
	}
	log.Info("synced trades", zap.Int("count", len(records)), zap.Int("skipped", skipped))
	return len(records), skipped, nil
}
