package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/config"
)

func TestRunReturnsStartupErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		edit func(*config.Config)
		want string
	}{
		{"bad backup schedule", func(c *config.Config) { c.BackupSchedule = "not a schedule" }, "scheduling backups"},
		{"journal dir is a file", func(c *config.Config) { c.JournalDir = blocker }, "opening journal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Store:      config.StoreFile,
				DataDir:    t.TempDir(),
				File:       "trades.json",
				HTTPAddr:   "127.0.0.1:0",
				BackupDir:  t.TempDir(),
				BackupKeep: 1,
			}
			tt.edit(cfg)

			err := run(cfg, zap.NewNop())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v want %q", err, tt.want)
			}
		})
	}
}
