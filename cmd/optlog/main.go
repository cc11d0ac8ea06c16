package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/config"
	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/logger"
	"github.com/gw/optlog/internal/tradelog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, log: log}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "list":
		err = app.runList(ctx, args)
	case "add":
		err = app.runAdd(ctx, args)
	case "edit":
		err = app.runEdit(ctx, args)
	case "rm":
		err = app.runRemove(ctx, args)
	case "import":
		err = app.runImport(ctx, args)
	case "summary":
		err = app.runSummary(ctx)
	case "monthly":
		err = app.runMonthly(ctx)
	case "series":
		err = app.runSeries(ctx)
	case "watch":
		err = app.runWatch(ctx, args)
	case "defaults":
		err = app.runDefaults()
	case "sync":
		err = app.runSync(ctx, args)
	case "backup":
		err = app.runBackup(ctx)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, context.Canceled) {
			return
		}
		log.Error(cmd+" failed", zap.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: optlog <command> [flags]

Commands:
  list [-n N]          Show trades, newest close date first
  add [flags]          Record a trade (-defaults pre-fills a sample trade)
  edit -id ID [flags]  Change fields of a trade
  rm ID...             Remove trades
  import FILE          Bulk import a CSV file ("-" reads stdin)
  summary              Show portfolio totals
  monthly              Show net profit per month
  series               Show the cumulative profit series
  watch [-url URL]     Follow live changes from optlogd
  defaults             Print the pre-filled trade as JSON
  sync -to STORE       Copy the configured store into file, sqlite or remote
  backup               Write a snapshot into the backup dir

Storage is chosen with OPTLOG_STORE (file, sqlite or remote).`)
}

type app struct {
	cfg *config.Config
	log *zap.Logger
}

// openLedger loads the configured store into a ledger. An unreadable store
// is shown as empty, but refused when the command would write, since the
// first save would overwrite it. The returned func releases the backend.
func (a *app) openLedger(ctx context.Context, writable bool) (*ledger.Ledger, func(), error) {
	backend, err := tradelog.FromConfig(a.cfg, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", a.cfg.Store, err)
	}
	l := ledger.New(backend, ledger.WithLogger(a.log))
	if err := l.Load(ctx); err != nil && writable {
		backend.Close()
		return nil, nil, fmt.Errorf("refusing to write: %w", err)
	}
	return l, func() { backend.Close() }, nil
}
