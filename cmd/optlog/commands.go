package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gw/optlog/internal/backup"
	"github.com/gw/optlog/internal/config"
	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/report"
	"github.com/gw/optlog/internal/stream"
	"github.com/gw/optlog/internal/summary"
	"github.com/gw/optlog/internal/trade"
	"github.com/gw/optlog/internal/tradelog"
)

// tradeFlags binds one string flag per source field of a trade.
type tradeFlags struct {
	fs  *flag.FlagSet
	raw trade.Raw
}

func newTradeFlags(name string) *tradeFlags {
	tf := &tradeFlags{fs: flag.NewFlagSet("optlog "+name, flag.ContinueOnError)}
	tf.fs.SetOutput(os.Stderr)
	tf.fs.StringVar(&tf.raw.Ticker, "ticker", "", "underlying ticker")
	tf.fs.StringVar(&tf.raw.Strategy, "strategy", "", "strategy label, e.g. \"Covered Call\"")
	tf.fs.StringVar(&tf.raw.OpenDate, "open", "", "open date (YYYY-MM-DD)")
	tf.fs.StringVar(&tf.raw.CloseDate, "close", "", "close date (YYYY-MM-DD)")
	tf.fs.Func("strike", "strike price", fieldSetter(&tf.raw.Strike))
	tf.fs.Func("premium", "premium per share, negative for a debit", fieldSetter(&tf.raw.Premium))
	tf.fs.Func("buyback", "buyback cost per share", fieldSetter(&tf.raw.Buyback))
	tf.fs.Func("qty", "number of contracts", fieldSetter(&tf.raw.Qty))
	tf.fs.Func("commissions", "total commissions", fieldSetter(&tf.raw.Commissions))
	return tf
}

func fieldSetter(f *trade.Field) func(string) error {
	return func(s string) error {
		*f = trade.Field(s)
		return nil
	}
}

// set reports which trade flags were given on the command line.
func (tf *tradeFlags) set() map[string]bool {
	seen := make(map[string]bool)
	tf.fs.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	return seen
}

// overlay copies the given flags onto base.
func (tf *tradeFlags) overlay(base trade.Raw) trade.Raw {
	for name := range tf.set() {
		switch name {
		case "ticker":
			base.Ticker = tf.raw.Ticker
		case "strategy":
			base.Strategy = tf.raw.Strategy
		case "open":
			base.OpenDate = tf.raw.OpenDate
		case "close":
			base.CloseDate = tf.raw.CloseDate
		case "strike":
			base.Strike = tf.raw.Strike
		case "premium":
			base.Premium = tf.raw.Premium
		case "buyback":
			base.Buyback = tf.raw.Buyback
		case "qty":
			base.Qty = tf.raw.Qty
		case "commissions":
			base.Commissions = tf.raw.Commissions
		}
	}
	return base
}

func (a *app) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("optlog list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("n", 0, "show at most N trades (0 = all)")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	l, done, err := a.openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	records := l.List()
	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}
	if *asJSON {
		return writeJSON(os.Stdout, records)
	}
	report.Trades(os.Stdout, records)
	return nil
}

func (a *app) runAdd(ctx context.Context, args []string) error {
	tf := newTradeFlags("add")
	useDefaults := tf.fs.Bool("defaults", false, "start from the pre-filled sample trade")
	if err := tf.fs.Parse(args); err != nil {
		return err
	}

	var base trade.Raw
	if *useDefaults {
		base = trade.Defaults(time.Now())
	}
	r, err := trade.Normalize(tf.overlay(base))
	if err != nil {
		return err
	}

	l, done, err := a.openLedger(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	r, err = l.Insert(ctx, r)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s: %s net %s (%s)\n", r.ID, r.Ticker, report.Money(r.Net), report.Percent(r.Percent))
	return nil
}

func (a *app) runEdit(ctx context.Context, args []string) error {
	tf := newTradeFlags("edit")
	id := tf.fs.String("id", "", "trade ID")
	if err := tf.fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("-id required")
	}
	if len(tf.set()) == 0 {
		return errors.New("nothing to change")
	}

	l, done, err := a.openLedger(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	current, ok := l.Get(*id)
	if !ok {
		fmt.Printf("No trade with ID %s.\n", *id)
		return nil
	}
	next, err := trade.Normalize(tf.overlay(current.Raw()))
	if err != nil {
		return err
	}

	r, _, err := l.Edit(ctx, *id, patchFrom(next))
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s: %s net %s (%s)\n", r.ID, r.Ticker, report.Money(r.Net), report.Percent(r.Percent))
	return nil
}

func patchFrom(r trade.Record) ledger.Patch {
	return ledger.Patch{
		Ticker:      &r.Ticker,
		Strategy:    &r.Strategy,
		OpenDate:    &r.OpenDate,
		CloseDate:   &r.CloseDate,
		Strike:      &r.Strike,
		Premium:     &r.Premium,
		Buyback:     &r.Buyback,
		Qty:         &r.Qty,
		Commissions: &r.Commissions,
	}
}

func (a *app) runRemove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("at least one trade ID required")
	}

	l, done, err := a.openLedger(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	for _, id := range ids {
		removed, err := l.Remove(ctx, id)
		if err != nil {
			return err
		}
		if removed {
			fmt.Printf("Removed %s.\n", id)
		} else {
			fmt.Printf("No trade with ID %s.\n", id)
		}
	}
	return nil
}

func (a *app) runImport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: optlog import FILE")
	}

	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening csv: %w", err)
		}
		defer f.Close()
		in = f
	}

	l, done, err := a.openLedger(ctx, true)
	if err != nil {
		return err
	}
	defer done()

	res, err := l.ImportCSV(ctx, in)
	for _, rowErr := range res.Errors {
		fmt.Fprintf(os.Stderr, "skipped %v\n", rowErr)
	}
	if err != nil {
		return err
	}
	incomplete := 0
	for _, r := range res.Inserted {
		if !r.Finite() {
			incomplete++
		}
	}
	fmt.Printf("Imported %d trades, skipped %d rows", len(res.Inserted), len(res.Errors))
	if incomplete > 0 {
		fmt.Printf(", %d with unparseable strike or premium", incomplete)
	}
	fmt.Println(".")
	return nil
}

func (a *app) runSummary(ctx context.Context) error {
	l, done, err := a.openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	report.Summary(os.Stdout, summary.Summarize(l.List()))
	return nil
}

func (a *app) runMonthly(ctx context.Context) error {
	l, done, err := a.openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	report.Monthly(os.Stdout, summary.Monthly(l.List()))
	return nil
}

func (a *app) runSeries(ctx context.Context) error {
	l, done, err := a.openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	report.Series(os.Stdout, summary.Cumulative(l.List()))
	return nil
}

func (a *app) runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("optlog watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	target := fs.String("url", "", "stream URL (default derived from OPTLOG_REMOTE_URL or OPTLOG_HTTP_ADDR)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		u, err := streamURL(a.cfg)
		if err != nil {
			return err
		}
		*target = u
	}

	a.log.Info("watching", zap.String("url", *target))
	return stream.Watch(ctx, *target, a.log, func(u stream.Update) {
		line := fmt.Sprintf("%s  %-8s trades=%d", time.Now().Format("15:04:05"), u.Kind, u.Trades)
		if s := u.Summary; s != nil {
			total := "n/a"
			if s.TotalProfit != nil {
				total = report.Money(*s.TotalProfit)
			}
			line += fmt.Sprintf(" wins=%d losses=%d profit=%s win-rate=%s", s.Wins, s.Losses, total, report.Percent(s.WinRate))
		}
		fmt.Println(line)
	})
}

// streamURL derives the websocket endpoint of the server the CLI talks to.
func streamURL(cfg *config.Config) (string, error) {
	base := cfg.RemoteURL
	if base == "" {
		host := cfg.HTTPAddr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		base = "http://" + host
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/stream"
	return u.String(), nil
}

func (a *app) runDefaults() error {
	return writeJSON(os.Stdout, trade.Defaults(time.Now()))
}

func (a *app) runSync(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("optlog sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	to := fs.String("to", "", "destination store: file, sqlite or remote")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" || *to == a.cfg.Store {
		return fmt.Errorf("-to must name a store other than %q", a.cfg.Store)
	}

	src, err := tradelog.FromConfig(a.cfg, a.log)
	if err != nil {
		return err
	}
	defer src.Close()

	dstCfg := *a.cfg
	dstCfg.Store = *to
	dst, err := tradelog.FromConfig(&dstCfg, a.log)
	if err != nil {
		return err
	}
	defer dst.Close()

	copied, skipped, err := tradelog.Sync(ctx, src, dst, a.log)
	if err != nil {
		return err
	}
	fmt.Printf("Copied %d trades from %s to %s (%d skipped).\n", copied, a.cfg.Store, *to, skipped)
	return nil
}

func (a *app) runBackup(ctx context.Context) error {
	l, done, err := a.openLedger(ctx, false)
	if err != nil {
		return err
	}
	defer done()

	path, err := backup.NewSnapshotter(a.cfg.BackupDir, a.cfg.BackupKeep, l, a.log).Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot written to %s.\n", path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
