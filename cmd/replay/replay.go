package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/superalgorithm/superalgorithm/internal/exchange/paper"
	"github.com/superalgorithm/superalgorithm/internal/feed"
	"github.com/superalgorithm/superalgorithm/internal/journal"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/marketdata"
	"github.com/superalgorithm/superalgorithm/internal/order"
	"github.com/superalgorithm/superalgorithm/internal/types"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"go.uber.org/zap"
)

// Replayer drives the paper venue with a feed and runs scripted order
// actions through the order manager as the feed clock passes them.
type Replayer struct {
	engine  *paper.Engine
	manager *order.Manager
	tracker *marketdata.Tracker
	steps   []Step
	logger  *logger.Logger
	bar     *progressbar.ProgressBar
	// Live follows an unbounded feed: stale updates are skipped and the run
	// ends when the context does.
	Live bool
}

// Summary is the outcome of a replay.
type Summary struct {
	Updates   int
	Skipped   []Step
	Fills     []types.Fill
	Orders    []types.Order
	Positions []types.Position
	Marks     map[string]decimal.Decimal
	Balances  map[string]types.Balance
	Anomalies []types.Anomaly
	Session   types.SessionInfo
}

func NewReplayer(engine *paper.Engine, manager *order.Manager, steps []Step, bar *progressbar.ProgressBar, log *logger.Logger) *Replayer {
	return &Replayer{
		engine:  engine,
		manager: manager,
		tracker: marketdata.NewTracker(),
		steps:   steps,
		logger:  log.Named("replay"),
		bar:     bar,
	}
}

// Run applies every update, running the steps due by the feed clock right
// after it. The feed clock is the latest timestamp seen across all symbols.
// Steps later than the last update are reported as skipped.
func (r *Replayer) Run(ctx context.Context, updates feed.Feed) (Summary, error) {
	var summary Summary

	next := 0
	tapped := func(yield func(feed.Update, error) bool) {
		for update, err := range updates {
			if !yield(update, err) || err != nil {
				return
			}

			// the engine has applied update
			summary.Updates++

			if r.bar != nil {
				_ = r.bar.Add(1)
			}

			r.observe(update)

			for next < len(r.steps) && !r.steps[next].At.After(r.tracker.Now()) {
				r.run(ctx, r.steps[next])
				next++
			}
		}
	}

	var err error
	if r.Live {
		err = r.engine.Follow(ctx, tapped)
	} else {
		err = r.engine.Replay(ctx, tapped)
	}

	if err != nil {
		if ctx.Err() != nil && !r.Live {
			return summary, errors.Wrap(errors.ErrCodeTimeout, "replay interrupted", err)
		}

		return summary, err
	}

	if r.bar != nil {
		_ = r.bar.Finish()
	}

	summary.Skipped = r.steps[next:]

	// A live run ends with its context; the final accounting still needs the venue.
	final := context.WithoutCancel(ctx)

	if err := r.manager.Reconcile(final); err != nil {
		r.logger.Warn("Final reconcile failed", zap.Error(err))
	}

	balances, err := r.manager.Balances(final)
	if err != nil {
		return summary, err
	}

	summary.Balances = balances
	summary.Anomalies = r.manager.Anomalies()
	summary.Orders = append(r.manager.History(), r.manager.Active()...)
	summary.Positions = r.manager.Positions()
	summary.Session = r.manager.Session()
	summary.Marks = make(map[string]decimal.Decimal)

	for _, symbol := range r.tracker.Symbols() {
		if mark, err := r.tracker.Mark(symbol); err == nil {
			summary.Marks[symbol] = mark
		}
	}

	for _, n := range r.manager.Events(0) {
		if n.Kind == order.EventFill {
			summary.Fills = append(summary.Fills, *n.Fill)
		}
	}

	return summary, nil
}

// observe records the update's prices in the tracker that serves as the
// step clock and the mark source.
func (r *Replayer) observe(update feed.Update) {
	ticker := types.Ticker{Symbol: update.Symbol, Timestamp: update.Timestamp}

	switch {
	case update.Ticker != nil:
		ticker = *update.Ticker
		ticker.Timestamp = update.Timestamp
	case update.Book != nil:
		if len(update.Book.Bids) > 0 {
			ticker.Bid = update.Book.Bids[0].Price
		}

		if len(update.Book.Asks) > 0 {
			ticker.Ask = update.Book.Asks[0].Price
		}
	}

	if err := r.tracker.Update(ticker); err != nil {
		r.logger.Debug("Stale update not tracked", zap.String("symbol", update.Symbol), zap.Error(err))
	}
}

// run executes one step. Failures are logged and leave the order in the
// manager's state; they never stop the replay.
func (r *Replayer) run(ctx context.Context, step Step) {
	log := r.logger.WithFields(
		zap.String("action", string(step.Action)),
		zap.Time("at", step.At),
	)

	switch step.Action {
	case ActionSubmit:
		req, err := step.Request()
		if err != nil {
			log.Warn("Invalid scripted order", zap.Error(err))

			return
		}

		id, err := r.manager.Submit(ctx, req)
		if err != nil {
			log.Warn("Scripted order failed", zap.String("client_order_id", id), zap.Error(err))
		}
	case ActionCancel:
		if err := r.manager.Cancel(ctx, step.ClientOrderID); err != nil {
			log.Warn("Scripted cancel failed", zap.String("client_order_id", step.ClientOrderID), zap.Error(err))
		}
	}
}

// Print writes a human readable report of the summary.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Replayed %d updates\n", s.Updates)

	fmt.Fprintf(w, "\nFills (%d):\n", len(s.Fills))

	for _, f := range s.Fills {
		fmt.Fprintf(w, "  %s %s %s %s @ %s fee %s %s [%s] %s\n",
			f.Timestamp.Format(time.RFC3339), f.ClientOrderID, f.Side, f.Quantity, f.Price,
			f.Fee, f.FeeAsset, f.Liquidity, f.Symbol)
	}

	fmt.Fprintf(w, "\nOrders (%d):\n", len(s.Orders))

	for _, o := range s.Orders {
		fmt.Fprintf(w, "  %s %s %s %s/%s avg %s", o.ClientOrderID, o.Symbol, o.Status, o.FilledQuantity, o.Quantity, o.AveragePrice)

		if o.Reason != "" {
			fmt.Fprintf(w, " (%s)", o.Reason)
		}

		fmt.Fprintln(w)
	}

	if len(s.Positions) > 0 {
		fmt.Fprintf(w, "\nPositions (%d):\n", len(s.Positions))

		for _, p := range s.Positions {
			fmt.Fprintf(w, "  %s %s %s avg %s realized %s", p.Symbol, p.Side(), p.Quantity, p.AverageEntryPrice, p.RealizedPnL)

			if mark, ok := s.Marks[p.Symbol]; ok && !p.Quantity.IsZero() {
				fmt.Fprintf(w, " unrealized %s @ %s", p.UnrealizedPnL(mark), mark)
			}

			fmt.Fprintln(w)
		}
	}

	if len(s.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped %d steps after the end of the feed\n", len(s.Skipped))
	}

	if len(s.Anomalies) > 0 {
		fmt.Fprintf(w, "\nAnomalies (%d):\n", len(s.Anomalies))

		for _, a := range s.Anomalies {
			fmt.Fprintf(w, "  %s %s: %s\n", a.ClientOrderID, a.Kind, a.Detail)
		}
	}

	assets := make([]string, 0, len(s.Balances))
	for asset := range s.Balances {
		assets = append(assets, asset)
	}

	sort.Strings(assets)

	if s.Session.Venue != "" {
		fmt.Fprintf(w, "\nVenue %s %s, %d failures\n", s.Session.Venue, s.Session.Status, s.Session.Failures)
	}

	fmt.Fprintln(w, "\nBalances:")

	for _, asset := range assets {
		b := s.Balances[asset]
		fmt.Fprintf(w, "  %s free %s locked %s\n", asset, b.Free, b.Locked)
	}
}

// ExportFills writes fills through w and returns the output path.
func ExportFills(w journal.FillWriter, fills []types.Fill) (string, error) {
	if err := w.Initialize(); err != nil {
		return "", err
	}

	defer func() { _ = w.Close() }()

	for _, f := range fills {
		if err := w.Write(f); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}
