package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/superalgorithm/superalgorithm/internal/config"
	"github.com/superalgorithm/superalgorithm/internal/exchange/paper"
	"github.com/superalgorithm/superalgorithm/internal/journal"
	"github.com/superalgorithm/superalgorithm/internal/logger"
	"github.com/superalgorithm/superalgorithm/internal/order"
	"github.com/superalgorithm/superalgorithm/internal/version"
	"github.com/superalgorithm/superalgorithm/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// replayAction loads the run config, the feed and the order script, then
// replays them against the paper venue.
func replayAction(ctx context.Context, cmd *cli.Command) error {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	connector, err := cfg.Connector(log)
	if err != nil {
		return err
	}

	engine, ok := connector.(*paper.Engine)
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "replay needs the paper venue, config selects %s", cfg.Venue.Type)
	}

	var steps []Step
	if path := cmd.String("orders"); path != "" {
		steps, err = LoadScript(path)
		if err != nil {
			return err
		}
	}

	source, err := sourceFromFlags(cmd)
	if err != nil {
		return err
	}

	updates, closeFeed, err := source.Open(ctx, log)
	if err != nil {
		return err
	}

	defer closeFeed()

	if err := source.Seed(ctx, engine, log); err != nil {
		return err
	}

	manager := order.NewManager(engine, cfg.Manager(), log)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Replaying "+source.Format),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	log.Info("Replay started",
		zap.String("format", source.Format),
		zap.Strings("symbols", source.Symbols),
		zap.Int("steps", len(steps)),
		zap.String("strategy", cfg.Strategy.ID))

	replayer := NewReplayer(engine, manager, steps, bar, log)
	replayer.Live = source.Live()

	if replayer.Live {
		runCtx := ctx

		if d := cmd.Duration("duration"); d > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, d)

			defer cancel()
		}

		ctx = runCtx

		if cfg.ReconcileInterval > 0 {
			go func() {
				_ = manager.Run(runCtx, cfg.ReconcileInterval)
			}()
		}
	}

	summary, err := replayer.Run(ctx, updates)
	if err != nil {
		return err
	}

	summary.Print(os.Stdout)

	if path := cmd.String("fills-out"); path != "" {
		if _, err := ExportFills(journal.NewDuckDBWriter(path, log), summary.Fills); err != nil {
			return err
		}
	}

	return nil
}

// sourceFromFlags collects the feed flags into a Source.
func sourceFromFlags(cmd *cli.Command) (Source, error) {
	source := Source{
		Format:        cmd.String("feed-format"),
		Path:          cmd.String("feed"),
		Symbols:       cmd.StringSlice("symbols"),
		Interval:      cmd.String("interval"),
		BinanceURL:    cmd.String("binance-url"),
		PolygonKey:    cmd.String("polygon-api-key"),
		PolygonTicker: cmd.String("polygon-ticker"),
		SeedDepth:     int(cmd.Int("seed-depth")),
	}

	for name, target := range map[string]*time.Time{"from": &source.From, "to": &source.To} {
		raw := cmd.String(name)
		if raw == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Source{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid --%s", name)
		}

		*target = t
	}

	return source, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "replay",
		Usage:   "Replay a price feed and an order script against the paper venue",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the run configuration `FILE`",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "feed",
				Aliases: []string{"f"},
				Usage:   "Quote file with timestamp, symbol, bid, ask and last columns, or the stream endpoint of a live feed",
			},
			&cli.StringFlag{
				Name:  "feed-format",
				Usage: "Feed source, " + formatList(),
				Value: formatCSV,
			},
			&cli.StringSliceFlag{
				Name:  "symbols",
				Usage: "Symbols to replay as BASE/QUOTE; parquet feeds are filtered by them",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Start of a historical API feed (RFC3339)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "End of a historical API feed (RFC3339)",
			},
			&cli.StringFlag{
				Name:  "interval",
				Usage: "Bar size of a historical API feed, such as 1m, 1h or 1d",
				Value: "1m",
			},
			&cli.StringFlag{
				Name:  "binance-url",
				Usage: "Override the Binance REST endpoint",
			},
			&cli.StringFlag{
				Name:    "polygon-api-key",
				Usage:   "Polygon API key",
				Sources: cli.EnvVars("POLYGON_API_KEY"),
			},
			&cli.StringFlag{
				Name:  "polygon-ticker",
				Usage: "Polygon ticker of the replayed symbol, such as X:BTCUSD",
			},
			&cli.IntFlag{
				Name:  "seed-depth",
				Usage: "Binance depth levels loaded before following a live feed, 0 to skip",
				Value: 20,
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "Stop following a live feed after this long, 0 to run until interrupted",
			},
			&cli.StringFlag{
				Name:    "orders",
				Aliases: []string{"o"},
				Usage:   "Path to the YAML order script",
			},
			&cli.StringFlag{
				Name:  "fills-out",
				Usage: "Write the replay's fills to this parquet `FILE`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: replayAction,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
