package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"binance-portfolio-tracker/config"
	"binance-portfolio-tracker/internal/history"
	"binance-portfolio-tracker/internal/services/growth"
	"binance-portfolio-tracker/internal/services/report"
	"binance-portfolio-tracker/internal/services/venue"
	"binance-portfolio-tracker/internal/setup"
	"binance-portfolio-tracker/internal/storage/snapshots"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.As(err, new(*config.InvalidDateError)) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	conf, err := config.Get()
	if err != nil {
		return err
	}

	if conf.Setup {
		return setup.RunTUI()
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return errors.Wrap(err, "create logger")
	}
	defer logger.Sync()

	apiKey := os.Getenv("BINANCE_API_KEY")
	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return errors.New("BINANCE_API_KEY and BINANCE_API_SECRET must be set, run with --setup to configure")
	}

	ctx := context.Background()
	api := venue.NewBinance(apiKey, apiSecret, logger)
	store := snapshots.NewStore(conf.DataFile)

	hist := history.New(history.Config{
		Anchors:        conf.Anchors,
		RouteAnchors:   conf.RouteAnchors,
		GatherInterval: conf.GatherInterval,
	}, api, store, growth.NewAnnotator(api, logger), logger)

	if err := hist.Load(); err != nil {
		return err
	}

	if !conf.NoGather {
		gathered, err := hist.GatherIfDue(ctx)
		if err != nil {
			return errors.Wrap(err, "gather snapshot")
		}
		if gathered {
			if err := hist.Save(); err != nil {
				return errors.Wrap(err, "save snapshot history")
			}
		}
	}

	earliest, before, latest, err := hist.ComparisonSets(conf.CompareDate, conf.CompareDays)
	if err != nil {
		return err
	}

	out := os.Stdout
	anchor := conf.Anchors[0]
	report.Section(out, fmt.Sprintf("Snapshots: %d", hist.Len()))
	report.Summary(out, "Newest", latest, anchor)
	report.Summary(out, "Older", before, anchor)
	report.Summary(out, "Earliest", earliest, anchor)

	report.Render(out, "Lifetime growth", report.Compare(latest, earliest, conf.Anchors))
	report.Render(out, "Incremental growth", report.Compare(latest, before, conf.Anchors))

	return nil
}
