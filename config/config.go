// Package config loads tracker settings from flags and an optional yaml file.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"
	defaultDataFile   = "database.json"
)

// InvalidDateError reports a comparison date that is not a year, year-month
// or year-month-day.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q, expected YYYY, YYYY-MM or YYYY-MM-DD", e.Input)
}

// Config is the validated tracker configuration.
type Config struct {
	// Anchors are the currencies totals are reported in.
	Anchors []string
	// RouteAnchors is the priority order for routed conversion.
	RouteAnchors []string
	// DataFile is the snapshot history document path.
	DataFile string
	// GatherInterval is the minimum time between snapshots.
	GatherInterval time.Duration

	// NoGather skips gathering a new snapshot this run.
	NoGather bool
	// CompareDate overrides the older endpoint of the incremental report.
	CompareDate *time.Time
	// CompareDays looks the older endpoint back this many days from the
	// newest snapshot.
	CompareDays int
	// Setup runs the interactive configuration wizard instead of a report.
	Setup bool
}

type configYaml struct {
	Anchors      []string `yaml:"anchors"`
	RouteAnchors []string `yaml:"route_anchors"`
	DataFile     string   `yaml:"data_file"`
	// Duration string such as "1h" or "30m".
	GatherInterval string `yaml:"gather_interval"`
}

// Get parses the command line and merges it with the yaml config file.
func Get() (Config, error) {
	configPath := flag.String("config", defaultConfigPath, "path to yaml config")
	dataFile := flag.String("data", "", "snapshot history file, overrides config")
	noGather := flag.Bool("no-gather", false, "do not gather a new snapshot")
	date := flag.String("date", "", "compare against the snapshot at this date (YYYY, YYYY-MM or YYYY-MM-DD)")
	days := flag.Int("days", 0, "compare against the snapshot this many days before the newest one")
	setup := flag.Bool("setup", false, "run the interactive configuration wizard")
	flag.Parse()

	cfg := Config{
		Anchors:        []string{"BTC", "USDC"},
		RouteAnchors:   []string{"USDC", "USDT"},
		DataFile:       defaultDataFile,
		GatherInterval: time.Hour,
		NoGather:       *noGather,
		CompareDays:    *days,
		Setup:          *setup,
	}

	if err := applyYaml(&cfg, *configPath); err != nil {
		return Config{}, err
	}

	if *dataFile != "" {
		cfg.DataFile = *dataFile
	}

	if *date != "" {
		parsed, err := ParseCompareDate(*date)
		if err != nil {
			return Config{}, err
		}
		cfg.CompareDate = &parsed
	}

	if *days < 0 {
		return Config{}, errors.Errorf("invalid --days provided, --days=%d", *days)
	}

	return cfg, nil
}

// A missing config file at the default location means defaults; an explicit
// --config that does not exist is an error.
func applyYaml(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) && path == defaultConfigPath {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}

	var tmp configYaml
	if err := yaml.Unmarshal(raw, &tmp); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}

	if len(tmp.Anchors) > 0 {
		cfg.Anchors = tmp.Anchors
	}
	if len(tmp.RouteAnchors) > 0 {
		cfg.RouteAnchors = tmp.RouteAnchors
	}
	if tmp.DataFile != "" {
		cfg.DataFile = tmp.DataFile
	}
	if tmp.GatherInterval != "" {
		interval, err := time.ParseDuration(tmp.GatherInterval)
		if err != nil {
			return errors.Wrapf(err, "parse gather_interval in %s", path)
		}
		cfg.GatherInterval = interval
	}

	return nil
}

// ParseCompareDate parses a user-supplied comparison date as a year,
// year-month or year-month-day, without partial interpretation.
func ParseCompareDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDateError{Input: s}
}
