// Package history owns the ordered snapshot list: loading and saving it,
// deciding when a new snapshot is due, and selecting snapshots for growth
// comparison.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"binance-portfolio-tracker/internal/domain"
	"binance-portfolio-tracker/internal/services/venue"
)

// DefaultGatherInterval is the minimum age of the newest snapshot before a
// new one is gathered.
const DefaultGatherInterval = time.Hour

// Store persists the snapshot history document.
type Store interface {
	Load() (domain.Document, error)
	Save(domain.Document) error
}

// Annotator decorates freshly gathered positions with trend annotations.
type Annotator interface {
	Annotate(ctx context.Context, pos *domain.Position)
}

// DateNotFoundError reports a comparison date that predates all recorded
// snapshots.
type DateNotFoundError struct {
	Requested time.Time
	Earliest  time.Time
}

func (e *DateNotFoundError) Error() string {
	return fmt.Sprintf("no snapshot at or before %s, earliest recorded is %s",
		e.Requested.Format("2006-01-02"), e.Earliest.Format(domain.TimeLayout))
}

// Config tunes snapshot gathering and valuation.
type Config struct {
	// Anchors are the currencies snapshot totals are reported in.
	Anchors []string
	// RouteAnchors is the priority order for routed conversion.
	RouteAnchors []string
	// GatherInterval is the minimum time between snapshots.
	GatherInterval time.Duration
}

// History is the ordered collection of snapshots. It exclusively owns the
// snapshot list; snapshots are appended, never mutated or removed.
type History struct {
	cfg      Config
	api      venue.API
	store    Store
	annotate Annotator
	logger   *zap.Logger

	now       func() time.Time
	snapshots []*domain.Snapshot
}

// New builds a History. The annotator may be nil to skip trend annotations.
func New(cfg Config, api venue.API, store Store, annotate Annotator, logger *zap.Logger) *History {
	if len(cfg.Anchors) == 0 {
		cfg.Anchors = []string{"BTC", "USDC"}
	}
	if cfg.GatherInterval <= 0 {
		cfg.GatherInterval = DefaultGatherInterval
	}
	return &History{
		cfg:      cfg,
		api:      api,
		store:    store,
		annotate: annotate,
		logger:   logger,
		now:      time.Now,
	}
}

// Load reads the persisted history into memory, replacing any current list.
func (h *History) Load() error {
	doc, err := h.store.Load()
	if err != nil {
		return err
	}

	snapshots := make([]*domain.Snapshot, 0, len(doc.Snapshots))
	for _, snapDoc := range doc.Snapshots {
		snap, err := domain.SnapshotFromDocument(snapDoc)
		if err != nil {
			return errors.Wrap(err, "load snapshot history")
		}
		snapshots = append(snapshots, snap)
	}

	h.snapshots = snapshots
	h.sortByTime()
	h.logger.Info("loaded snapshot history", zap.Int("snapshots", len(h.snapshots)))

	return nil
}

// Save rewrites the persisted history from the in-memory list.
func (h *History) Save() error {
	doc := domain.Document{Version: domain.DocumentVersion}
	for _, snap := range h.snapshots {
		doc.Snapshots = append(doc.Snapshots, snap.ToDocument())
	}
	return h.store.Save(doc)
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	return len(h.snapshots)
}

// Earliest returns the oldest snapshot, or nil when history is empty.
func (h *History) Earliest() *domain.Snapshot {
	if len(h.snapshots) == 0 {
		return nil
	}
	h.sortByTime()
	return h.snapshots[0]
}

// Latest returns the newest snapshot, or nil when history is empty.
func (h *History) Latest() *domain.Snapshot {
	if len(h.snapshots) == 0 {
		return nil
	}
	h.sortByTime()
	return h.snapshots[len(h.snapshots)-1]
}

// FindByDate returns the snapshot with the latest timestamp at or before the
// given date, or nil when the date predates all history.
func (h *History) FindByDate(date time.Time) *domain.Snapshot {
	h.sortByTime()

	var found *domain.Snapshot
	for _, snap := range h.snapshots {
		if snap.Timestamp <= date.Unix() {
			found = snap
			continue
		}
		break
	}
	return found
}

// ComparisonSets selects the snapshots for the two standard reports:
// newest-vs-earliest and newest-vs-previous. A non-nil overrideDate or a
// positive lookbackDays replaces the previous endpoint.
func (h *History) ComparisonSets(overrideDate *time.Time, lookbackDays int) (earliest, before, latest *domain.Snapshot, err error) {
	if len(h.snapshots) == 0 {
		return nil, nil, nil, errors.New("no snapshots recorded yet")
	}
	h.sortByTime()

	earliest = h.snapshots[0]
	latest = h.snapshots[len(h.snapshots)-1]
	before = latest
	if len(h.snapshots) > 1 {
		before = h.snapshots[len(h.snapshots)-2]
	}

	target := time.Time{}
	switch {
	case overrideDate != nil:
		target = *overrideDate
	case lookbackDays > 0:
		target = time.Unix(latest.Timestamp, 0).AddDate(0, 0, -lookbackDays)
	default:
		return earliest, before, latest, nil
	}

	found := h.FindByDate(target)
	if found == nil {
		return nil, nil, nil, &DateNotFoundError{
			Requested: target,
			Earliest:  time.Unix(earliest.Timestamp, 0),
		}
	}

	return earliest, found, latest, nil
}

func (h *History) sortByTime() {
	sort.SliceStable(h.snapshots, func(i, j int) bool {
		return h.snapshots[i].Timestamp < h.snapshots[j].Timestamp
	})
}
