// Package store persists yearly interval histories and the open interval.
//
// Two backends exist: one JSON file per calendar year (the historical on-disk
// format) and a single SQLite database. Both serialize cross-process writers
// through an advisory lock file in the data directory.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/logging"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store loads and saves interval histories sharded by UTC year.
type Store interface {
	// Load returns the stored intervals for year. A corrupt shard is
	// discarded and reported as empty.
	Load(ctx context.Context, year int) ([]interval.Interval, error)
	// Save replaces the shard for year, sorted by start.
	Save(ctx context.Context, year int, ivs []interval.Interval) error
	// Years lists the years with stored data, newest first.
	Years(ctx context.Context) ([]int, error)

	// LoadCurrent returns the open interval, or nil when tracking is stopped.
	LoadCurrent(ctx context.Context) (*interval.Open, error)
	// SaveCurrent persists the open interval; nil clears it.
	SaveCurrent(ctx context.Context, cur *interval.Open) error

	// WithLock runs fn while holding the data directory's advisory lock.
	WithLock(ctx context.Context, fn func() error) error

	// Location describes where data lives, for display.
	Location(year int) string
	Dir() string
	Close() error
}

// Options configures Open.
type Options struct {
	Backend string
	Dir     string
	Log     *logrus.Entry
}

// Open creates the data directory if needed and opens the chosen backend.
func Open(opts Options) (Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("store: empty data directory")
	}
	if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = logging.For("store")
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendJSON:
		return newJSONStore(opts.Dir, log), nil
	case BackendSQLite:
		return openSQLite(opts.Dir, log)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
}

// YearOf returns the UTC calendar year containing the epoch-millisecond ts.
func YearOf(ts int64) int {
	return time.UnixMilli(ts).UTC().Year()
}

// YearBounds returns [start, end) of a UTC calendar year in epoch milliseconds.
func YearBounds(year int) (int64, int64) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.UnixMilli(), start.AddDate(1, 0, 0).UnixMilli()
}

// ShardByYear splits ivs into per-year groups, cropping intervals that cross
// a year boundary so each shard only holds its own time.
func ShardByYear(ivs []interval.Interval) map[int][]interval.Interval {
	shards := make(map[int][]interval.Interval)
	for _, iv := range ivs {
		for year := YearOf(iv.Start); ; year++ {
			from, to := YearBounds(year)
			piece, ok := interval.CropToRange(iv, from, to)
			if !ok {
				break
			}
			shards[year] = append(shards[year], piece)
			if iv.End <= to {
				break
			}
		}
	}
	return shards
}

// sanitize drops records that violate interval invariants.
func sanitize(ivs []interval.Interval, log *logrus.Entry, source string) []interval.Interval {
	out := ivs[:0:0]
	for _, iv := range ivs {
		if err := iv.Validate(); err != nil {
			log.WithError(err).WithField("source", source).Warn("dropping invalid stored interval")
			continue
		}
		out = append(out, iv)
	}
	return out
}

func sortYearsDesc(years []int) []int {
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// quarantine moves a corrupt file aside so the next save starts clean.
func quarantine(path string, log *logrus.Entry, cause error) {
	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, aside); err != nil {
		log.WithError(err).WithField("path", path).Warn("could not move corrupt store aside")
		return
	}
	log.WithError(cause).WithFields(logrus.Fields{
		"path":  path,
		"moved": filepath.Base(aside),
	}).Warn("discarded corrupt store, starting from an empty history")
}
