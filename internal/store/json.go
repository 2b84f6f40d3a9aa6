package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/worktime/internal/interval"
)

const (
	yearFilePattern = ".time-tracker-%d.json"
	currentFile     = ".time-tracker-current.json"
)

var yearFileRe = regexp.MustCompile(`^\.time-tracker-(\d{4,})\.json$`)

// Record is the persisted shape of an interval. End is null for the open
// interval.
type Record struct {
	Start     int64  `json:"start"`
	End       *int64 `json:"end"`
	Workspace string `json:"workspace"`
}

// ToRecord converts a closed interval to its persisted shape.
func ToRecord(iv interval.Interval) Record {
	end := iv.End
	return Record{Start: iv.Start, End: &end, Workspace: iv.Labels.String()}
}

// Interval converts a closed record back to an interval.
func (r Record) Interval() (interval.Interval, error) {
	if r.End == nil {
		return interval.Interval{}, fmt.Errorf("%w: record at %d has no end", interval.ErrInvalidInterval, r.Start)
	}
	iv := interval.Interval{Start: r.Start, End: *r.End, Labels: interval.ParseLabels(r.Workspace)}
	return iv, iv.Validate()
}

// JSONFiles stores one JSON array per UTC year in the data directory.
type JSONFiles struct {
	dir  string
	lock *fileLock
	log  *logrus.Entry
}

func newJSONStore(dir string, log *logrus.Entry) *JSONFiles {
	return &JSONFiles{dir: dir, lock: newFileLock(dir), log: log.WithField("backend", BackendJSON)}
}

func (j *JSONFiles) Dir() string { return j.dir }

// Location returns the shard path for year.
func (j *JSONFiles) Location(year int) string {
	return filepath.Join(j.dir, fmt.Sprintf(yearFilePattern, year))
}

func (j *JSONFiles) Close() error { return nil }

func (j *JSONFiles) WithLock(ctx context.Context, fn func() error) error {
	return j.lock.with(ctx, fn)
}

// Load reads a year shard. A missing file is an empty year; an unparseable
// one is moved aside.
func (j *JSONFiles) Load(_ context.Context, year int) ([]interval.Interval, error) {
	path := j.Location(year)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []Record
	if err := sonic.Unmarshal(data, &records); err != nil {
		quarantine(path, j.log, err)
		return nil, nil
	}

	ivs := make([]interval.Interval, 0, len(records))
	for _, r := range records {
		iv, err := r.Interval()
		if err != nil {
			j.log.WithError(err).WithField("source", path).Warn("dropping invalid stored interval")
			continue
		}
		ivs = append(ivs, iv)
	}
	return ivs, nil
}

// Save writes the year shard sorted by start, replacing it atomically.
func (j *JSONFiles) Save(_ context.Context, year int, ivs []interval.Interval) error {
	sorted := interval.SortByStart(ivs)
	records := make([]Record, len(sorted))
	for i, iv := range sorted {
		records[i] = ToRecord(iv)
	}
	data, err := sonic.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding %d: %w", year, err)
	}
	return writeAtomic(j.Location(year), data)
}

// Years scans the data directory for year shards.
func (j *JSONFiles) Years(context.Context) ([]int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, err
	}
	var years []int
	for _, e := range entries {
		m := yearFileRe.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	return sortYearsDesc(years), nil
}

func (j *JSONFiles) currentPath() string {
	return filepath.Join(j.dir, currentFile)
}

func (j *JSONFiles) LoadCurrent(context.Context) (*interval.Open, error) {
	path := j.currentPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var r Record
	if err := sonic.Unmarshal(data, &r); err != nil {
		quarantine(path, j.log, err)
		return nil, nil
	}
	labels := interval.ParseLabels(r.Workspace)
	if len(labels) == 0 {
		j.log.WithField("source", path).Warn("dropping current interval without a workspace")
		return nil, nil
	}
	return &interval.Open{Start: r.Start, Labels: labels}, nil
}

func (j *JSONFiles) SaveCurrent(_ context.Context, cur *interval.Open) error {
	path := j.currentPath()
	if cur == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := sonic.Marshal(Record{Start: cur.Start, Workspace: cur.Labels.String()})
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// writeAtomic writes data to a sibling temp file and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
