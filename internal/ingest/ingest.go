// Package ingest loads recipe nutrition facts from a CSV or XLSX export into
// the recipe store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"macro-meal-planner/internal/recipe"
)

// Default calorie window, lower bound inclusive and upper bound exclusive.
const (
	DefaultMinCalories = 385
	DefaultMaxCalories = 1501
)

// Skip reasons reported in Stats.Skipped.
const (
	SkipMissingValue   = "missing value"
	SkipEmptyTitle     = "empty title"
	SkipNegative       = "negative value"
	SkipCalorieWindow  = "calories outside window"
	SkipNonPositiveMac = "protein or fat not positive"
)

// ErrLocked is returned when another ingestion holds the lock.
var ErrLocked = errors.New("another ingestion is already running")

// Filter decides which rows are worth keeping.
type Filter struct {
	// Disabled keeps every well-formed, non-negative row.
	Disabled    bool
	MinCalories float64
	MaxCalories float64
}

// DefaultFilter returns the standard calorie window.
func DefaultFilter() Filter {
	return Filter{MinCalories: DefaultMinCalories, MaxCalories: DefaultMaxCalories}
}

// reject returns the reason rec is filtered out, or "" to keep it.
func (f Filter) reject(rec recipe.Recipe) string {
	if rec.Calories < 0 || rec.Protein < 0 || rec.Fat < 0 || rec.Carbs < 0 {
		return SkipNegative
	}
	if f.Disabled {
		return ""
	}
	if rec.Calories < f.MinCalories || rec.Calories >= f.MaxCalories {
		return SkipCalorieWindow
	}
	if rec.Protein <= 0 || rec.Fat <= 0 {
		return SkipNonPositiveMac
	}
	return ""
}

// Stats summarises one ingestion run.
type Stats struct {
	Read       int
	Inserted   int
	Duplicates int
	Skipped    map[string]int
}

// TotalSkipped sums the skip counters.
func (s Stats) TotalSkipped() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "read %d rows: %d inserted, %d duplicates, %d skipped",
		s.Read, s.Inserted, s.Duplicates, s.TotalSkipped())
	reasons := make([]string, 0, len(s.Skipped))
	for r := range s.Skipped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(&b, "\n  %s: %d", r, s.Skipped[r])
	}
	return b.String()
}

// RecipeSaver is the write side of the recipe repository.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) (bool, error)
}

// Options configures an Ingester.
type Options struct {
	Filter Filter
	// LockPath, when set, is held for the duration of a run.
	LockPath string
}

// Ingester parses recipe tables and stores the rows that pass the filter.
type Ingester struct {
	store  RecipeSaver
	opts   Options
	logger *zap.Logger
}

// NewIngester creates a new Ingester.
func NewIngester(store RecipeSaver, opts Options, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Filter == (Filter{}) {
		opts.Filter = DefaultFilter()
	}
	return &Ingester{store: store, opts: opts, logger: logger}
}

// IngestFile loads path, picking the format from its extension.
func (in *Ingester) IngestFile(ctx context.Context, path string) (Stats, error) {
	unlock, err := in.lock()
	if err != nil {
		return Stats{}, err
	}
	defer unlock()

	rows, closeFn, err := openRows(path)
	if err != nil {
		return Stats{}, err
	}
	defer closeFn()

	in.logger.Info("ingesting recipes", zap.String("path", path))
	return in.ingest(ctx, rows)
}

// IngestCSV loads CSV data from r.
func (in *Ingester) IngestCSV(ctx context.Context, r io.Reader) (Stats, error) {
	unlock, err := in.lock()
	if err != nil {
		return Stats{}, err
	}
	defer unlock()
	return in.ingest(ctx, newCSVReader(r))
}

func (in *Ingester) lock() (func(), error) {
	if in.opts.LockPath == "" {
		return func() {}, nil
	}
	fl := flock.New(in.opts.LockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, in.opts.LockPath)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			in.logger.Warn("failed to release ingest lock", zap.Error(err))
		}
	}, nil
}

func (in *Ingester) ingest(ctx context.Context, rows rowReader) (Stats, error) {
	stats := Stats{Skipped: map[string]int{}}

	header, err := rows.Read()
	if err == io.EOF {
		return stats, errors.New("input is empty")
	}
	if err != nil {
		return stats, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return stats, err
	}

	line := 1
	for {
		record, err := rows.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return stats, fmt.Errorf("read line %d: %w", line, err)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Read++

		rec, reason := parseRecord(record, cols)
		if reason == "" {
			reason = in.opts.Filter.reject(rec)
		}
		if reason != "" {
			stats.Skipped[reason]++
			in.logger.Debug("skipping row", zap.Int("line", line), zap.String("reason", reason))
			continue
		}

		inserted, err := in.store.Save(ctx, rec)
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Duplicates++
		}
	}

	in.logger.Info("ingestion finished",
		zap.Int("read", stats.Read),
		zap.Int("inserted", stats.Inserted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skipped", stats.TotalSkipped()),
	)
	return stats, nil
}

// parseRecord extracts a recipe from record, or returns a skip reason.
func parseRecord(record []string, cols map[string]int) (recipe.Recipe, string) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var facts [3]float64
	for i, name := range []string{"calories", "protein", "fat"} {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return recipe.Recipe{}, SkipMissingValue
		}
		facts[i] = v
	}

	title := field("title")
	if title == "" {
		return recipe.Recipe{}, SkipEmptyTitle
	}
	return recipe.New(title, facts[0], facts[1], facts[2]), ""
}
