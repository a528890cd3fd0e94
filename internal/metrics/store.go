package metrics

import (
	"context"
	"fmt"
	"time"

	"macro-meal-planner/internal/database"
)

// timeLayout sorts lexically in time order, which the range queries rely on.
const timeLayout = "2006-01-02T15:04:05Z"

// SolveMetric records metadata for a single day's solve.
type SolveMetric struct {
	RunID      string
	Day        int
	Candidates int
	Status     string
	Selected   int
	Nodes      int
	LatencyMS  int64
	Timestamp  time.Time
}

// Store handles persistence of solve metrics.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m SolveMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	_, err := s.db.Execute(ctx, `
		INSERT INTO solve_metrics(run_id, day, candidates, status, selected, nodes, latency_ms, recorded_at)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RunID, m.Day, m.Candidates, m.Status, m.Selected, m.Nodes, m.LatencyMS, ts.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record solve metric: %w", err)
	}
	return nil
}

// DailySummary aggregates solves recorded on one UTC day.
type DailySummary struct {
	Date         string
	Solves       int
	Optimal      int
	AvgLatencyMS float64
	TotalNodes   int64
}

// GetDailySummary retrieves per-day aggregates for the last N days, newest
// first.
func (s *Store) GetDailySummary(ctx context.Context, days int) ([]DailySummary, error) {
	since := s.now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	res, err := s.db.Execute(ctx, `
		SELECT substr(recorded_at, 1, 10) AS solve_day,
			COUNT(*),
			SUM(CASE WHEN status = 'optimal' THEN 1 ELSE 0 END),
			CAST(AVG(latency_ms) AS DOUBLE PRECISION),
			SUM(nodes)
		FROM solve_metrics
		WHERE recorded_at >= ?
		GROUP BY substr(recorded_at, 1, 10)
		ORDER BY solve_day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise solve metrics: %w", err)
	}

	results := make([]DailySummary, 0, len(res.Rows))
	for _, row := range res.Rows {
		var d DailySummary
		var solves, optimal int64
		if d.Date, err = database.String(row[0]); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		if solves, err = database.Int64(row[1]); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if optimal, err = database.Int64(row[2]); err != nil {
			return nil, fmt.Errorf("scan optimal count: %w", err)
		}
		if d.AvgLatencyMS, err = database.Float64(row[3]); err != nil {
			return nil, fmt.Errorf("scan latency: %w", err)
		}
		if d.TotalNodes, err = database.Int64(row[4]); err != nil {
			return nil, fmt.Errorf("scan nodes: %w", err)
		}
		d.Solves, d.Optimal = int(solves), int(optimal)
		results = append(results, d)
	}
	return results, nil
}

// Cleanup removes records older than the specified number of days and
// reports how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := s.now().UTC().AddDate(0, 0, -olderThanDays).Format(timeLayout)
	res, err := s.db.Execute(ctx, "DELETE FROM solve_metrics WHERE recorded_at < ? RETURNING id", threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up solve metrics: %w", err)
	}
	return int64(len(res.Rows)), nil
}
