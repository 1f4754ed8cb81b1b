// Package statslog persists a record of each completed analysis and serves
// aggregate usage statistics, adapted from the teacher's pgx-backed
// forensics store down to one table instead of a multi-table schema.
package statslog

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgxpool.Pool. Like the teacher's PostgresStore, absence of
// a connection is a documented operating mode, not a startup failure — the
// caller holds a nil *Store and every method becomes a no-op/unavailable
// response.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS analysis_requests (
	id UUID PRIMARY KEY,
	address TEXT NOT NULL,
	rpc_host TEXT NOT NULL,
	score INT NOT NULL,
	level TEXT NOT NULL,
	cached BOOLEAN NOT NULL,
	requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_analysis_requests_requested_at ON analysis_requests (requested_at);
`

// Connect opens the pool and initializes the schema.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL for request statistics")
	return &Store{pool: pool}, nil
}

// Close releases the pool. Safe to call on a nil *Store.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Record inserts one completed analysis request. Errors are logged, not
// returned — statistics logging is best-effort and never affects the
// response returned to the caller.
func (s *Store) Record(ctx context.Context, address, rpcHost string, score int, level string, cached bool) {
	if s == nil || s.pool == nil {
		return
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_requests (id, address, rpc_host, score, level, cached) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), address, rpcHost, score, level, cached,
	)
	if err != nil {
		log.Printf("statslog: failed to record analysis request: %v", err)
	}
}

// Summary is the aggregate view served by GET /api/v1/stats.
type Summary struct {
	TotalRequests int            `json:"totalRequests"`
	CacheHitRatio float64        `json:"cacheHitRatio"`
	AverageScore  float64        `json:"averageScore"`
	LevelCounts   map[string]int `json:"levelCounts"`
}

// GetSummary aggregates request counts, cache-hit ratio, average score, and
// a level breakdown. Returns an empty Summary (not an error) when no store
// is configured.
func (s *Store) GetSummary(ctx context.Context) (Summary, error) {
	summary := Summary{LevelCounts: make(map[string]int)}
	if s == nil || s.pool == nil {
		return summary, nil
	}

	var total, cached int
	var avgScore float64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN cached THEN 1 ELSE 0 END), 0), COALESCE(AVG(score), 0) FROM analysis_requests`,
	).Scan(&total, &cached, &avgScore)
	if err != nil {
		return summary, fmt.Errorf("failed to query summary: %w", err)
	}
	summary.TotalRequests = total
	summary.AverageScore = avgScore
	if total > 0 {
		summary.CacheHitRatio = float64(cached) / float64(total)
	}

	rows, err := s.pool.Query(ctx, `SELECT level, COUNT(*) FROM analysis_requests GROUP BY level`)
	if err != nil {
		return summary, fmt.Errorf("failed to query level breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return summary, err
		}
		summary.LevelCounts[level] = count
	}

	return summary, nil
}
