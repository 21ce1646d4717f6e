package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dropkick0/ai-call-agent/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS call_summaries (
    id                TEXT PRIMARY KEY,
    call_id           TEXT NOT NULL,
    started_at        TIMESTAMPTZ,
    ended_at          TIMESTAMPTZ,
    duration_seconds  DOUBLE PRECISION NOT NULL,
    transcripts       INTEGER NOT NULL,
    tps               DOUBLE PRECISION NOT NULL,
    avg_latency_ms    DOUBLE PRECISION NOT NULL,
    guardrail_rejects BIGINT NOT NULL,
    policy_rejects    BIGINT NOT NULL,
    state_violations  BIGINT NOT NULL,
    calendar_errors   BIGINT NOT NULL,
    final_state       TEXT NOT NULL
)`

// Store writes call summaries through a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// SaveSummary inserts one call summary.
func (s *Store) SaveSummary(ctx context.Context, sum report.Summary) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO call_summaries (
			id, call_id, started_at, ended_at, duration_seconds, transcripts,
			tps, avg_latency_ms, guardrail_rejects, policy_rejects,
			state_violations, calendar_errors, final_state
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		sum.ReportID,
		sum.CallID,
		sum.StartTime,
		sum.EndTime,
		sum.Duration.Seconds(),
		sum.Transcripts,
		sum.TPS,
		float64(sum.AvgLatency.Milliseconds()),
		sum.GuardrailRejects,
		sum.PolicyRejects,
		sum.StateViolations,
		sum.CalendarErrors,
		sum.FinalState,
	)
	if err != nil {
		return fmt.Errorf("failed to save call summary: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
