package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naramarket/naramarket-mcp/internal/model"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// callRepository is the implementation of ICallRepository.
type callRepository struct {
	pool *pgxpool.Pool
}

func NewCallRepository(pool *pgxpool.Pool) ICallRepository {
	return &callRepository{pool: pool}
}

// Record inserts one upstream call into the call log.
func (r *callRepository) Record(ctx context.Context, rec *model.CallRecord) error {
	query := `
		INSERT INTO upstream_calls (id, endpoint, method, url, params, status_code, attempts, duration_ms, cached, error, called_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	params, err := json.Marshal(paramsOrEmpty(rec.Params))
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.Endpoint,
		rec.Method,
		rec.URL,
		params,
		rec.StatusCode,
		rec.Attempts,
		rec.DurationMs,
		rec.Cached,
		rec.Error,
		rec.CalledAt,
	)
	return err
}

// Recent returns the latest calls, newest first.
func (r *callRepository) Recent(ctx context.Context, limit int) ([]*model.CallRecord, error) {
	query := `
		SELECT id, endpoint, method, url, params, status_code, attempts, duration_ms, cached, error, called_at
		FROM upstream_calls
		ORDER BY called_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.CallRecord{}
	for rows.Next() {
		var (
			rec    model.CallRecord
			params []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Endpoint,
			&rec.Method,
			&rec.URL,
			&params,
			&rec.StatusCode,
			&rec.Attempts,
			&rec.DurationMs,
			&rec.Cached,
			&rec.Error,
			&rec.CalledAt,
		); err != nil {
			return nil, err
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rec.Params); err != nil {
				return nil, fmt.Errorf("failed to decode params of call %s: %w", rec.ID, err)
			}
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// ClampLimit maps a requested page size onto the range Recent accepts.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	}
	return limit
}

func paramsOrEmpty(p map[string]string) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return p
}
