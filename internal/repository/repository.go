package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naramarket/naramarket-mcp/internal/model"
)

type ICallRepository interface {
	Record(ctx context.Context, rec *model.CallRecord) error
	Recent(ctx context.Context, limit int) ([]*model.CallRecord, error)
}

type IRepository interface {
	Call() ICallRepository
	Ping(ctx context.Context) error
}

type Repository struct {
	pool *pgxpool.Pool
	call ICallRepository
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
		call: NewCallRepository(pool),
	}
}

func (r *Repository) Call() ICallRepository {
	return r.call
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
