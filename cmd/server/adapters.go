package main

import (
	"context"
	"errors"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/repository/postgres"
	"github.com/ignite/lead-engine/internal/service/pool"
)

// poolReader adapts the pool repository's not-found sentinel to the
// admission gate's (nil, nil) contract, where a missing lead is a
// denial rather than an error.
type poolReader struct {
	repo *postgres.PoolRepo
}

func (p poolReader) GetByID(ctx context.Context, id string) (*domain.PoolEntry, error) {
	e, err := p.repo.GetByID(ctx, id)
	if errors.Is(err, pool.ErrNotFound) {
		return nil, nil
	}
	return e, err
}
