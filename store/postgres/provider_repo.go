package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/bigmini/auth-service/providers"
)

var _ providers.Repo = (*ProviderRepo)(nil)

type ProviderRepo struct {
	pool *pgxpool.Pool
}

func NewProviderRepo(pool *pgxpool.Pool) *ProviderRepo {
	return &ProviderRepo{pool: pool}
}

func (r *ProviderRepo) GetByName(ctx context.Context, name string) (*providers.Provider, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, provider_name FROM authentication_providers WHERE provider_name = $1`, name)

	var provider providers.Provider
	if err := row.Scan(&provider.ID, &provider.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, providers.ErrNotFound
		}
		return nil, errors.Wrap(err, "[ProviderRepo.GetByName]")
	}
	return &provider, nil
}
