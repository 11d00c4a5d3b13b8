package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/researchkit/deep-research-mcp/internal/models"
)

// PostgresStore handles API key CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the api_keys table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS api_keys (
			id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name         VARCHAR(100)  NOT NULL,
			key_hash     VARCHAR(255)  NOT NULL,
			created_at   TIMESTAMPTZ   DEFAULT NOW(),
			last_used_at TIMESTAMPTZ
		)
	`)
	return err
}

func (s *PostgresStore) CreateKey(ctx context.Context, name, keyHash string) (*models.APIKey, error) {
	var k models.APIKey
	err := s.pool.QueryRow(ctx,
		`INSERT INTO api_keys (name, key_hash)
		 VALUES ($1, $2)
		 RETURNING id, name, key_hash, created_at`,
		name, keyHash,
	).Scan(&k.ID, &k.Name, &k.KeyHash, &k.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}
	return &k, nil
}

func (s *PostgresStore) ListKeys(ctx context.Context) ([]models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, key_hash, created_at, last_used_at FROM api_keys`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) CountKeys(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_keys`).Scan(&n)
	return n, err
}

func (s *PostgresStore) TouchKey(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	return err
}
