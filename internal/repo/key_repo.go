package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cipherchain/internal/domain"
)

// KeyRepo — репозиторий сохранённых ключей в Postgres.
type KeyRepo struct {
	pool *pgxpool.Pool
}

// NewKeyRepo создаёт новый KeyRepo.
func NewKeyRepo(pool *pgxpool.Pool) *KeyRepo {
	return &KeyRepo{pool: pool}
}

const keyColumns = `id, name, public_key, private_key, key_size, preferred_algorithm, created_at`

// List возвращает все ключи в порядке создания.
func (r *KeyRepo) List(ctx context.Context) ([]domain.SavedKey, error) {
	query := `SELECT ` + keyColumns + ` FROM saved_keys ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := []domain.SavedKey{}
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

// Get возвращает ключ по ID.
func (r *KeyRepo) Get(ctx context.Context, id string) (*domain.SavedKey, error) {
	query := `SELECT ` + keyColumns + ` FROM saved_keys WHERE id = $1`

	k, err := scanKey(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return k, err
}

// Create сохраняет новый ключ.
func (r *KeyRepo) Create(ctx context.Context, key *domain.SavedKey) error {
	query := `
		INSERT INTO saved_keys (` + keyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		key.ID,
		key.Name,
		key.PublicKey,
		key.PrivateKey,
		key.KeySize,
		string(key.PreferredAlgorithm),
		key.Created,
	)
	if err != nil {
		return fmt.Errorf("insert key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Delete удаляет ключ.
func (r *KeyRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM saved_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanKey(row pgx.Row) (*domain.SavedKey, error) {
	var (
		k   domain.SavedKey
		alg string
	)
	err := row.Scan(
		&k.ID,
		&k.Name,
		&k.PublicKey,
		&k.PrivateKey,
		&k.KeySize,
		&alg,
		&k.Created,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan key: %w", err)
	}
	k.PreferredAlgorithm = domain.Algorithm(alg)
	return &k, nil
}
