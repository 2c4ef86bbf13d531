package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cipherchain/internal/domain"
)

// HistoryRepo — журнал выполнений в Postgres.
//
// Результат хранится целиком (JSONB); отдельные колонки нужны для
// сортировки и очистки по возрасту.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

// NewHistoryRepo создаёт новый HistoryRepo.
func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// Append добавляет результат. Повторная запись того же ID игнорируется.
func (r *HistoryRepo) Append(ctx context.Context, res *domain.ChainExecutionResult) error {
	data, err := encodeResult(res)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chain_history (id, template_id, success, result, executed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query,
		res.ID,
		res.TemplateID,
		res.Success,
		data,
		res.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List возвращает последние limit записей, новые первыми.
func (r *HistoryRepo) List(ctx context.Context, limit int) ([]domain.ChainExecutionResult, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}

	query := `
		SELECT result FROM chain_history
		ORDER BY executed_at DESC, id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	results := []domain.ChainExecutionResult{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		res, err := decodeResult(data)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// Delete удаляет одну запись.
func (r *HistoryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM chain_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear удаляет всю историю.
func (r *HistoryRepo) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chain_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// PruneBefore удаляет записи старше cutoff и возвращает их количество.
func (r *HistoryRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM chain_history WHERE executed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return result.RowsAffected(), nil
}

func encodeResult(res *domain.ChainExecutionResult) ([]byte, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return data, nil
}

func decodeResult(data []byte) (*domain.ChainExecutionResult, error) {
	var res domain.ChainExecutionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if res.Steps == nil {
		res.Steps = []domain.StepResult{}
	}
	return &res, nil
}
