package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cipherchain/internal/domain"
)

// TemplateRepo — репозиторий шаблонов цепочек в Postgres.
//
// Шаги и теги хранятся как JSONB.
type TemplateRepo struct {
	pool *pgxpool.Pool
}

// NewTemplateRepo создаёт новый TemplateRepo.
func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

const templateColumns = `id, name, description, steps, tags, created_at, last_used`

// List возвращает шаблоны, новые первыми.
func (r *TemplateRepo) List(ctx context.Context) ([]domain.ChainTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM chain_templates ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.ChainTemplate{}
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tmpl)
	}
	return templates, rows.Err()
}

// Get возвращает шаблон по ID.
func (r *TemplateRepo) Get(ctx context.Context, id string) (*domain.ChainTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM chain_templates WHERE id = $1`

	tmpl, err := scanTemplate(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tmpl, err
}

// Create сохраняет новый шаблон.
func (r *TemplateRepo) Create(ctx context.Context, tmpl *domain.ChainTemplate) error {
	stepsJSON, tagsJSON, err := marshalTemplate(tmpl)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO chain_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.Description,
		stepsJSON,
		tagsJSON,
		tmpl.Created,
		tmpl.LastUsed,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Update перезаписывает шаблон целиком (кроме created_at).
func (r *TemplateRepo) Update(ctx context.Context, tmpl *domain.ChainTemplate) error {
	stepsJSON, tagsJSON, err := marshalTemplate(tmpl)
	if err != nil {
		return err
	}

	query := `
		UPDATE chain_templates
		SET name = $2, description = $3, steps = $4, tags = $5, last_used = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		tmpl.ID,
		tmpl.Name,
		tmpl.Description,
		stepsJSON,
		tagsJSON,
		tmpl.LastUsed,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastUsed обновляет только last_used, чтобы не затереть
// параллельное редактирование шаблона.
func (r *TemplateRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE chain_templates SET last_used = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет шаблон.
func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM chain_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*domain.ChainTemplate, error) {
	var (
		tmpl      domain.ChainTemplate
		stepsJSON []byte
		tagsJSON  []byte
		lastUsed  *time.Time
	)
	err := row.Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.Description,
		&stepsJSON,
		&tagsJSON,
		&tmpl.Created,
		&lastUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	tmpl.LastUsed = lastUsed

	if err := unmarshalTemplate(&tmpl, stepsJSON, tagsJSON); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// marshalTemplate кодирует шаги и теги для хранения.
func marshalTemplate(tmpl *domain.ChainTemplate) (stepsJSON, tagsJSON []byte, err error) {
	steps := tmpl.Steps
	if steps == nil {
		steps = []domain.Step{}
	}
	stepsJSON, err = json.Marshal(steps)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal steps: %w", err)
	}

	tags := tmpl.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err = json.Marshal(tags)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	return stepsJSON, tagsJSON, nil
}

func unmarshalTemplate(tmpl *domain.ChainTemplate, stepsJSON, tagsJSON []byte) error {
	if err := json.Unmarshal(stepsJSON, &tmpl.Steps); err != nil {
		return fmt.Errorf("unmarshal steps: %w", err)
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &tmpl.Tags); err != nil {
			return fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if len(tmpl.Tags) == 0 {
		tmpl.Tags = nil
	}
	return nil
}
