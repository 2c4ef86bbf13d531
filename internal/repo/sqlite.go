package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// sqliteTime — формат хранения времени: UTC с фиксированной дробной
// частью, чтобы строки сортировались как время.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS saved_keys (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		public_key          TEXT NOT NULL,
		private_key         TEXT NOT NULL DEFAULT '',
		key_size            INTEGER NOT NULL,
		preferred_algorithm TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chain_templates (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		steps       TEXT NOT NULL,
		tags        TEXT NOT NULL DEFAULT '[]',
		created_at  TEXT NOT NULL,
		last_used   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS chain_history (
		id          TEXT PRIMARY KEY,
		template_id TEXT NOT NULL DEFAULT '',
		success     INTEGER NOT NULL,
		result      TEXT NOT NULL,
		executed_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chain_history_executed_at_idx ON chain_history (executed_at DESC)`,
}

// OpenSQLite открывает (или создаёт) файл базы и возвращает Store.
// Путь ":memory:" даёт временную базу.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// один писатель: SQLite блокирует файл целиком
	db.SetMaxOpenConns(1)

	for _, q := range sqliteSchema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	return &Store{
		Driver:    DriverSQLite,
		Keys:      &SQLiteKeyRepo{db: db},
		Templates: &SQLiteTemplateRepo{db: db},
		History:   &SQLiteHistoryRepo{db: db},
		close:     db.Close,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTime, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// affected переводит результат DELETE/UPDATE в ErrNotFound.
func affected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Keys ---

// SQLiteKeyRepo — ключи в SQLite.
type SQLiteKeyRepo struct {
	db *sql.DB
}

func (r *SQLiteKeyRepo) List(ctx context.Context) ([]domain.SavedKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+keyColumns+` FROM saved_keys ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := []domain.SavedKey{}
	for rows.Next() {
		k, err := scanSQLiteKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}

func (r *SQLiteKeyRepo) Get(ctx context.Context, id string) (*domain.SavedKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM saved_keys WHERE id = ?`, id)
	k, err := scanSQLiteKey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return k, err
}

func (r *SQLiteKeyRepo) Create(ctx context.Context, key *domain.SavedKey) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_keys (`+keyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`,
		key.ID,
		key.Name,
		key.PublicKey,
		key.PrivateKey,
		key.KeySize,
		string(key.PreferredAlgorithm),
		formatTime(key.Created),
	)
	if err != nil {
		return fmt.Errorf("insert key: %w", err)
	}
	if err := affected(result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SQLiteKeyRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saved_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	return affected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteKey(row rowScanner) (*domain.SavedKey, error) {
	var (
		k       domain.SavedKey
		alg     string
		created string
	)
	if err := row.Scan(&k.ID, &k.Name, &k.PublicKey, &k.PrivateKey, &k.KeySize, &alg, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan key: %w", err)
	}

	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	k.Created = t
	k.PreferredAlgorithm = domain.Algorithm(alg)
	return &k, nil
}

// --- Templates ---

// SQLiteTemplateRepo — шаблоны в SQLite.
type SQLiteTemplateRepo struct {
	db *sql.DB
}

func (r *SQLiteTemplateRepo) List(ctx context.Context) ([]domain.ChainTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM chain_templates ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.ChainTemplate{}
	for rows.Next() {
		tmpl, err := scanSQLiteTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tmpl)
	}
	return templates, rows.Err()
}

func (r *SQLiteTemplateRepo) Get(ctx context.Context, id string) (*domain.ChainTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM chain_templates WHERE id = ?`, id)
	tmpl, err := scanSQLiteTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tmpl, err
}

func (r *SQLiteTemplateRepo) Create(ctx context.Context, tmpl *domain.ChainTemplate) error {
	stepsJSON, tagsJSON, err := marshalTemplate(tmpl)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO chain_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`,
		tmpl.ID,
		tmpl.Name,
		tmpl.Description,
		string(stepsJSON),
		string(tagsJSON),
		formatTime(tmpl.Created),
		nullTime(tmpl.LastUsed),
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	if err := affected(result); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *SQLiteTemplateRepo) Update(ctx context.Context, tmpl *domain.ChainTemplate) error {
	stepsJSON, tagsJSON, err := marshalTemplate(tmpl)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE chain_templates
		SET name = ?, description = ?, steps = ?, tags = ?, last_used = ?
		WHERE id = ?
	`,
		tmpl.Name,
		tmpl.Description,
		string(stepsJSON),
		string(tagsJSON),
		nullTime(tmpl.LastUsed),
		tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return affected(result)
}

func (r *SQLiteTemplateRepo) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE chain_templates SET last_used = ? WHERE id = ?`,
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("touch template: %w", err)
	}
	return affected(result)
}

func (r *SQLiteTemplateRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chain_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return affected(result)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func scanSQLiteTemplate(row rowScanner) (*domain.ChainTemplate, error) {
	var (
		tmpl      domain.ChainTemplate
		stepsJSON string
		tagsJSON  string
		created   string
		lastUsed  sql.NullString
	)
	err := row.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Description, &stepsJSON, &tagsJSON, &created, &lastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}

	if tmpl.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		t, err := parseTime(lastUsed.String)
		if err != nil {
			return nil, err
		}
		tmpl.LastUsed = &t
	}

	if err := unmarshalTemplate(&tmpl, []byte(stepsJSON), []byte(tagsJSON)); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// --- History ---

// SQLiteHistoryRepo — журнал выполнений в SQLite.
type SQLiteHistoryRepo struct {
	db *sql.DB
}

func (r *SQLiteHistoryRepo) Append(ctx context.Context, res *domain.ChainExecutionResult) error {
	data, err := encodeResult(res)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO chain_history (id, template_id, success, result, executed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`,
		res.ID,
		res.TemplateID,
		res.Success,
		string(data),
		formatTime(res.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepo) List(ctx context.Context, limit int) ([]domain.ChainExecutionResult, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT result FROM chain_history
		ORDER BY executed_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	results := []domain.ChainExecutionResult{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		res, err := decodeResult([]byte(data))
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

func (r *SQLiteHistoryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chain_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return affected(result)
}

func (r *SQLiteHistoryRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chain_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (r *SQLiteHistoryRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chain_history WHERE executed_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return result.RowsAffected()
}
