package repo

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// Драйверы хранилища (STORE_DRIVER).
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// HistoryLimit — сколько записей истории отдаётся по умолчанию
// и сколько хранит in-memory хранилище.
const HistoryLimit = 100

// KeyStore — коллекция сохранённых ключей.
type KeyStore interface {
	List(ctx context.Context) ([]domain.SavedKey, error)
	Get(ctx context.Context, id string) (*domain.SavedKey, error)
	Create(ctx context.Context, key *domain.SavedKey) error
	Delete(ctx context.Context, id string) error
}

// TemplateStore — сохранённые шаблоны цепочек.
type TemplateStore interface {
	List(ctx context.Context) ([]domain.ChainTemplate, error)
	Get(ctx context.Context, id string) (*domain.ChainTemplate, error)
	Create(ctx context.Context, tmpl *domain.ChainTemplate) error
	Update(ctx context.Context, tmpl *domain.ChainTemplate) error
	// TouchLastUsed меняет только last_used, не затрагивая остальные поля.
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// HistoryStore — журнал выполненных цепочек, новые записи первыми.
type HistoryStore interface {
	Append(ctx context.Context, res *domain.ChainExecutionResult) error
	List(ctx context.Context, limit int) ([]domain.ChainExecutionResult, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store объединяет хранилища одного драйвера.
type Store struct {
	Driver    string
	Keys      KeyStore
	Templates TemplateStore
	History   HistoryStore

	close func() error
}

// Close освобождает ресурсы драйвера.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// DriverFromEnv возвращает STORE_DRIVER или postgres по умолчанию.
func DriverFromEnv() string {
	if d := os.Getenv("STORE_DRIVER"); d != "" {
		return d
	}
	return DriverPostgres
}

// Open открывает хранилище указанного драйвера.
//
// postgres читает DB_URL и создаёт схему; sqlite открывает файл
// SQLITE_PATH (по умолчанию cipherchain.db); memory живёт до конца процесса.
func Open(ctx context.Context, driver string) (*Store, error) {
	switch driver {
	case DriverPostgres:
		pool, err := NewPool(ctx)
		if err != nil {
			return nil, err
		}
		if err := EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Store{
			Driver:    driver,
			Keys:      NewKeyRepo(pool),
			Templates: NewTemplateRepo(pool),
			History:   NewHistoryRepo(pool),
			close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case DriverSQLite:
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "cipherchain.db"
		}
		return OpenSQLite(ctx, path)

	case DriverMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
