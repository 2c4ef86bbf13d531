// Package keys разрешает ссылки keyId на сохранённые пары ключей.
//
// Вместо глобального кэша ключей исполнитель цепочки получает Snapshot —
// неизменяемый срез коллекции, снятый в начале выполнения. Это делает
// выполнение детерминированным: параллельные цепочки не влияют друг на
// друга, а тесты подставляют ключи напрямую.
package keys

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// ErrKeyNotFound — ключ с указанным ID отсутствует в коллекции.
var ErrKeyNotFound = errors.New("key not found")

// Collection — источник сохранённых ключей (хранилище).
type Collection interface {
	List(ctx context.Context) ([]domain.SavedKey, error)
}

// Snapshot — неизменяемый индекс ключей по ID.
type Snapshot struct {
	byID map[string]domain.SavedKey
}

// NewSnapshot строит снимок из списка ключей.
// При повторяющихся ID побеждает последний.
func NewSnapshot(list []domain.SavedKey) *Snapshot {
	byID := make(map[string]domain.SavedKey, len(list))
	for _, k := range list {
		byID[k.ID] = k
	}
	return &Snapshot{byID: byID}
}

// Load читает коллекцию и строит снимок.
func Load(ctx context.Context, c Collection) (*Snapshot, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return NewSnapshot(list), nil
}

// Resolve возвращает ключ по ID или ErrKeyNotFound.
// Nil-снимок ведёт себя как пустой.
func (s *Snapshot) Resolve(id string) (domain.SavedKey, error) {
	if s != nil {
		if k, ok := s.byID[id]; ok {
			return k, nil
		}
	}
	return domain.SavedKey{}, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
}

// Has проверяет наличие ключа.
func (s *Snapshot) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.byID[id]
	return ok
}

// Len возвращает количество ключей.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byID)
}

// IDs возвращает отсортированный список ID.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
