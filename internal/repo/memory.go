package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// NewMemoryStore создаёт хранилище в памяти процесса.
// История ограничена последними HistoryLimit записями.
func NewMemoryStore() *Store {
	return &Store{
		Driver:    DriverMemory,
		Keys:      NewMemoryKeyRepo(),
		Templates: NewMemoryTemplateRepo(),
		History:   NewMemoryHistoryRepo(HistoryLimit),
	}
}

// --- Keys ---

// MemoryKeyRepo — ключи в памяти.
type MemoryKeyRepo struct {
	mu   sync.RWMutex
	keys map[string]domain.SavedKey
}

// NewMemoryKeyRepo создаёт пустой MemoryKeyRepo.
func NewMemoryKeyRepo() *MemoryKeyRepo {
	return &MemoryKeyRepo{keys: make(map[string]domain.SavedKey)}
}

func (r *MemoryKeyRepo) List(context.Context) ([]domain.SavedKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.SavedKey, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryKeyRepo) Get(_ context.Context, id string) (*domain.SavedKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &k, nil
}

func (r *MemoryKeyRepo) Create(_ context.Context, key *domain.SavedKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[key.ID]; ok {
		return ErrAlreadyExists
	}
	r.keys[key.ID] = *key
	return nil
}

func (r *MemoryKeyRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[id]; !ok {
		return ErrNotFound
	}
	delete(r.keys, id)
	return nil
}

// --- Templates ---

// MemoryTemplateRepo — шаблоны в памяти.
type MemoryTemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]domain.ChainTemplate
}

// NewMemoryTemplateRepo создаёт пустой MemoryTemplateRepo.
func NewMemoryTemplateRepo() *MemoryTemplateRepo {
	return &MemoryTemplateRepo{templates: make(map[string]domain.ChainTemplate)}
}

// cloneTemplate копирует срезы, чтобы вызывающий не менял хранимое значение.
func cloneTemplate(t domain.ChainTemplate) domain.ChainTemplate {
	t.Steps = append([]domain.Step{}, t.Steps...)
	if t.Tags != nil {
		t.Tags = append([]string{}, t.Tags...)
	}
	if t.LastUsed != nil {
		lu := *t.LastUsed
		t.LastUsed = &lu
	}
	return t
}

func (r *MemoryTemplateRepo) List(context.Context) ([]domain.ChainTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ChainTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryTemplateRepo) Get(_ context.Context, id string) (*domain.ChainTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = cloneTemplate(t)
	return &t, nil
}

func (r *MemoryTemplateRepo) Create(_ context.Context, tmpl *domain.ChainTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[tmpl.ID]; ok {
		return ErrAlreadyExists
	}
	r.templates[tmpl.ID] = cloneTemplate(*tmpl)
	return nil
}

func (r *MemoryTemplateRepo) Update(_ context.Context, tmpl *domain.ChainTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.templates[tmpl.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneTemplate(*tmpl)
	updated.Created = old.Created
	r.templates[tmpl.ID] = updated
	return nil
}

func (r *MemoryTemplateRepo) TouchLastUsed(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.templates[id]
	if !ok {
		return ErrNotFound
	}
	t.LastUsed = &at
	r.templates[id] = t
	return nil
}

func (r *MemoryTemplateRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[id]; !ok {
		return ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

// --- History ---

// MemoryHistoryRepo — история в памяти, новые записи первыми.
type MemoryHistoryRepo struct {
	mu      sync.RWMutex
	max     int
	entries []domain.ChainExecutionResult
}

// NewMemoryHistoryRepo создаёт историю на max записей (max <= 0 — без ограничения).
func NewMemoryHistoryRepo(max int) *MemoryHistoryRepo {
	return &MemoryHistoryRepo{max: max}
}

func (r *MemoryHistoryRepo) Append(_ context.Context, res *domain.ChainExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID == res.ID {
			return nil
		}
	}

	r.entries = append([]domain.ChainExecutionResult{*res}, r.entries...)
	if r.max > 0 && len(r.entries) > r.max {
		r.entries = r.entries[:r.max]
	}
	return nil
}

func (r *MemoryHistoryRepo) List(_ context.Context, limit int) ([]domain.ChainExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = HistoryLimit
	}
	n := min(limit, len(r.entries))

	out := make([]domain.ChainExecutionResult, n)
	copy(out, r.entries[:n])
	return out, nil
}

func (r *MemoryHistoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryHistoryRepo) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	return nil
}

func (r *MemoryHistoryRepo) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var pruned int64
	for _, e := range r.entries {
		if e.Timestamp.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return pruned, nil
}
