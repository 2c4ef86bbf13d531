package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/Cipherchain/internal/domain"
)

// forEachStore прогоняет тест на всех встраиваемых драйверах.
func forEachStore(t *testing.T, fn func(t *testing.T, s *Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

var base = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func TestKeyStore(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		k2 := &domain.SavedKey{ID: "k2", Name: "second", PublicKey: "pub2", KeySize: 2048, Created: base.Add(time.Minute)}
		k1 := &domain.SavedKey{ID: "k1", Name: "first", PublicKey: "pub1", PrivateKey: "priv1", KeySize: 1024,
			PreferredAlgorithm: domain.AlgorithmPKCS1, Created: base}

		for _, k := range []*domain.SavedKey{k2, k1} {
			if err := s.Keys.Create(ctx, k); err != nil {
				t.Fatalf("create %s: %v", k.ID, err)
			}
		}
		if err := s.Keys.Create(ctx, k1); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}

		list, err := s.Keys.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].ID != "k1" || list[1].ID != "k2" {
			t.Fatalf("unexpected order: %+v", list)
		}

		got, err := s.Keys.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.PrivateKey != "priv1" || got.PreferredAlgorithm != domain.AlgorithmPKCS1 || !got.Created.Equal(base) {
			t.Errorf("unexpected key: %+v", got)
		}

		if err := s.Keys.Delete(ctx, "k1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Keys.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.Keys.Delete(ctx, "k1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestTemplateStore(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		tmpl := &domain.ChainTemplate{
			ID:   "t1",
			Name: "encrypt and encode",
			Steps: []domain.Step{
				{ID: "s1", Type: domain.StepTypeRSAEncrypt, Enabled: true, Params: domain.RSAParams{KeyID: "k1"}},
				{ID: "s2", Type: domain.StepTypeURLEncode, Enabled: false},
			},
			Tags:    []string{"prod"},
			Created: base,
		}
		if err := s.Templates.Create(ctx, tmpl); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.Templates.Create(ctx, &domain.ChainTemplate{ID: "t2", Name: "newer", Created: base.Add(time.Hour)}); err != nil {
			t.Fatalf("create t2: %v", err)
		}

		got, err := s.Templates.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Steps) != 2 || got.Steps[0].RSA().KeyID != "k1" || got.Steps[1].Enabled {
			t.Errorf("steps not preserved: %+v", got.Steps)
		}
		if len(got.Tags) != 1 || got.LastUsed != nil {
			t.Errorf("unexpected template: %+v", got)
		}

		used := base.Add(2 * time.Hour)
		got.Touch(used)
		got.Name = "renamed"
		if err := s.Templates.Update(ctx, got); err != nil {
			t.Fatalf("update: %v", err)
		}

		got, err = s.Templates.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("get after update: %v", err)
		}
		if got.Name != "renamed" || got.LastUsed == nil || !got.LastUsed.Equal(used) {
			t.Errorf("update not applied: %+v", got)
		}

		list, err := s.Templates.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].ID != "t2" {
			t.Errorf("expected newest first, got %+v", list)
		}

		if err := s.Templates.Update(ctx, &domain.ChainTemplate{ID: "missing"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		// TouchLastUsed не трогает поля, изменённые после чтения.
		stale, err := s.Templates.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("get stale: %v", err)
		}
		stale.Name = "edited"
		if err := s.Templates.Update(ctx, stale); err != nil {
			t.Fatalf("update stale: %v", err)
		}
		touched := base.Add(3 * time.Hour)
		if err := s.Templates.TouchLastUsed(ctx, "t1", touched); err != nil {
			t.Fatalf("touch: %v", err)
		}
		got, err = s.Templates.Get(ctx, "t1")
		if err != nil {
			t.Fatalf("get after touch: %v", err)
		}
		if got.Name != "edited" || len(got.Steps) != 2 || got.LastUsed == nil || !got.LastUsed.Equal(touched) {
			t.Errorf("touch changed more than lastUsed: %+v", got)
		}
		if err := s.Templates.TouchLastUsed(ctx, "missing", touched); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := s.Templates.Delete(ctx, "t1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.Templates.Get(ctx, "t1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func historyEntry(id string, at time.Time) *domain.ChainExecutionResult {
	return &domain.ChainExecutionResult{
		ID:      id,
		Success: true,
		Steps: []domain.StepResult{
			{StepID: "s1", StepType: domain.StepTypeBase64Encode, Input: "a", Output: "YQ==", Success: true},
		},
		FinalOutput: "YQ==",
		Timestamp:   at,
		InputText:   "a",
	}
}

func TestHistoryStore(t *testing.T) {
	forEachStore(t, func(t *testing.T, s *Store) {
		ctx := context.Background()

		for i, id := range []string{"h1", "h2", "h3"} {
			if err := s.History.Append(ctx, historyEntry(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("append %s: %v", id, err)
			}
		}
		// повторная запись того же результата игнорируется
		if err := s.History.Append(ctx, historyEntry("h1", base)); err != nil {
			t.Fatalf("append duplicate: %v", err)
		}

		list, err := s.History.List(ctx, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 3 || list[0].ID != "h3" || list[2].ID != "h1" {
			t.Fatalf("expected newest first, got %d entries", len(list))
		}
		if list[2].FinalOutput != "YQ==" || len(list[2].Steps) != 1 {
			t.Errorf("result not preserved: %+v", list[2])
		}

		limited, err := s.History.List(ctx, 2)
		if err != nil || len(limited) != 2 {
			t.Fatalf("expected 2 entries, got %d (%v)", len(limited), err)
		}

		pruned, err := s.History.PruneBefore(ctx, base.Add(90*time.Minute))
		if err != nil {
			t.Fatalf("prune: %v", err)
		}
		if pruned != 2 {
			t.Errorf("expected 2 pruned, got %d", pruned)
		}

		if err := s.History.Delete(ctx, "h3"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.History.Delete(ctx, "h3"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		if err := s.History.Append(ctx, historyEntry("h4", base)); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := s.History.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		list, _ = s.History.List(ctx, 0)
		if len(list) != 0 {
			t.Errorf("expected empty history, got %d", len(list))
		}
	})
}

func TestMemoryHistory_Cap(t *testing.T) {
	h := NewMemoryHistoryRepo(3)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		_ = h.Append(ctx, historyEntry(id, base.Add(time.Duration(i)*time.Second)))
	}

	list, _ := h.List(ctx, 10)
	if len(list) != 3 || list[0].ID != "d" || list[2].ID != "b" {
		t.Errorf("expected latest 3 kept, got %+v", list)
	}
}

func TestMemoryTemplate_ReturnsCopies(t *testing.T) {
	r := NewMemoryTemplateRepo()
	ctx := context.Background()

	_ = r.Create(ctx, &domain.ChainTemplate{ID: "t", Steps: []domain.Step{{ID: "s1", Type: domain.StepTypeURLEncode}}})

	got, _ := r.Get(ctx, "t")
	got.Steps[0].ID = "changed"

	again, _ := r.Get(ctx, "t")
	if again.Steps[0].ID != "s1" {
		t.Error("stored template must not be affected by caller mutation")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mongo"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestDriverFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	if got := DriverFromEnv(); got != DriverPostgres {
		t.Errorf("expected postgres default, got %s", got)
	}

	t.Setenv("STORE_DRIVER", DriverSQLite)
	if got := DriverFromEnv(); got != DriverSQLite {
		t.Errorf("expected sqlite, got %s", got)
	}
}
