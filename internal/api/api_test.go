package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Cipherchain/internal/chain"
	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/repo"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
	"github.com/shaiso/Cipherchain/internal/steps"
)

type testAPI struct {
	mux   *http.ServeMux
	store *repo.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := repo.NewMemoryStore()
	provider := rsacrypto.NewProvider()

	service := chain.NewService(chain.ServiceConfig{
		Executor:  chain.NewExecutor(chain.Config{Registry: steps.DefaultRegistry(provider)}),
		Keys:      store.Keys,
		Templates: store.Templates,
		Recorder:  chain.RecorderFunc(store.History.Append),
	})

	h := NewHandler(Config{
		Service:   service,
		Keys:      store.Keys,
		Templates: store.Templates,
		History:   store.History,
		Generator: provider,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testAPI{mux: mux, store: store}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

// decodeData разбирает {"data": ...} в out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) ErrorCode {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.Error.Code
}

func TestExecuteChain(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/chains/execute", map[string]any{
		"input": "a b",
		"steps": []map[string]any{
			{"id": "s1", "type": "url-encode"},
			{"id": "s2", "type": "base64-encode"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res domain.ChainExecutionResult
	decodeData(t, rec, &res)

	want := base64.StdEncoding.EncodeToString([]byte("a%20b"))
	if !res.Success || res.FinalOutput != want || len(res.Steps) != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	history, _ := api.store.History.List(context.Background(), 0)
	if len(history) != 1 || history[0].ID != res.ID {
		t.Errorf("expected execution in history, got %d entries", len(history))
	}
}

func TestExecuteChain_StepFailureIsNotHTTPError(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/chains/execute", map[string]any{
		"input": "not base64!",
		"steps": []map[string]any{{"id": "s1", "type": "base64-decode"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res domain.ChainExecutionResult
	decodeData(t, rec, &res)
	if res.Success || res.FinalOutput != "not base64!" || res.Steps[0].Error == "" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExecuteChain_InvalidBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/chains/execute", "{")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != ErrCodeBadRequest {
		t.Errorf("expected 400 BAD_REQUEST, got %d", rec.Code)
	}
}

func TestValidateChain(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/chains/validate", map[string]any{
		"steps": []map[string]any{
			{"id": "s1", "type": "rsa-encrypt", "params": map[string]any{"keyId": "deleted"}},
			{"id": "s2", "type": "url-encode", "enabled": false},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	decodeData(t, rec, &res)
	if res.Valid || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "deleted") {
		t.Errorf("unexpected validation %+v", res)
	}
}

func TestAnalyzeURL(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/urls/analyze", AnalyzeURLRequest{
		URL: "https://api.example.com/users/550e8400-e29b-41d4-a716-446655440000?page=2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		SuggestedPathTemplate string `json:"suggestedPathTemplate"`
	}
	decodeData(t, rec, &res)
	if res.SuggestedPathTemplate != "/users/:uuid" {
		t.Errorf("unexpected template %q", res.SuggestedPathTemplate)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/urls/analyze", AnalyzeURLRequest{URL: "not a url"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid URL, got %d", rec.Code)
	}
}

func TestKeys_GenerateEncryptDecrypt(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/keys/generate", GenerateKeyRequest{Name: "test", KeySize: 1024})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "PRIVATE KEY") {
		t.Fatal("private key must not be returned")
	}

	var key KeyResponse
	decodeData(t, rec, &key)
	if !key.HasPrivateKey || key.KeySize != 1024 {
		t.Errorf("unexpected key %+v", key)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/chains/execute", map[string]any{
		"input": "secret",
		"steps": []map[string]any{
			{"id": "e", "type": "rsa-encrypt", "params": map[string]any{"keyId": key.ID}},
			{"id": "d", "type": "rsa-decrypt", "params": map[string]any{"keyId": key.ID}},
		},
	})
	var res domain.ChainExecutionResult
	decodeData(t, rec, &res)
	if !res.Success || res.FinalOutput != "secret" {
		t.Errorf("expected round trip, got %+v", res)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/keys", nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "PRIVATE KEY") {
		t.Errorf("list must omit private keys: %d", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, "/api/v1/keys/"+key.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/v1/keys/"+key.ID, nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != ErrCodeNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestKeys_BadRequests(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"generate without name", "/api/v1/keys/generate", GenerateKeyRequest{KeySize: 1024}},
		{"generate invalid size", "/api/v1/keys/generate", GenerateKeyRequest{Name: "k", KeySize: 1000}},
		{"generate unknown algorithm", "/api/v1/keys/generate", GenerateKeyRequest{Name: "k", PreferredAlgorithm: "RSA-PSS"}},
		{"import garbage", "/api/v1/keys", CreateKeyRequest{Name: "k", PublicKey: "garbage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTemplates_CRUDAndRun(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/templates", map[string]any{
		"name":  "encode",
		"steps": []map[string]any{{"type": "url-encode"}, {"type": "base64-encode"}},
		"tags":  []string{"web"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var tmpl domain.ChainTemplate
	decodeData(t, rec, &tmpl)
	if tmpl.ID == "" || len(tmpl.Steps) != 2 || tmpl.Steps[0].ID == "" {
		t.Fatalf("unexpected template %+v", tmpl)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/templates/"+tmpl.ID+"/run", RunTemplateRequest{Input: "a b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res domain.ChainExecutionResult
	decodeData(t, rec, &res)
	if !res.Success || res.TemplateID != tmpl.ID || res.TemplateName != "encode" {
		t.Errorf("unexpected run result %+v", res)
	}

	stored, err := api.store.Templates.Get(context.Background(), tmpl.ID)
	if err != nil || stored.LastUsed == nil {
		t.Errorf("expected lastUsed to be set: %v", err)
	}

	rec = api.do(t, http.MethodPut, "/api/v1/templates/"+tmpl.ID, map[string]any{
		"name":  "decode",
		"steps": []map[string]any{{"id": "only", "type": "url-decode"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decodeData(t, rec, &tmpl)
	if tmpl.Name != "decode" || len(tmpl.Steps) != 1 || tmpl.LastUsed == nil {
		t.Errorf("unexpected updated template %+v", tmpl)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/templates", nil)
	var list []domain.ChainTemplate
	decodeData(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 template, got %d", len(list))
	}

	rec = api.do(t, http.MethodDelete, "/api/v1/templates/"+tmpl.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/v1/templates/"+tmpl.ID+"/run", RunTemplateRequest{Input: "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestTemplates_NameRequired(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/templates", TemplateRequest{Name: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	for i, id := range []string{"h1", "h2", "h3"} {
		_ = api.store.History.Append(ctx, &domain.ChainExecutionResult{
			ID:        id,
			Success:   true,
			Steps:     []domain.StepResult{},
			Timestamp: time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		})
	}

	rec := api.do(t, http.MethodGet, "/api/v1/history?limit=2", nil)
	var list []domain.ChainExecutionResult
	decodeData(t, rec, &list)
	if len(list) != 2 || list[0].ID != "h3" {
		t.Errorf("unexpected history %+v", list)
	}

	if rec := api.do(t, http.MethodGet, "/api/v1/history?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid limit, got %d", rec.Code)
	}

	if rec := api.do(t, http.MethodDelete, "/api/v1/history/h1", nil); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := api.do(t, http.MethodDelete, "/api/v1/history/h1", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	if rec := api.do(t, http.MethodDelete, "/api/v1/history", nil); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	list, _ = api.store.History.List(ctx, 0)
	if len(list) != 0 {
		t.Errorf("expected empty history, got %d", len(list))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(NewHandler(Config{}).logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/keys", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	api.mux.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("expected request id echoed, got %q", got)
	}
}
