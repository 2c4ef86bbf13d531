package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cipherchain/internal/api"
	"github.com/shaiso/Cipherchain/internal/chain"
	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/repo"
	"github.com/shaiso/Cipherchain/internal/rsacrypto"
	"github.com/shaiso/Cipherchain/internal/steps"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := repo.NewMemoryStore()
	provider := rsacrypto.NewProvider()

	service := chain.NewService(chain.ServiceConfig{
		Executor:  chain.NewExecutor(chain.Config{Registry: steps.DefaultRegistry(provider)}),
		Keys:      store.Keys,
		Templates: store.Templates,
		Recorder:  chain.RecorderFunc(store.History.Append),
	})

	h := api.NewHandler(api.Config{
		Service:   service,
		Keys:      store.Keys,
		Templates: store.Templates,
		History:   store.History,
		Generator: provider,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cmdFactory func(func() *Client, func() *Output) *cobra.Command

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

func runCmd(t *testing.T, baseURL string, factory cmdFactory, stdin string, jsonMode bool, args ...string) cmdResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := factory(
		func() *Client { return NewClient(baseURL) },
		func() *Output { return NewOutputTo(&stdout, &stderr, jsonMode) },
	)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(context.Background())
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDecodeSteps(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []domain.StepType
		wantErr bool
	}{
		{
			name: "json array",
			data: `[{"id":"a","type":"url-encode"},{"id":"b","type":"base64-encode"}]`,
			want: []domain.StepType{domain.StepTypeURLEncode, domain.StepTypeBase64Encode},
		},
		{
			name: "json object",
			data: `{"name":"t","steps":[{"id":"a","type":"url-decode"}]}`,
			want: []domain.StepType{domain.StepTypeURLDecode},
		},
		{
			name: "yaml list",
			data: "- id: a\n  type: base64-decode\n- id: b\n  type: rsa-encrypt\n  params:\n    keyId: k1\n",
			want: []domain.StepType{domain.StepTypeBase64Decode, domain.StepTypeRSAEncrypt},
		},
		{
			name:    "empty steps",
			data:    `{"steps":[]}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			data:    "steps: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSteps([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d steps, got %d", len(tt.want), len(got))
			}
			for i, s := range got {
				if s.Type != tt.want[i] {
					t.Errorf("step %d: expected %s, got %s", i, tt.want[i], s.Type)
				}
				if !s.Enabled {
					t.Errorf("step %d: missing enabled must default to true", i)
				}
			}
		})
	}
}

func TestDecodeSteps_YAMLParams(t *testing.T) {
	got, err := decodeSteps([]byte("steps:\n  - id: r\n    type: rsa-encrypt\n    params:\n      keyId: k1\n      algorithm: RSA-PKCS1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := got[0].RSA()
	if p.KeyID != "k1" || p.Algorithm != domain.AlgorithmPKCS1 {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestTemplateDoc_RoundTrip(t *testing.T) {
	tmpl := &domain.ChainTemplate{
		Name:        "login",
		Description: "encrypt password",
		Tags:        []string{"auth"},
		Steps: []domain.Step{
			{ID: "s1", Type: domain.StepTypeURLEncode, Enabled: true},
			{ID: "s2", Type: domain.StepTypeRSAEncrypt, Enabled: false, Params: domain.RSAParams{KeyID: "k1"}},
		},
	}

	data, err := marshalTemplateDoc(tmpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "name: login") {
		t.Errorf("unexpected yaml:\n%s", data)
	}

	req, err := unmarshalTemplateDoc(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if req.Name != "login" || req.Description != "encrypt password" || len(req.Tags) != 1 {
		t.Errorf("metadata lost: %+v", req)
	}
	if len(req.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(req.Steps))
	}
	if req.Steps[1].Enabled || req.Steps[1].RSA().KeyID != "k1" {
		t.Errorf("step 2 lost data: %+v", req.Steps[1])
	}
}

func TestReadInput_Stdin(t *testing.T) {
	srv := newTestServer(t)
	stepsPath := writeFile(t, "chain.json", `[{"id":"s1","type":"url-encode"}]`)

	res := runCmd(t, srv.URL, NewChainCmd, "a b\n", false, "run", "--steps", stepsPath)
	if res.err != nil {
		t.Fatalf("unexpected error: %v (%s)", res.err, res.stderr)
	}
	if res.stdout != "a%20b\n" {
		t.Errorf("expected a%%20b, got %q", res.stdout)
	}
}

func TestChainRun(t *testing.T) {
	srv := newTestServer(t)
	stepsPath := writeFile(t, "chain.yaml", "- id: s1\n  type: url-encode\n- id: s2\n  type: base64-encode\n")

	res := runCmd(t, srv.URL, NewChainCmd, "", false, "run", "--steps", stepsPath, "--input", "a b", "-v")
	if res.err != nil {
		t.Fatalf("unexpected error: %v (%s)", res.err, res.stderr)
	}

	want := base64.StdEncoding.EncodeToString([]byte("a%20b"))
	if !strings.HasSuffix(res.stdout, want+"\n") {
		t.Errorf("expected output to end with %s, got %q", want, res.stdout)
	}
	if !strings.Contains(res.stdout, "url-encode") {
		t.Errorf("verbose output must list steps: %q", res.stdout)
	}
}

func TestChainRun_Failure(t *testing.T) {
	srv := newTestServer(t)
	stepsPath := writeFile(t, "chain.json", `[{"id":"s1","type":"base64-decode"}]`)

	res := runCmd(t, srv.URL, NewChainCmd, "", false, "run", "--steps", stepsPath, "--input", "not base64 %")
	if !errors.Is(res.err, ErrReported) {
		t.Fatalf("expected ErrReported, got %v", res.err)
	}
	if !strings.Contains(res.stderr, "step 1") {
		t.Errorf("expected failing step in stderr, got %q", res.stderr)
	}
	if res.stdout != "" {
		t.Errorf("failed chain must not print output, got %q", res.stdout)
	}
}

func TestChainValidate(t *testing.T) {
	srv := newTestServer(t)

	valid := writeFile(t, "ok.json", `[{"id":"s1","type":"url-encode"}]`)
	res := runCmd(t, srv.URL, NewChainCmd, "", false, "validate", "--steps", valid)
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	invalid := writeFile(t, "bad.json", `[{"id":"s1","type":"rsa-encrypt","params":{"keyId":"gone"}}]`)
	res = runCmd(t, srv.URL, NewChainCmd, "", false, "validate", "--steps", invalid)
	if !errors.Is(res.err, ErrReported) {
		t.Fatalf("expected ErrReported, got %v", res.err)
	}
	if !strings.Contains(res.stderr, "Error:") {
		t.Errorf("expected errors in stderr, got %q", res.stderr)
	}
}

func TestURLAnalyze(t *testing.T) {
	srv := newTestServer(t)

	res := runCmd(t, srv.URL, NewURLCmd, "", false, "analyze", "https://api.example.com/users/12345/orders?token=abc")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if !strings.Contains(res.stdout, "https://api.example.com") {
		t.Errorf("expected origin in output: %q", res.stdout)
	}
	if !strings.Contains(res.stdout, ":userId") {
		t.Errorf("expected suggested template in output: %q", res.stdout)
	}
}

func TestKeys_GenerateAndList(t *testing.T) {
	srv := newTestServer(t)

	res := runCmd(t, srv.URL, NewKeyCmd, "", false, "generate", "--name", "test", "--size", "1024")
	if res.err != nil {
		t.Fatalf("generate: %v", res.err)
	}
	if !strings.Contains(res.stderr, "Key generated") {
		t.Errorf("expected success message, got %q", res.stderr)
	}

	keys, err := NewClient(srv.URL).ListKeys(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0].KeySize != 1024 || !keys[0].HasPrivateKey {
		t.Errorf("unexpected keys %+v", keys)
	}

	res = runCmd(t, srv.URL, NewKeyCmd, "", true, "list")
	if res.err != nil {
		t.Fatalf("list cmd: %v", res.err)
	}
	if strings.Contains(res.stdout, "PRIVATE KEY") {
		t.Error("private key must never be printed")
	}
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)

	_, err := NewClient(srv.URL).GetKey(context.Background(), "missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestTemplates_ExportImportRun(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	created, err := client.CreateTemplate(ctx, TemplateRequest{
		Name: "encode",
		Tags: []string{"demo"},
		Steps: []domain.Step{
			{ID: "s1", Type: domain.StepTypeURLEncode, Enabled: true},
			{ID: "s2", Type: domain.StepTypeBase64Encode, Enabled: true},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	exported := filepath.Join(t.TempDir(), "encode.yaml")
	res := runCmd(t, srv.URL, NewTemplateCmd, "", false, "export", created.ID, "--output", exported)
	if res.err != nil {
		t.Fatalf("export: %v", res.err)
	}

	res = runCmd(t, srv.URL, NewTemplateCmd, "", false, "import", exported, "--name", "encode copy")
	if res.err != nil {
		t.Fatalf("import: %v", res.err)
	}

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}

	var imported *domain.ChainTemplate
	for i := range templates {
		if templates[i].Name == "encode copy" {
			imported = &templates[i]
		}
	}
	if imported == nil {
		t.Fatal("imported template not found")
	}
	if len(imported.Steps) != 2 || imported.Steps[1].Type != domain.StepTypeBase64Encode {
		t.Errorf("steps lost on import: %+v", imported.Steps)
	}

	res = runCmd(t, srv.URL, NewTemplateCmd, "", false, "run", imported.ID, "--input", "a b")
	if res.err != nil {
		t.Fatalf("run: %v", res.err)
	}
	want := base64.StdEncoding.EncodeToString([]byte("a%20b"))
	if res.stdout != want+"\n" {
		t.Errorf("expected %s, got %q", want, res.stdout)
	}
}

func TestHistory_ListAndClear(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	if _, err := client.ExecuteChain(ctx, []domain.Step{{ID: "s1", Type: domain.StepTypeURLEncode, Enabled: true}}, "x"); err != nil {
		t.Fatalf("execute: %v", err)
	}

	res := runCmd(t, srv.URL, NewHistoryCmd, "", false, "list")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	if !strings.Contains(res.stdout, "ok") {
		t.Errorf("expected successful entry, got %q", res.stdout)
	}

	res = runCmd(t, srv.URL, NewHistoryCmd, "", false, "clear")
	if res.err != nil {
		t.Fatalf("clear: %v", res.err)
	}

	history, err := client.ListHistory(ctx, 0)
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}
}
