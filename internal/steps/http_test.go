package steps

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/engine"
)

const sampleURL = "https://api.example.com/users/42/posts?page=2&sort=desc"

func parseStep(params domain.HTTPParseParams, input string) (*Response, error) {
	return NewHTTPParseStep().Execute(context.Background(), &Request{
		Step:  domain.Step{ID: "p", Type: domain.StepTypeHTTPParse, Enabled: true, Params: params},
		Input: input,
	})
}

func buildStep(params domain.HTTPBuildParams, input string) (*Response, error) {
	return NewHTTPBuildStep().Execute(context.Background(), &Request{
		Step:  domain.Step{ID: "b", Type: domain.StepTypeHTTPBuild, Enabled: true, Params: params},
		Input: input,
	})
}

func TestHTTPParse_Full(t *testing.T) {
	resp, err := parseStep(domain.HTTPParseParams{
		PathTemplate:  "/users/:userId/posts",
		QueryTemplate: `["page"]`,
	}, "https://api.example.com/users/42/posts?page=2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed ParsedURL
	if err := json.Unmarshal([]byte(resp.Output), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	if !reflect.DeepEqual(parsed.PathParams, map[string]string{"userId": "42"}) {
		t.Errorf("unexpected pathParams %v", parsed.PathParams)
	}
	if !reflect.DeepEqual(parsed.QueryParams, map[string]string{"page": "2"}) {
		t.Errorf("unexpected queryParams %v", parsed.QueryParams)
	}
	if parsed.Host != "api.example.com" || parsed.Path != "/users/42/posts" {
		t.Errorf("unexpected host/path: %s %s", parsed.Host, parsed.Path)
	}
}

func TestHTTPParse_Projections(t *testing.T) {
	tests := []struct {
		name   string
		params domain.HTTPParseParams
		want   string
	}{
		{
			name:   "all query params",
			params: domain.HTTPParseParams{OutputType: domain.OutputTypeQueryParams},
			want:   `{"page":"2","sort":"desc"}`,
		},
		{
			name:   "path params",
			params: domain.HTTPParseParams{PathTemplate: "/users/{id}/posts", OutputType: domain.OutputTypePathParams},
			want:   `{"id":"42"}`,
		},
		{
			name:   "field",
			params: domain.HTTPParseParams{OutputType: domain.OutputTypeField, OutputField: "host"},
			want:   "api.example.com",
		},
		{
			name:   "nested field",
			params: domain.HTTPParseParams{OutputType: domain.OutputTypeField, OutputField: "$.queryParams.sort"},
			want:   "desc",
		},
		{
			name:   "path param",
			params: domain.HTTPParseParams{PathTemplate: "/users/:userId", OutputType: domain.OutputTypeParam, OutputParam: "userId"},
			want:   "42",
		},
		{
			name:   "query param",
			params: domain.HTTPParseParams{OutputType: domain.OutputTypeParam, OutputParam: "page"},
			want:   "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseStep(tt.params, sampleURL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Output != tt.want {
				t.Errorf("expected %s, got %s", tt.want, resp.Output)
			}
		})
	}
}

func TestHTTPParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		params  domain.HTTPParseParams
		input   string
		wantErr error
	}{
		{"invalid url", domain.HTTPParseParams{}, "not a url", engine.ErrInvalidURL},
		{"bad query template", domain.HTTPParseParams{QueryTemplate: "page"}, sampleURL, engine.ErrInvalidQueryTemplate},
		{"unknown output type", domain.HTTPParseParams{OutputType: "xml"}, sampleURL, ErrInvalidParams},
		{"field without name", domain.HTTPParseParams{OutputType: domain.OutputTypeField}, sampleURL, ErrInvalidParams},
		{"missing field", domain.HTTPParseParams{OutputType: domain.OutputTypeField, OutputField: "nope"}, sampleURL, engine.ErrJSONPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseStep(tt.params, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := parseStep(domain.HTTPParseParams{OutputType: domain.OutputTypeParam, OutputParam: "missing"}, sampleURL); err == nil {
		t.Error("expected error for missing param")
	}
}

func TestHTTPParse_MissingExpectedQueryWarns(t *testing.T) {
	resp, err := parseStep(domain.HTTPParseParams{
		QueryTemplate: `["page","limit"]`,
		OutputType:    domain.OutputTypeQueryParams,
	}, sampleURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Output != `{"page":"2"}` {
		t.Errorf("unexpected output %s", resp.Output)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", resp.Warnings)
	}
}

func TestHTTPParse_MalformedQueryWarns(t *testing.T) {
	resp, err := parseStep(domain.HTTPParseParams{
		OutputType: domain.OutputTypeQueryParams,
	}, "https://api.example.com/search?q=%zz&page=2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Output != `{"page":"2"}` {
		t.Errorf("expected valid pairs to survive, got %s", resp.Output)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "malformed query string") {
		t.Errorf("expected malformed query warning, got %v", resp.Warnings)
	}
}

func TestHTTPBuild(t *testing.T) {
	tests := []struct {
		name   string
		params domain.HTTPBuildParams
		input  string
		want   string
	}{
		{
			name: "auto and fixed",
			params: domain.HTTPBuildParams{
				BaseURL:       "https://api.example.com/",
				PathTemplate:  "/users/:userId/posts",
				ParamMappings: map[string]domain.ParamMapping{"userId": {Source: domain.MappingAuto}},
				QueryMappings: map[string]domain.ParamMapping{"page": {Source: domain.MappingFixed, Value: "2"}},
			},
			input: "42",
			want:  "https://api.example.com/users/42/posts?page=2",
		},
		{
			name: "field from json",
			params: domain.HTTPBuildParams{
				BaseURL:      "https://api.example.com",
				PathTemplate: "orders/{orderId}",
				ParamMappings: map[string]domain.ParamMapping{
					"orderId": {Source: domain.MappingField, Value: "$.order.id"},
				},
				QueryMappings: map[string]domain.ParamMapping{
					"token": {Source: domain.MappingField, Value: "token"},
				},
			},
			input: `{"order":{"id":"A 1"},"token":"t&k"}`,
			want:  "https://api.example.com/orders/A%201?token=t%26k",
		},
		{
			name:   "input as base",
			params: domain.HTTPBuildParams{QueryMappings: map[string]domain.ParamMapping{"x": {Source: domain.MappingFixed, Value: "1"}}},
			input:  " https://example.com/a?b=2 ",
			want:   "https://example.com/a?b=2&x=1",
		},
		{
			name: "base with query",
			params: domain.HTTPBuildParams{
				BaseURL:       "https://api.example.com/v1?token=abc",
				PathTemplate:  "/users/:userId",
				ParamMappings: map[string]domain.ParamMapping{"userId": {Source: domain.MappingAuto}},
				QueryMappings: map[string]domain.ParamMapping{"page": {Source: domain.MappingFixed, Value: "2"}},
			},
			input: "42",
			want:  "https://api.example.com/v1/users/42?token=abc&page=2",
		},
		{
			name: "base with fragment",
			params: domain.HTTPBuildParams{
				BaseURL:       "https://api.example.com/v1#frag",
				PathTemplate:  "/users/:userId",
				ParamMappings: map[string]domain.ParamMapping{"userId": {Source: domain.MappingAuto}},
			},
			input: "42",
			want:  "https://api.example.com/v1/users/42#frag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := buildStep(tt.params, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Output != tt.want {
				t.Errorf("expected %s, got %s", tt.want, resp.Output)
			}
		})
	}
}

func TestHTTPBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		params  domain.HTTPBuildParams
		input   string
		wantErr error
	}{
		{
			name:    "unmapped placeholder",
			params:  domain.HTTPBuildParams{BaseURL: "https://x.io", PathTemplate: "/users/:userId"},
			wantErr: engine.ErrUnmappedPlaceholder,
		},
		{
			name:    "no base",
			params:  domain.HTTPBuildParams{PathTemplate: "/a"},
			input:   "",
			wantErr: engine.ErrInvalidURL,
		},
		{
			name: "bad source",
			params: domain.HTTPBuildParams{
				BaseURL:       "https://x.io",
				QueryMappings: map[string]domain.ParamMapping{"a": {Source: "env"}},
			},
			wantErr: ErrInvalidParams,
		},
		{
			name: "field on non-json",
			params: domain.HTTPBuildParams{
				BaseURL:       "https://x.io",
				PathTemplate:  "/:id",
				ParamMappings: map[string]domain.ParamMapping{"id": {Source: domain.MappingField, Value: "$.id"}},
			},
			input:   "plain",
			wantErr: engine.ErrJSONPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildStep(tt.params, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHTTPBuild_UnusedMappingWarns(t *testing.T) {
	resp, err := buildStep(domain.HTTPBuildParams{
		BaseURL:       "https://x.io",
		ParamMappings: map[string]domain.ParamMapping{"ghost": {Source: domain.MappingFixed, Value: "1"}},
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Output != "https://x.io" {
		t.Errorf("unexpected output %s", resp.Output)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", resp.Warnings)
	}
}
