package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/engine"
)

// --- Типы API (CLI не импортирует internal/api) ---

// KeyResponse — ключ из API (без приватной части).
type KeyResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	PublicKey          string    `json:"publicKey"`
	KeySize            int       `json:"keySize"`
	PreferredAlgorithm string    `json:"preferredAlgorithm,omitempty"`
	HasPrivateKey      bool      `json:"hasPrivateKey"`
	Created            time.Time `json:"created"`
}

// GenerateKeyRequest — генерация пары.
type GenerateKeyRequest struct {
	Name               string `json:"name"`
	KeySize            int    `json:"keySize,omitempty"`
	PreferredAlgorithm string `json:"preferredAlgorithm,omitempty"`
}

// ImportKeyRequest — импорт пары из PEM.
type ImportKeyRequest struct {
	Name               string `json:"name"`
	PublicKey          string `json:"publicKey"`
	PrivateKey         string `json:"privateKey,omitempty"`
	PreferredAlgorithm string `json:"preferredAlgorithm,omitempty"`
}

// TemplateRequest — создание шаблона.
type TemplateRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Steps       []domain.Step `json:"steps"`
	Tags        []string      `json:"tags,omitempty"`
}

// ValidationResponse — результат проверки цепочки.
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент Cipherchain API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// --- Chains ---

// ExecuteChain выполняет цепочку на сервере.
func (c *Client) ExecuteChain(ctx context.Context, steps []domain.Step, input string) (*domain.ChainExecutionResult, error) {
	body := map[string]any{"steps": steps, "input": input}
	var res domain.ChainExecutionResult
	err := c.call(ctx, http.MethodPost, "/api/v1/chains/execute", body, &res)
	return &res, err
}

// ValidateChain проверяет цепочку.
func (c *Client) ValidateChain(ctx context.Context, steps []domain.Step) (*ValidationResponse, error) {
	body := map[string]any{"steps": steps}
	var res ValidationResponse
	err := c.call(ctx, http.MethodPost, "/api/v1/chains/validate", body, &res)
	return &res, err
}

// AnalyzeURL запрашивает разбор URL.
func (c *Client) AnalyzeURL(ctx context.Context, rawURL string) (*engine.URLAnalysis, error) {
	body := map[string]string{"url": rawURL}
	var res engine.URLAnalysis
	err := c.call(ctx, http.MethodPost, "/api/v1/urls/analyze", body, &res)
	return &res, err
}

// --- Keys ---

// ListKeys возвращает сохранённые ключи.
func (c *Client) ListKeys(ctx context.Context) ([]KeyResponse, error) {
	var keys []KeyResponse
	err := c.call(ctx, http.MethodGet, "/api/v1/keys", nil, &keys)
	return keys, err
}

// GetKey возвращает ключ по ID.
func (c *Client) GetKey(ctx context.Context, id string) (*KeyResponse, error) {
	var key KeyResponse
	err := c.call(ctx, http.MethodGet, "/api/v1/keys/"+url.PathEscape(id), nil, &key)
	return &key, err
}

// GenerateKey генерирует пару на сервере.
func (c *Client) GenerateKey(ctx context.Context, req GenerateKeyRequest) (*KeyResponse, error) {
	var key KeyResponse
	err := c.call(ctx, http.MethodPost, "/api/v1/keys/generate", req, &key)
	return &key, err
}

// ImportKey сохраняет пару из PEM.
func (c *Client) ImportKey(ctx context.Context, req ImportKeyRequest) (*KeyResponse, error) {
	var key KeyResponse
	err := c.call(ctx, http.MethodPost, "/api/v1/keys", req, &key)
	return &key, err
}

// DeleteKey удаляет ключ.
func (c *Client) DeleteKey(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/keys/"+url.PathEscape(id), nil, nil)
}

// --- Templates ---

// ListTemplates возвращает шаблоны.
func (c *Client) ListTemplates(ctx context.Context) ([]domain.ChainTemplate, error) {
	var templates []domain.ChainTemplate
	err := c.call(ctx, http.MethodGet, "/api/v1/templates", nil, &templates)
	return templates, err
}

// GetTemplate возвращает шаблон по ID.
func (c *Client) GetTemplate(ctx context.Context, id string) (*domain.ChainTemplate, error) {
	var tmpl domain.ChainTemplate
	err := c.call(ctx, http.MethodGet, "/api/v1/templates/"+url.PathEscape(id), nil, &tmpl)
	return &tmpl, err
}

// CreateTemplate сохраняет шаблон.
func (c *Client) CreateTemplate(ctx context.Context, req TemplateRequest) (*domain.ChainTemplate, error) {
	var tmpl domain.ChainTemplate
	err := c.call(ctx, http.MethodPost, "/api/v1/templates", req, &tmpl)
	return &tmpl, err
}

// DeleteTemplate удаляет шаблон.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/templates/"+url.PathEscape(id), nil, nil)
}

// RunTemplate выполняет шаблон.
func (c *Client) RunTemplate(ctx context.Context, id, input string) (*domain.ChainExecutionResult, error) {
	body := map[string]string{"input": input}
	var res domain.ChainExecutionResult
	err := c.call(ctx, http.MethodPost, "/api/v1/templates/"+url.PathEscape(id)+"/run", body, &res)
	return &res, err
}

// --- History ---

// ListHistory возвращает последние выполнения.
func (c *Client) ListHistory(ctx context.Context, limit int) ([]domain.ChainExecutionResult, error) {
	path := "/api/v1/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var results []domain.ChainExecutionResult
	err := c.call(ctx, http.MethodGet, path, nil, &results)
	return results, err
}

// DeleteHistory удаляет одну запись истории.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/history/"+url.PathEscape(id), nil, nil)
}

// ClearHistory удаляет историю.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/history", nil, nil)
}

// --- HTTP ---

// call отправляет запрос и раскладывает поле data ответа в result.
// Списки и одиночные объекты приходят в одном и том же конверте.
func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
