package qwen

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/storage"
)

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	lastAuth  string
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		c.lastAuth = req.Header.Get("Authorization")
		if stub, ok := c.responses[req.URL.Path]; ok {
			return stub.toResponse(), nil
		}
	}
	if req.Method == http.MethodGet {
		if stub, ok := c.responses[req.URL.String()]; ok {
			return stub.toResponse(), nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (s responseStub) toResponse() *http.Response {
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"image/png"}},
		Body:       io.NopCloser(strings.NewReader(string(s.body))),
	}
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{body: body}
}

func newTestProvider(t *testing.T, transport *captureTransport) *ImageProvider {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	cfg := infra.QwenConfig{
		APIKey:  "test-key",
		BaseURL: "https://dashscope.test/api/v1",
		Model:   "qwen-image-plus",
	}
	client := &http.Client{Transport: transport}
	return NewImageProvider(cfg, store, "http://localhost:8080/static", client, zerolog.New(io.Discard))
}

func TestGeneratePayloadAndResult(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/v1/services/aigc/multimodal-generation/generation", map[string]any{
		"output": map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": []any{
							map[string]any{"image": "https://example.com/generated/out.png"},
						},
					},
				},
			},
		},
		"request_id": "req-123",
	})
	transport.responses["https://example.com/generated/out.png"] = responseStub{body: []byte{0x89, 'P', 'N', 'G'}}

	p := newTestProvider(t, transport)
	task := &domain.GenerationTask{
		TaskID:          "t1",
		ContentType:     domain.ContentTypeImage,
		OptimizedPrompt: "a watercolor harbor at dawn",
	}

	result := p.Generate(t.Context(), task)
	if !result.IsSuccess() {
		t.Fatalf("expected success, got %s: %s", result.ErrorCode, result.ErrorMessage)
	}
	if !strings.HasPrefix(result.URL, "http://localhost:8080/static/generated/images/t1/") {
		t.Fatalf("unexpected result url %q", result.URL)
	}
	if result.ModelUsed != "qwen-image-plus" {
		t.Fatalf("model = %q, want qwen-image-plus", result.ModelUsed)
	}
	if transport.lastAuth != "Bearer test-key" {
		t.Fatalf("authorization = %q", transport.lastAuth)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if model := payload["model"]; model != "qwen-image-plus" {
		t.Fatalf("payload model = %v", model)
	}
	params := payload["parameters"].(map[string]any)
	if watermark, ok := params["watermark"].(bool); !ok || watermark {
		t.Fatalf("watermark = %v, want false", params["watermark"])
	}
	input := payload["input"].(map[string]any)
	messages := input["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("messages len = %d, want 1", len(messages))
	}
	content := messages[0].(map[string]any)["content"].([]any)
	if text := content[0].(map[string]any)["text"]; text != "a watercolor harbor at dawn" {
		t.Fatalf("content text = %v", text)
	}
}

func TestGenerateIgnoresGeminiModel(t *testing.T) {
	// A task routed to a Gemini model that lands here via fallback must use
	// the configured Qwen model, not the foreign identifier.
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/v1/services/aigc/multimodal-generation/generation", map[string]any{
		"output": map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": []any{
							map[string]any{"image": "https://example.com/generated/out.png"},
						},
					},
				},
			},
		},
	})
	transport.responses["https://example.com/generated/out.png"] = responseStub{body: []byte{1, 2, 3}}

	p := newTestProvider(t, transport)
	task := &domain.GenerationTask{
		TaskID:          "t2",
		ContentType:     domain.ContentTypeImage,
		OptimizedPrompt: "a fox",
		SelectedModel:   "gemini-2.5-flash-image",
	}

	result := p.Generate(t.Context(), task)
	if !result.IsSuccess() {
		t.Fatalf("expected success, got %s", result.ErrorCode)
	}
	if result.ModelUsed != "qwen-image-plus" {
		t.Fatalf("model = %q, want qwen-image-plus", result.ModelUsed)
	}
}

func TestGenerateAPIError(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/v1/services/aigc/multimodal-generation/generation", map[string]any{
		"code":    "InvalidParameter",
		"message": "prompt rejected",
	})

	p := newTestProvider(t, transport)
	task := &domain.GenerationTask{
		TaskID:          "t3",
		ContentType:     domain.ContentTypeImage,
		OptimizedPrompt: "a fox",
	}

	result := p.Generate(t.Context(), task)
	if result.IsSuccess() {
		t.Fatal("expected failure")
	}
	if result.ErrorCode != "API_ERROR" {
		t.Fatalf("error code = %q, want API_ERROR", result.ErrorCode)
	}
	if !strings.Contains(result.ErrorMessage, "InvalidParameter") {
		t.Fatalf("error message %q missing api code", result.ErrorMessage)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/api/v1/services/aigc/multimodal-generation/generation", map[string]any{
		"output": map[string]any{"choices": []any{}},
	})

	p := newTestProvider(t, transport)
	task := &domain.GenerationTask{
		TaskID:          "t4",
		ContentType:     domain.ContentTypeImage,
		OptimizedPrompt: "a fox",
	}

	result := p.Generate(t.Context(), task)
	if result.IsSuccess() {
		t.Fatal("expected failure")
	}
	if result.ErrorCode != "API_ERROR" {
		t.Fatalf("error code = %q, want API_ERROR", result.ErrorCode)
	}
}
