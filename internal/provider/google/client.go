package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ClientOptions configures the shared Google REST client.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	ProxyURL   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a thin facade over the generative language REST API shared by
// the image, video and audio providers.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a client. A nil HTTP client gets a reusable one with
// generous timeouts; generation responses can take minutes.
func NewClient(opts ClientOptions) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		transport := http.DefaultTransport
		if opts.ProxyURL != "" {
			proxyURL, err := url.Parse(opts.ProxyURL)
			if err != nil {
				return nil, fmt.Errorf("google: parse proxy url: %w", err)
			}
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
		client = &http.Client{Timeout: 10 * time.Minute, Transport: transport}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: client,
		logger:     opts.Logger,
	}, nil
}

// Post sends a JSON payload to the given API path and decodes the response
// into out.
func (c *Client) Post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("google: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("google: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get fetches the given API path and decodes the response into out. Used by
// the long-running operation poll loop.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("google: create request: %w", err)
	}
	return c.do(req, out)
}

// Download fetches raw bytes from a file URI returned by the API, attaching
// the API key. Returns the payload and the reported content type.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("google: create download request: %w", err)
	}
	c.attachKey(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("google: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("google: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("google: read download: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) attachKey(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
}

func (c *Client) do(req *http.Request, out any) error {
	c.attachKey(req)
	req.Header.Set("User-Agent", "generation-engine/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google: invoke api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("google: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(data) > 0 {
			return fmt.Errorf("google: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("google: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("google: decode response: %w", err)
	}
	return nil
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// Wire types shared by the generateContent-based providers.

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig  `json:"imageConfig,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

// referencePart turns one reference media entry into an API part. Entries
// may be data URLs, raw base64 payloads or local file paths.
func referencePart(entry string) (*part, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, false
	}

	if strings.HasPrefix(entry, "data:image/") {
		pieces := strings.SplitN(entry, ",", 2)
		if len(pieces) != 2 {
			return nil, false
		}
		mime := strings.TrimSuffix(strings.TrimPrefix(pieces[0], "data:"), ";base64")
		return &part{InlineData: &inlineData{MimeType: mime, Data: pieces[1]}}, true
	}

	if looksLikeBase64(entry) {
		return &part{InlineData: &inlineData{MimeType: "image/jpeg", Data: entry}}, true
	}

	if strings.HasPrefix(entry, "/") || strings.HasPrefix(entry, "./") {
		data, err := os.ReadFile(entry)
		if err != nil {
			return nil, false
		}
		mime := "image/jpeg"
		switch {
		case strings.HasSuffix(strings.ToLower(entry), ".png"):
			mime = "image/png"
		case strings.HasSuffix(strings.ToLower(entry), ".webp"):
			mime = "image/webp"
		}
		return &part{InlineData: &inlineData{
			MimeType: mime,
			Data:     base64.StdEncoding.EncodeToString(data),
		}}, true
	}

	return nil, false
}

func looksLikeBase64(s string) bool {
	if len(s) < 100 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '+' || r == '/' || r == '=':
		default:
			return false
		}
	}
	return true
}
