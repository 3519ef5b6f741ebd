package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

// Generation parameters sent with every fallback request.
const (
	temperature     = 0.7
	topP            = 0.8
	topK            = 40
	maxOutputTokens = 1024
)

// ErrMissingCredential reports that no API key could be resolved.
var ErrMissingCredential = errors.New("gemini: api key is not configured")

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// CredentialError wraps any failure to obtain the API key.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("gemini: resolve api key: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

func (e *CredentialError) CredentialMissing() bool { return true }

// ProviderError reports a failed generateContent call or an unusable payload.
type ProviderError struct {
	StatusCode int
	Reason     string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini: %s (status %d): %v", e.Reason, e.StatusCode, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("gemini: %s: %v", e.Reason, e.Err)
	}
	return "gemini: " + e.Reason
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) HTTPStatusCode() int { return e.StatusCode }

// tokenPayload is the JSON shape accepted for keys stored in SSM.
type tokenPayload struct {
	Token string `json:"token"`
}

// Client generates fallback answers with the Gemini API.
type Client struct {
	getter     Getter
	keyName    string
	model      string
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	genai     *genai.Client
	clientKey string
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client whose API key is looked up through getter under
// keyName on every call, so a key added after start-up is picked up.
func NewClient(getter Getter, keyName string, opts ...Option) (*Client, error) {
	if getter == nil {
		return nil, errors.New("gemini: key getter must not be nil")
	}
	keyName = strings.TrimSpace(keyName)
	if keyName == "" {
		return nil, errors.New("gemini: key name must not be empty")
	}
	c := &Client{
		getter:  getter,
		keyName: keyName,
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate sends prompt as a single user turn and returns the text of the
// first part of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	key, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", goerr.Wrap(&CredentialError{Err: err}, "failed to resolve gemini api key", goerr.V("parameter", c.keyName))
	}

	client, err := c.client(ctx, key)
	if err != nil {
		return "", goerr.Wrap(&ProviderError{Reason: "create client", Err: err}, "failed to create genai client")
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generationConfig())
	if err != nil {
		perr := &ProviderError{Reason: "generate content", Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.Code
		}
		return "", goerr.Wrap(perr, "failed to generate content", goerr.V("model", c.model))
	}

	text, err := firstPartText(resp)
	if err != nil {
		return "", goerr.Wrap(err, "unexpected gemini response", goerr.V("model", c.model))
	}
	return text, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](temperature),
		TopP:            genai.Ptr[float32](topP),
		TopK:            genai.Ptr[float32](topK),
		MaxOutputTokens: maxOutputTokens,
	}
}

func firstPartText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ProviderError{Reason: "no candidates in response"}
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return "", &ProviderError{Reason: "first candidate has no content parts"}
	}
	text := cand.Content.Parts[0].Text
	if text == "" {
		return "", &ProviderError{Reason: "first content part has no text"}
	}
	return text, nil
}

// client returns a genai client for key, rebuilding it when the key rotates.
func (c *Client) client(ctx context.Context, key string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genai != nil && c.clientKey == key {
		return c.genai, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions.BaseURL = c.baseURL
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.genai = client
	c.clientKey = key
	return client, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	raw, err := c.getter.GetParameter(ctx, c.keyName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	key := parseAPIKey(raw)
	if key == "" {
		return "", ErrMissingCredential
	}
	return key, nil
}

// parseAPIKey accepts either a bare key or the {"token": "..."} JSON document.
func parseAPIKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return ""
		}
		return strings.TrimSpace(tp.Token)
	}
	return raw
}
