package gigachat

import (
	"bant-agent-be/pkg/llm"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultAPIURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	DefaultModel   = "GigaChat-Pro"
	DefaultScope   = "GIGACHAT_API_PERS"
)

// tokenSkew refreshes the access token slightly before it expires.
const tokenSkew = 30 * time.Second

// Config holds GigaChat credentials and endpoints.
type Config struct {
	AuthKey   string // base64(client_id:client_secret), without the "Basic " prefix
	Scope     string
	Model     string
	AuthURL   string
	APIURL    string
	VerifySSL bool
	Timeout   time.Duration
}

// GigaChatProvider talks to the GigaChat chat-completions API. Access
// tokens are fetched via OAuth v2 and cached until shortly before
// expiry; a 401 on the chat call triggers one transparent re-auth.
type GigaChatProvider struct {
	cfg    Config
	client *http.Client

	mu    sync.Mutex
	token string
	expAt time.Time
}

// Ensure GigaChatProvider implements LLMProvider
var _ llm.LLMProvider = &GigaChatProvider{}

func NewGigaChatProvider(cfg Config) (*GigaChatProvider, error) {
	if cfg.AuthKey == "" {
		return nil, fmt.Errorf("gigachat: auth key is required")
	}
	if cfg.Scope == "" {
		cfg.Scope = DefaultScope
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	transport := http.DefaultTransport
	if !cfg.VerifySSL {
		// The Sber endpoints use the Russian trusted root CA, which is
		// rarely present in container base images.
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &GigaChatProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiresAt   int64  `json:"expires_at"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *GigaChatProvider) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{"scope": {g.cfg.Scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &llm.TransportError{Provider: "gigachat", Err: err}
	}
	req.Header.Set("Authorization", "Basic "+g.cfg.AuthKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &llm.TransportError{Provider: "gigachat", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.TransportError{Provider: "gigachat", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &llm.TransportError{
			Provider: "gigachat",
			Err:      fmt.Errorf("oauth status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var payload oauthResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &llm.TransportError{Provider: "gigachat", Err: fmt.Errorf("oauth response: %w", err)}
	}

	g.mu.Lock()
	g.token = payload.AccessToken
	switch {
	case payload.ExpiresAt > 0:
		// expires_at is reported in unix milliseconds
		g.expAt = time.UnixMilli(payload.ExpiresAt)
	case payload.ExpiresIn > 0:
		g.expAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	default:
		g.expAt = time.Now().Add(30 * time.Minute)
	}
	token := g.token
	g.mu.Unlock()

	return token, nil
}

func (g *GigaChatProvider) ensureToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	token, expAt := g.token, g.expAt
	g.mu.Unlock()
	if token != "" && time.Now().Before(expAt.Add(-tokenSkew)) {
		return token, nil
	}
	return g.fetchToken(ctx)
}

func (g *GigaChatProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]chatMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		messages[i] = chatMessage{Role: role, Content: msg.Content}
	}

	model := g.cfg.Model
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	if options.JSONMode {
		reqPayload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	token, err := g.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	// One transparent retry on 401: the cached token may have been
	// revoked before its reported expiry.
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			g.cfg.APIURL+"/chat/completions", bytes.NewReader(payloadBytes))
		if err != nil {
			return "", &llm.TransportError{Provider: "gigachat", Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return "", &llm.TransportError{Provider: "gigachat", Err: err}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", &llm.TransportError{Provider: "gigachat", Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			token, err = g.fetchToken(ctx)
			if err != nil {
				return "", err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", &llm.TransportError{
				Provider: "gigachat",
				Err:      fmt.Errorf("chat status %d: %s", resp.StatusCode, string(body)),
			}
		}

		var chatResp chatResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return "", &llm.TransportError{Provider: "gigachat", Err: fmt.Errorf("chat response: %w", err)}
		}
		if len(chatResp.Choices) == 0 {
			return "", &llm.TransportError{Provider: "gigachat", Err: fmt.Errorf("no choices in response")}
		}
		return chatResp.Choices[0].Message.Content, nil
	}

	return "", &llm.TransportError{Provider: "gigachat", Err: fmt.Errorf("chat failed after re-auth retry")}
}

func (g *GigaChatProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
