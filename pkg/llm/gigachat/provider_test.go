package gigachat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bant-agent-be/pkg/llm"
)

type fakeBackend struct {
	oauthCalls   int
	chatCalls    int
	lastChatBody map[string]interface{}
	// a chat call with this (stale) token gets 401 once
	staleToken string
}

func newFakeServers(t *testing.T) (*fakeBackend, *httptest.Server, *httptest.Server) {
	b := &fakeBackend{}

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.oauthCalls++
		if r.Header.Get("Authorization") != "Basic dGVzdC1rZXk=" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("RqUID") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		token := "token-1"
		if b.oauthCalls > 1 {
			token = "token-2"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": token,
			"expires_in":   1800,
		})
	}))

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.chatCalls++
		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if bearer == b.staleToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		b.lastChatBody = body
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": `{"ok":true}`}},
			},
		})
	}))

	t.Cleanup(auth.Close)
	t.Cleanup(api.Close)
	return b, auth, api
}

func newTestProvider(t *testing.T, auth, api *httptest.Server) *GigaChatProvider {
	p, err := NewGigaChatProvider(Config{
		AuthKey:   "dGVzdC1rZXk=",
		Model:     "GigaChat-Pro",
		AuthURL:   auth.URL,
		APIURL:    api.URL,
		VerifySSL: true,
	})
	require.NoError(t, err)
	return p
}

func TestChatAuthenticatesAndSendsRequest(t *testing.T) {
	backend, auth, api := newFakeServers(t)
	p := newTestProvider(t, auth, api)

	got, err := p.Chat(context.Background(),
		[]llm.Message{
			{Role: "system", Content: "правила"},
			{Role: "user", Content: "вопрос"},
		},
		llm.WithJSONMode(),
		llm.WithTemperature(0.1),
	)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)

	assert.Equal(t, 1, backend.oauthCalls)
	assert.Equal(t, "GigaChat-Pro", backend.lastChatBody["model"])
	assert.Equal(t, 0.1, backend.lastChatBody["temperature"])
	rf, ok := backend.lastChatBody["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])
}

func TestChatReusesCachedToken(t *testing.T) {
	backend, auth, api := newFakeServers(t)
	p := newTestProvider(t, auth, api)

	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "раз"}})
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "два"}})
	require.NoError(t, err)

	assert.Equal(t, 1, backend.oauthCalls)
	assert.Equal(t, 2, backend.chatCalls)
}

func TestChatReauthenticatesOn401(t *testing.T) {
	backend, auth, api := newFakeServers(t)
	p := newTestProvider(t, auth, api)

	// Warm the token cache, then have the backend reject it.
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "раз"}})
	require.NoError(t, err)
	backend.staleToken = "token-1"

	got, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "два"}})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)

	assert.Equal(t, 2, backend.oauthCalls)
	// first call, rejected retry, successful retry
	assert.Equal(t, 3, backend.chatCalls)
}

func TestChatServerErrorIsTransportError(t *testing.T) {
	_, auth, _ := newFakeServers(t)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(broken.Close)

	p := newTestProvider(t, auth, broken)
	_, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "вопрос"}})
	require.Error(t, err)
	assert.IsType(t, &llm.TransportError{}, err)
}

func TestNewProviderRequiresAuthKey(t *testing.T) {
	_, err := NewGigaChatProvider(Config{})
	require.Error(t, err)
}
