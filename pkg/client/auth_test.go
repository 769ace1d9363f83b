package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func securedCard(schemes map[string]a2a.SecurityScheme, security []map[string][]string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name: "secured", Version: "1.0.0", URL: "https://agent.example/",
		SecuritySchemes: schemes,
		Security:        security,
	}
}

func runInterceptor(t *testing.T, ic Interceptor, card *a2a.AgentCard) *Request {
	t.Helper()
	req, err := applyInterceptors(context.Background(), []Interceptor{ic}, a2a.MethodTasksGet, nil, card, &CallContext{SessionID: "s1"}, 0)
	require.NoError(t, err)
	return req
}

func TestAuthInterceptorAPIKeyHeader(t *testing.T) {
	card := securedCard(
		map[string]a2a.SecurityScheme{"api": {Type: "apiKey", Name: "X-Api-Key", In: "header"}},
		[]map[string][]string{{"api": {}}},
	)
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{"api": "sekret"}), card)
	assert.Equal(t, "sekret", req.Header.Get("X-Api-Key"))
}

func TestAuthInterceptorBearer(t *testing.T) {
	card := securedCard(
		map[string]a2a.SecurityScheme{"bearer": {Type: "http", Scheme: "bearer"}},
		[]map[string][]string{{"bearer": {}}},
	)
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{"bearer": "tok"}), card)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
}

func TestAuthInterceptorOAuth2(t *testing.T) {
	card := securedCard(
		map[string]a2a.SecurityScheme{"oauth": {Type: "oauth2"}},
		[]map[string][]string{{"oauth": {"tasks:read"}}},
	)
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{"oauth": "access"}), card)
	assert.Equal(t, "Bearer access", req.Header.Get("Authorization"))
}

func TestAuthInterceptorCookie(t *testing.T) {
	card := securedCard(
		map[string]a2a.SecurityScheme{"session": {Type: "apiKey", Name: "sid", In: "cookie"}},
		[]map[string][]string{{"session": {}}},
	)
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{"session": "abc"}), card)
	assert.Equal(t, "sid=abc", req.Header.Get("Cookie"))
}

func TestAuthInterceptorMissingCredentialSkipsSilently(t *testing.T) {
	card := securedCard(
		map[string]a2a.SecurityScheme{"api": {Type: "apiKey", Name: "X-Api-Key", In: "header"}},
		[]map[string][]string{{"api": {}}},
	)
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{}), card)
	assert.Empty(t, req.Header.Get("X-Api-Key"))
}

func TestAuthInterceptorFallsThroughAlternatives(t *testing.T) {
	// The first requirement set has no credential; the second does.
	card := securedCard(
		map[string]a2a.SecurityScheme{
			"primary":  {Type: "http", Scheme: "bearer"},
			"fallback": {Type: "apiKey", Name: "X-Api-Key", In: "header"},
		},
		[]map[string][]string{{"primary": {}}, {"fallback": {}}},
	)
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{"fallback": "k"}), card)
	assert.Equal(t, "k", req.Header.Get("X-Api-Key"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestAuthInterceptorNoSecurity(t *testing.T) {
	card := &a2a.AgentCard{Name: "open", Version: "1.0.0", URL: "u"}
	req := runInterceptor(t, AuthInterceptor(StaticCredentials{"api": "x"}), card)
	assert.Empty(t, req.Header)
}
