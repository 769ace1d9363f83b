package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// CardResolver fetches agent cards from the well-known discovery path.
type CardResolver struct {
	httpClient *http.Client
	path       string
}

// CardResolverOpt customizes a resolver.
type CardResolverOpt func(*CardResolver)

// WithCardPath overrides the default /.well-known/agent-card.json path.
func WithCardPath(path string) CardResolverOpt {
	return func(r *CardResolver) { r.path = path }
}

// WithCardHTTPClient sets the HTTP client used for discovery. A nil client
// keeps the default.
func WithCardHTTPClient(c *http.Client) CardResolverOpt {
	return func(r *CardResolver) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// NewCardResolver creates a resolver with the default path and client.
func NewCardResolver(opts ...CardResolverOpt) *CardResolver {
	r := &CardResolver{
		httpClient: &http.Client{},
		path:       a2a.WellKnownCardPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get fetches and parses the card at <baseURL><path>, invoking verifier if
// one is supplied.
func (r *CardResolver) Get(ctx context.Context, baseURL string, verifier a2a.CardVerifier) (*a2a.AgentCard, error) {
	cardURL := strings.TrimSuffix(baseURL, "/") + r.path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &a2a.HTTPError{Status: resp.StatusCode, Msg: string(body)}
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed agent card", Err: err}
	}
	if verifier != nil {
		if err := verifier(&card); err != nil {
			return nil, fmt.Errorf("agent card verification failed: %w", err)
		}
	}
	return &card, nil
}
