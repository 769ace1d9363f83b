package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/arcwire/arcwire/pkg/a2a"
)

const (
	pushTokenHeader  = "X-A2A-Notification-Token"
	pushMaxAttempts  = 3
	pushInitialDelay = 500 * time.Millisecond
	pushTimeout      = 10 * time.Second
)

// HTTPPushSender posts task snapshots to every webhook registered for the
// task. Each delivery retries transient failures with exponential backoff;
// a webhook that keeps failing is logged and skipped, never propagated.
type HTTPPushSender struct {
	store      PushConfigStore
	httpClient *http.Client
	signingKey any // private key for JWT request signing, nil disables
	issuer     string
	log        *slog.Logger
}

// PushSenderOption customizes an HTTPPushSender.
type PushSenderOption func(*HTTPPushSender)

// WithPushHTTPClient overrides the HTTP client used for deliveries.
func WithPushHTTPClient(client *http.Client) PushSenderOption {
	return func(s *HTTPPushSender) { s.httpClient = client }
}

// WithPushSigning signs each delivery with a JWT carrying the SHA-256 of the
// request body, letting webhooks authenticate the sender and verify payload
// integrity. key must be an RSA or EC private key accepted by jwt.Sign.
func WithPushSigning(key any, issuer string) PushSenderOption {
	return func(s *HTTPPushSender) {
		s.signingKey = key
		s.issuer = issuer
	}
}

// NewHTTPPushSender creates a sender reading webhook configs from store.
func NewHTTPPushSender(store PushConfigStore, opts ...PushSenderOption) *HTTPPushSender {
	s := &HTTPPushSender{
		store:      store,
		httpClient: &http.Client{Timeout: pushTimeout},
		log:        slog.Default().With("component", "push_sender"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send implements PushSender.
func (s *HTTPPushSender) Send(ctx context.Context, task *a2a.Task) {
	configs, err := s.store.List(ctx, task.ID)
	if err != nil {
		s.log.Error("failed to list push configs", "taskId", task.ID, "error", err)
		return
	}
	if len(configs) == 0 {
		return
	}

	body, err := json.Marshal(task)
	if err != nil {
		s.log.Error("failed to encode task for push", "taskId", task.ID, "error", err)
		return
	}

	for _, cfg := range configs {
		if err := s.deliver(ctx, &cfg.PushNotificationConfig, body); err != nil {
			s.log.Warn("push delivery failed",
				"taskId", task.ID,
				"url", cfg.PushNotificationConfig.URL,
				"error", err)
		}
	}
}

func (s *HTTPPushSender) deliver(ctx context.Context, cfg *a2a.PushNotificationConfig, body []byte) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(pushInitialDelay)),
		pushMaxAttempts-1), ctx)

	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if cfg.Token != "" {
			req.Header.Set(pushTokenHeader, cfg.Token)
		}
		if s.signingKey != nil {
			token, err := s.signRequest(body)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to sign push request: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode >= 500 {
			return fmt.Errorf("webhook returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("webhook returned %d", resp.StatusCode))
		}
		return nil
	}, policy)
}

func (s *HTTPPushSender) signRequest(body []byte) (string, error) {
	sum := sha256.Sum256(body)
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		IssuedAt(now).
		Expiration(now.Add(5 * time.Minute)).
		JwtID(uuid.NewString()).
		Claim("request_body_sha256", hex.EncodeToString(sum[:])).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, s.signingKey))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}
