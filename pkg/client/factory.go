package client

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// Config selects transports and tunes the client the factory builds.
type Config struct {
	// SupportedTransports lists the transport labels this process can speak,
	// in preference order. Empty defaults to JSON-RPC only.
	SupportedTransports []string

	// UseClientPreference resolves transport conflicts in favor of
	// SupportedTransports order instead of the card's interface order.
	UseClientPreference bool

	// Streaming gates use of message/stream; when false the facade falls
	// back to polling send_message.
	Streaming bool

	// Extensions are the extension URIs activated on every request.
	Extensions []string

	// Interceptors run on every outbound request, in order.
	Interceptors []Interceptor

	// Timeout is the per-request deadline for non-streaming calls.
	Timeout time.Duration

	// HTTPClient overrides the shared HTTP client of HTTP transports.
	HTTPClient *http.Client

	// Verifier validates fetched agent cards.
	Verifier a2a.CardVerifier
}

// TransportProducer builds a concrete transport for a chosen (card, url)
// pair.
type TransportProducer func(card *a2a.AgentCard, url string, cfg *Config) (Transport, error)

// Factory builds clients from agent cards, selecting the transport both
// sides support. The registry is owned by the factory instance; custom
// transports may be registered under new labels.
type Factory struct {
	mu        sync.RWMutex
	producers map[string]TransportProducer
	config    Config
}

// NewFactory creates a factory with the built-in JSON-RPC, REST, and gRPC
// producers registered.
func NewFactory(cfg Config) *Factory {
	f := &Factory{
		producers: make(map[string]TransportProducer),
		config:    cfg,
	}
	f.Register(a2a.TransportJSONRPC, func(card *a2a.AgentCard, url string, cfg *Config) (Transport, error) {
		return NewJSONRPCTransport(url, card, transportOpts(cfg)), nil
	})
	f.Register(a2a.TransportREST, func(card *a2a.AgentCard, url string, cfg *Config) (Transport, error) {
		return NewRESTTransport(url, card, transportOpts(cfg)), nil
	})
	f.Register(a2a.TransportGRPC, func(card *a2a.AgentCard, url string, cfg *Config) (Transport, error) {
		return NewGRPCTransport(url, card, transportOpts(cfg))
	})
	return f
}

func transportOpts(cfg *Config) TransportOpts {
	interceptors := cfg.Interceptors
	if len(cfg.Extensions) > 0 {
		interceptors = append([]Interceptor{ExtensionsInterceptor(cfg.Extensions)}, interceptors...)
	}
	return TransportOpts{
		HTTPClient:   cfg.HTTPClient,
		Interceptors: interceptors,
		Timeout:      cfg.Timeout,
	}
}

// Register adds or replaces the producer for a transport label.
func (f *Factory) Register(label string, producer TransportProducer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.producers[label] = producer
}

// selectTransport intersects the card's advertised interfaces with the
// client's supported transports and picks the winner per the configured
// preference policy.
func (f *Factory) selectTransport(card *a2a.AgentCard) (string, string, error) {
	clientSet := f.config.SupportedTransports
	if len(clientSet) == 0 {
		clientSet = []string{a2a.TransportJSONRPC}
	}
	serverIfaces := card.Interfaces()

	if f.config.UseClientPreference {
		for _, label := range clientSet {
			for _, iface := range serverIfaces {
				if iface.Transport == label {
					return label, iface.URL, nil
				}
			}
		}
	} else {
		for _, iface := range serverIfaces {
			for _, label := range clientSet {
				if iface.Transport == label {
					return iface.Transport, iface.URL, nil
				}
			}
		}
	}
	return "", "", &a2a.InvalidArgsError{Msg: "no compatible transports found"}
}

// NewClient builds a client for the given card.
func (f *Factory) NewClient(card *a2a.AgentCard) (*Client, error) {
	label, url, err := f.selectTransport(card)
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	producer, ok := f.producers[label]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no transport producer registered for %s", label)
	}
	transport, err := producer(card, url, &f.config)
	if err != nil {
		return nil, err
	}
	return &Client{
		transport: transport,
		card:      card,
		config:    f.config,
	}, nil
}
