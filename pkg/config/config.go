// Package config loads the server configuration from YAML, with environment
// variable expansion so secrets stay out of config files.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// Config is the root configuration document.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Push    PushConfig    `yaml:"push"`
}

// AgentConfig describes the agent advertised on the card.
type AgentConfig struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Version     string   `yaml:"version"`
	URL         string   `yaml:"url"`
	Streaming   *bool    `yaml:"streaming"`
	Extensions  []string `yaml:"extensions"`
}

// ServerConfig carries the listen addresses.
type ServerConfig struct {
	HTTPAddress string `yaml:"http_address"`
	GRPCAddress string `yaml:"grpc_address"`
}

// LoggingConfig tunes the slog setup.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PushConfig toggles webhook push notifications.
type PushConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads path, expands ${VAR} references from the environment, and
// decodes the YAML strictly.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields with working values.
func (c *Config) SetDefaults() {
	if c.Agent.Name == "" {
		c.Agent.Name = "arcwire-agent"
	}
	if c.Agent.Version == "" {
		c.Agent.Version = "0.1.0"
	}
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Agent.URL == "" {
		c.Agent.URL = "http://localhost" + c.Server.HTTPAddress + "/"
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Agent.Name == "" {
		return fmt.Errorf("agent.name is required")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Card builds the public agent card advertised at the well-known path.
func (c *Config) Card() *a2a.AgentCard {
	streaming := true
	if c.Agent.Streaming != nil {
		streaming = *c.Agent.Streaming
	}

	card := &a2a.AgentCard{
		ProtocolVersion:    a2a.ProtocolVersion,
		Name:               c.Agent.Name,
		Description:        c.Agent.Description,
		Version:            c.Agent.Version,
		URL:                c.Agent.URL,
		PreferredTransport: a2a.TransportJSONRPC,
		Capabilities: a2a.AgentCapabilities{
			Streaming:         streaming,
			PushNotifications: c.Push.Enabled,
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
	}
	card.AdditionalInterfaces = append(card.AdditionalInterfaces,
		a2a.AgentInterface{Transport: a2a.TransportREST, URL: c.Agent.URL})
	if c.Server.GRPCAddress != "" {
		card.AdditionalInterfaces = append(card.AdditionalInterfaces,
			a2a.AgentInterface{Transport: a2a.TransportGRPC, URL: "localhost" + c.Server.GRPCAddress})
	}
	for _, uri := range c.Agent.Extensions {
		card.Capabilities.Extensions = append(card.Capabilities.Extensions,
			a2a.AgentExtension{URI: uri})
	}
	return card
}
