package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "agent:\n  name: demo\n"))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Agent.Name)
	assert.Equal(t, "0.1.0", cfg.Agent.Version)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddress)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "http://localhost:8080/", cfg.Agent.URL)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("AGENT_NAME", "from-env")
	cfg, err := Load(writeConfig(t, "agent:\n  name: ${AGENT_NAME}\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Agent.Name)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeConfig(t, "agent:\n  name: demo\n  nope: true\n"))
	assert.Error(t, err)
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	_, err := Load(writeConfig(t, "agent:\n  name: demo\nlogging:\n  format: xml\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCard(t *testing.T) {
	streaming := false
	cfg := &Config{
		Agent: AgentConfig{
			Name: "demo", Version: "2.0.0", URL: "https://agent.example/",
			Streaming:  &streaming,
			Extensions: []string{"https://ext.example/trace"},
		},
		Server: ServerConfig{HTTPAddress: ":8080", GRPCAddress: ":9090"},
		Push:   PushConfig{Enabled: true},
	}

	card := cfg.Card()
	assert.Equal(t, a2a.ProtocolVersion, card.ProtocolVersion)
	assert.Equal(t, a2a.TransportJSONRPC, card.PreferredTransport)
	assert.False(t, card.Capabilities.Streaming)
	assert.True(t, card.Capabilities.PushNotifications)
	require.Len(t, card.AdditionalInterfaces, 2)
	assert.Equal(t, a2a.TransportREST, card.AdditionalInterfaces[0].Transport)
	assert.Equal(t, a2a.TransportGRPC, card.AdditionalInterfaces[1].Transport)
	require.Len(t, card.Capabilities.Extensions, 1)
	assert.Equal(t, "https://ext.example/trace", card.Capabilities.Extensions[0].URI)
	assert.Equal(t, []string{"text/plain"}, card.DefaultInputModes)
	assert.Equal(t, []string{"text/plain"}, card.DefaultOutputModes)
}

func TestCardStreamingDefaultsOn(t *testing.T) {
	cfg := &Config{Agent: AgentConfig{Name: "demo", Version: "1.0.0", URL: "u"}}
	assert.True(t, cfg.Card().Capabilities.Streaming)
}
