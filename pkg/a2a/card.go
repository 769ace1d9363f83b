package a2a

// ============================================================================
// AGENT CARD - Agent Discovery & Capability Advertisement
// ============================================================================

// Transport protocol labels used in agent cards and by the client factory.
const (
	TransportJSONRPC = "JSONRPC"
	TransportGRPC    = "GRPC"
	TransportREST    = "HTTP+JSON"
)

// WellKnownCardPath is the default discovery path for agent cards.
const WellKnownCardPath = "/.well-known/agent-card.json"

// ProtocolVersion is the A2A protocol revision this module implements.
const ProtocolVersion = "0.3.0"

// ExtensionsHeader carries the comma-joined activated extension URIs on HTTP
// requests; the gRPC transport uses the lowercase form as metadata key.
const (
	ExtensionsHeader      = "X-A2A-Extensions"
	ExtensionsMetadataKey = "x-a2a-extensions"
)

// AgentCard is a peer's self-description: identity, transports, capabilities,
// skills, and security requirements.
type AgentCard struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description,omitempty"`
	Version              string           `json:"version"`
	URL                  string           `json:"url"`
	ProtocolVersion      string           `json:"protocolVersion,omitempty"`
	PreferredTransport   string           `json:"preferredTransport,omitempty"`
	AdditionalInterfaces []AgentInterface `json:"additionalInterfaces,omitempty"`

	Capabilities AgentCapabilities `json:"capabilities"`
	Skills       []AgentSkill      `json:"skills,omitempty"`

	DefaultInputModes  []string `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string `json:"defaultOutputModes,omitempty"`

	Security        []map[string][]string     `json:"security,omitempty"`
	SecuritySchemes map[string]SecurityScheme `json:"securitySchemes,omitempty"`

	SupportsAuthenticatedExtendedCard bool                 `json:"supportsAuthenticatedExtendedCard,omitempty"`
	Signatures                        []AgentCardSignature `json:"signatures,omitempty"`
}

// AgentInterface advertises one additional transport endpoint.
type AgentInterface struct {
	Transport string `json:"transport"`
	URL       string `json:"url"`
}

// AgentCapabilities describes optional protocol features the agent supports.
type AgentCapabilities struct {
	Streaming              bool             `json:"streaming"`
	PushNotifications      bool             `json:"pushNotifications"`
	StateTransitionHistory bool             `json:"stateTransitionHistory,omitempty"`
	Extensions             []AgentExtension `json:"extensions,omitempty"`
}

// AgentExtension declares a protocol extension the agent understands.
type AgentExtension struct {
	URI         string         `json:"uri"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// AgentSkill describes one capability the agent exposes to callers.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// SecurityScheme describes one authentication mechanism, discriminated by
// Type: "apiKey", "http", "oauth2", or "openIdConnect".
type SecurityScheme struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`

	// apiKey
	Name string `json:"name,omitempty"` // header/query/cookie parameter name
	In   string `json:"in,omitempty"`   // "header", "query", or "cookie"

	// http
	Scheme       string `json:"scheme,omitempty"` // "bearer", "basic"
	BearerFormat string `json:"bearerFormat,omitempty"`

	// openIdConnect
	OpenIDConnectURL string `json:"openIdConnectUrl,omitempty"`

	// oauth2
	Flows map[string]OAuthFlow `json:"flows,omitempty"`
}

// OAuthFlow holds the endpoints and scopes of one OAuth 2.0 flow.
type OAuthFlow struct {
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	TokenURL         string            `json:"tokenUrl,omitempty"`
	RefreshURL       string            `json:"refreshUrl,omitempty"`
	Scopes           map[string]string `json:"scopes,omitempty"`
}

// AgentCardSignature is a detached JWS over the card body. Verification is
// delegated to a caller-provided verifier.
type AgentCardSignature struct {
	Protected string         `json:"protected"`
	Signature string         `json:"signature"`
	Header    map[string]any `json:"header,omitempty"`
}

// CardVerifier validates a fetched agent card, typically by checking its
// signatures. A nil verifier accepts every card.
type CardVerifier func(*AgentCard) error

// InterfaceURL returns the URL the card advertises for the given transport
// label, or empty if the card does not offer it. The preferred transport is
// consulted first, then the additional interfaces in card order.
func (c *AgentCard) InterfaceURL(transport string) string {
	if c.PreferredTransport == transport || (c.PreferredTransport == "" && transport == TransportJSONRPC) {
		return c.URL
	}
	for _, iface := range c.AdditionalInterfaces {
		if iface.Transport == transport {
			return iface.URL
		}
	}
	return ""
}

// Interfaces returns every (transport, url) pair the card advertises, the
// preferred transport first, preserving card order for the rest.
func (c *AgentCard) Interfaces() []AgentInterface {
	preferred := c.PreferredTransport
	if preferred == "" {
		preferred = TransportJSONRPC
	}
	out := []AgentInterface{{Transport: preferred, URL: c.URL}}
	for _, iface := range c.AdditionalInterfaces {
		if iface.Transport == preferred && iface.URL == c.URL {
			continue
		}
		out = append(out, iface)
	}
	return out
}
