package client

import (
	"context"
	"fmt"
	"strings"
)

// CredentialService resolves a credential for a (session, security scheme)
// pair. Implementations decide how tokens are acquired and cached; the
// interceptor only attaches what it is given.
type CredentialService interface {
	Get(ctx context.Context, sessionID, schemeName string) (string, error)
}

// StaticCredentials is a CredentialService backed by a fixed map of scheme
// name to credential, shared across sessions.
type StaticCredentials map[string]string

// Get implements CredentialService.
func (s StaticCredentials) Get(_ context.Context, _ string, schemeName string) (string, error) {
	return s[schemeName], nil
}

// AuthInterceptor attaches credentials to outbound requests according to the
// agent card's security requirements. Missing credentials are skipped
// silently; the server's 401 is how the caller finds out.
func AuthInterceptor(creds CredentialService) Interceptor {
	return InterceptorFunc(func(ctx context.Context, req *Request) error {
		if creds == nil || req.Card == nil || len(req.Card.Security) == 0 {
			return nil
		}
		// Security lists alternative requirement sets; satisfying any one of
		// them is enough. Walk them in card order and attach the first scheme
		// we hold a credential for.
		for _, requirement := range req.Card.Security {
			for schemeName := range requirement {
				scheme, ok := req.Card.SecuritySchemes[schemeName]
				if !ok {
					continue
				}
				token, err := creds.Get(ctx, req.Call.SessionID, schemeName)
				if err != nil || token == "" {
					continue
				}
				switch scheme.Type {
				case "apiKey":
					switch scheme.In {
					case "header", "":
						req.Header.Set(scheme.Name, token)
					case "query":
						// Deferred to the transport via a header it folds
						// into the URL; query-placed API keys are rare.
						req.Header.Set(scheme.Name, token)
					case "cookie":
						req.Header.Add("Cookie", fmt.Sprintf("%s=%s", scheme.Name, token))
					}
					return nil
				case "http":
					if strings.EqualFold(scheme.Scheme, "bearer") {
						req.Header.Set("Authorization", "Bearer "+token)
						return nil
					}
				case "oauth2", "openIdConnect":
					req.Header.Set("Authorization", "Bearer "+token)
					return nil
				}
			}
		}
		return nil
	})
}
