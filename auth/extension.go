package auth

import (
	"context"
	"time"

	"github.com/jonwraymond/apiclient"
	"github.com/jonwraymond/apiclient/extension"
)

// ExtensionName is the conventional mount name.
const ExtensionName = "auth"

var (
	_ Requester          = (*apiclient.Client)(nil)
	_ extension.Disposer = (*Manager)(nil)
)

// Config configures the auth extension.
type Config struct {
	// Signer mints tokens locally when set. Otherwise tokens come from the
	// session endpoint.
	Signer *SignerConfig `yaml:"signer"`

	Session SessionConfig `yaml:"session"`

	// RefreshSkew renews tokens this long before expiry.
	// Default: DefaultRefreshSkew
	RefreshSkew time.Duration `yaml:"refresh_skew"`
}

// Factory returns an extension factory. The mounted module is the *Manager;
// it installs its Hook on the client. Disposing the Manager, on client
// Dispose or when Extend replaces it, removes the hook and drops the token.
func Factory(config Config) apiclient.Factory {
	return func(c *apiclient.Client) (any, error) {
		var source Source
		if config.Signer != nil {
			signer, err := NewSigner(*config.Signer)
			if err != nil {
				return nil, err
			}
			source = signer
		} else {
			session, err := NewSessionSource(c, config.Session)
			if err != nil {
				return nil, err
			}
			source = session
		}

		var opts []ManagerOption
		if config.RefreshSkew > 0 {
			opts = append(opts, WithRefreshSkew(config.RefreshSkew))
		}
		m, err := NewManager(source, opts...)
		if err != nil {
			return nil, err
		}

		m.OnDispose(c.Use(m.Hook()))
		m.OnDispose(func() {
			c.Logger().Debug(context.Background(), "auth token dropped")
		})
		return m, nil
	}
}
