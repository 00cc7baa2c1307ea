package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/apiclient/gateway"
)

// DefaultSessionPath is the backend session endpoint.
const DefaultSessionPath = "/_session"

// Requester issues gateway requests. *apiclient.Client and
// *gateway.Gateway implement it.
type Requester interface {
	Request(ctx context.Context, method, path string, opts gateway.Options) *gateway.Call
}

// SessionConfig configures a SessionSource.
type SessionConfig struct {
	// Path is the session endpoint.
	// Default: DefaultSessionPath
	Path string `yaml:"path"`

	// Body is posted to Path, typically the user credentials.
	Body any `yaml:"-"`
}

// sessionResponse is the accepted session reply. ExpiresIn is in seconds;
// without it the exp claim of a JWT token is used.
type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// SessionSource fetches tokens by posting to the session endpoint.
type SessionSource struct {
	requester Requester
	config    SessionConfig
	now       func() time.Time
}

// NewSessionSource creates a SessionSource.
func NewSessionSource(requester Requester, config SessionConfig) (*SessionSource, error) {
	if requester == nil {
		return nil, ErrNilRequester
	}
	if config.Path == "" {
		config.Path = DefaultSessionPath
	}
	return &SessionSource{requester: requester, config: config, now: time.Now}, nil
}

// Token implements Source.
func (s *SessionSource) Token(ctx context.Context) (Token, error) {
	resp, err := s.requester.Request(WithoutAuth(ctx), http.MethodPost, s.config.Path, gateway.Options{
		Body: s.config.Body,
	}).Wait(ctx)
	if err != nil {
		return Token{}, err
	}

	var body sessionResponse
	if err := resp.Decode(&body); err != nil {
		return Token{}, fmt.Errorf("auth: decode session: %w", err)
	}
	if body.Token == "" {
		return Token{}, ErrEmptyToken
	}

	tok := Token{Value: body.Token}
	if body.ExpiresIn > 0 {
		tok.Expiry = s.now().Add(time.Duration(body.ExpiresIn) * time.Second)
		return tok, nil
	}
	if exp, err := ExpiryOf(body.Token); err == nil {
		tok.Expiry = exp
	}
	return tok, nil
}

var _ Source = (*SessionSource)(nil)
