// Package domain provides core business rules for the buyers bounded context:
// buyer records, per-buyer protocol configuration, and the validation that
// rejects malformed configuration at load time rather than mid-auction.
package domain

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// AuthType enumerates the supported buyer endpoint authentication schemes.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
	AuthHeader AuthType = "header"
)

// AuthConfig describes how outbound requests to a buyer endpoint authenticate.
type AuthConfig struct {
	Type AuthType `json:"type"`
	// Token is the bearer token for AuthBearer.
	Token string `json:"token,omitempty"`
	// Username/Password are used for AuthBasic.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// HeaderName/HeaderValue are used for AuthHeader (e.g. X-Api-Key).
	HeaderName  string `json:"headerName,omitempty"`
	HeaderValue string `json:"headerValue,omitempty"`
}

// Validate checks the auth descriptor for internal consistency.
func (a AuthConfig) Validate() error {
	switch a.Type {
	case AuthNone, "":
		return nil
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("bearer auth requires a token")
		}
	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("basic auth requires a username")
		}
	case AuthHeader:
		if a.HeaderName == "" || a.HeaderValue == "" {
			return fmt.Errorf("header auth requires header name and value")
		}
	default:
		return fmt.Errorf("unknown auth type %q", a.Type)
	}
	return nil
}

// Buyer is a purchaser of leads.
type Buyer struct {
	ID          uuid.UUID
	Name        string
	EndpointURL string
	Auth        AuthConfig
	// PingTimeout and PostTimeout bound each outbound call. Zero means the
	// process-wide default applies.
	PingTimeout time.Duration
	PostTimeout time.Duration
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the buyer record before it can participate in auctions.
func (b Buyer) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("buyer name is required")
	}
	parsed, err := url.Parse(b.EndpointURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("buyer endpoint URL %q is not an absolute URL", b.EndpointURL)
	}
	if err := b.Auth.Validate(); err != nil {
		return fmt.Errorf("buyer auth: %w", err)
	}
	if b.PingTimeout < 0 || b.PostTimeout < 0 {
		return fmt.Errorf("buyer timeouts must not be negative")
	}
	return nil
}
