// Package transport defines request/response DTOs for the buyers HTTP API.
package transport

import (
	"encoding/json"
	"time"

	"leadexchange_backend/internal/buyers/domain"

	"github.com/google/uuid"
)

type AuthConfigDTO struct {
	Type        string `json:"type" validate:"omitempty,oneof=none bearer basic header"`
	Token       string `json:"token,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	HeaderName  string `json:"headerName,omitempty"`
	HeaderValue string `json:"headerValue,omitempty"`
}

func (d AuthConfigDTO) ToDomain() domain.AuthConfig {
	return domain.AuthConfig{
		Type:        domain.AuthType(d.Type),
		Token:       d.Token,
		Username:    d.Username,
		Password:    d.Password,
		HeaderName:  d.HeaderName,
		HeaderValue: d.HeaderValue,
	}
}

type CreateBuyerRequest struct {
	Name               string        `json:"name" validate:"required,min=1,max=200"`
	EndpointURL        string        `json:"endpointUrl" validate:"required,url"`
	Auth               AuthConfigDTO `json:"auth"`
	PingTimeoutSeconds int           `json:"pingTimeoutSeconds" validate:"omitempty,gte=0,lte=120"`
	PostTimeoutSeconds int           `json:"postTimeoutSeconds" validate:"omitempty,gte=0,lte=120"`
	Active             bool          `json:"active"`
}

func (r CreateBuyerRequest) ToDomain() domain.Buyer {
	return domain.Buyer{
		Name:        r.Name,
		EndpointURL: r.EndpointURL,
		Auth:        r.Auth.ToDomain(),
		PingTimeout: time.Duration(r.PingTimeoutSeconds) * time.Second,
		PostTimeout: time.Duration(r.PostTimeoutSeconds) * time.Second,
		Active:      r.Active,
	}
}

type UpdateBuyerRequest = CreateBuyerRequest

// BuyerResponse never echoes credentials back; only the auth type is exposed.
type BuyerResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	EndpointURL        string    `json:"endpointUrl"`
	AuthType           string    `json:"authType"`
	PingTimeoutSeconds int       `json:"pingTimeoutSeconds"`
	PostTimeoutSeconds int       `json:"postTimeoutSeconds"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func BuyerFromDomain(b domain.Buyer) BuyerResponse {
	authType := string(b.Auth.Type)
	if authType == "" {
		authType = string(domain.AuthNone)
	}
	return BuyerResponse{
		ID:                 b.ID,
		Name:               b.Name,
		EndpointURL:        b.EndpointURL,
		AuthType:           authType,
		PingTimeoutSeconds: int(b.PingTimeout / time.Second),
		PostTimeoutSeconds: int(b.PostTimeout / time.Second),
		Active:             b.Active,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// ConfigRequest reuses the domain configuration types directly; their JSON
// tags define the wire shape and domain.Config.Validate is the gatekeeper.
type ConfigRequest struct {
	ServiceType string                 `json:"serviceType" validate:"required,min=1,max=100"`
	Mappings    []domain.FieldMapping  `json:"mappings" validate:"required,min=1"`
	StaticPing  []domain.StaticField   `json:"staticPing,omitempty"`
	StaticPost  []domain.StaticField   `json:"staticPost,omitempty"`
	Response    domain.ResponseMapping `json:"response"`
	Bids        domain.BidRange        `json:"bids"`
	Active      bool                   `json:"active"`
}

func (r ConfigRequest) ToDomain(buyerID uuid.UUID) domain.Config {
	return domain.Config{
		BuyerID:     buyerID,
		ServiceType: r.ServiceType,
		Mappings:    r.Mappings,
		StaticPing:  r.StaticPing,
		StaticPost:  r.StaticPost,
		Response:    r.Response,
		Bids:        r.Bids,
		Active:      r.Active,
	}
}

type ConfigResponse struct {
	ID          uuid.UUID              `json:"id"`
	BuyerID     uuid.UUID              `json:"buyerId"`
	ServiceType string                 `json:"serviceType"`
	Mappings    []domain.FieldMapping  `json:"mappings"`
	StaticPing  []domain.StaticField   `json:"staticPing,omitempty"`
	StaticPost  []domain.StaticField   `json:"staticPost,omitempty"`
	Response    domain.ResponseMapping `json:"response"`
	Bids        domain.BidRange        `json:"bids"`
	Active      bool                   `json:"active"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func ConfigFromDomain(c domain.Config) ConfigResponse {
	return ConfigResponse{
		ID:          c.ID,
		BuyerID:     c.BuyerID,
		ServiceType: c.ServiceType,
		Mappings:    c.Mappings,
		StaticPing:  c.StaticPing,
		StaticPost:  c.StaticPost,
		Response:    c.Response,
		Bids:        c.Bids,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// PreviewRequest asks for a dry-run render of a configuration against sample
// form answers, without touching any buyer endpoint.
type PreviewRequest struct {
	Phase   string         `json:"phase" validate:"required,oneof=PING POST"`
	Answers map[string]any `json:"answers" validate:"required"`
}

// PreviewFieldError is one per-field transform failure surfaced by a preview.
type PreviewFieldError struct {
	Field     string `json:"field"`
	Transform string `json:"transform,omitempty"`
	Message   string `json:"message"`
}

// PreviewResponse carries the rendered payload in field order. RenderError is
// set when the render aborted (missing required field or a failed required
// transform); Payload is null in that case.
type PreviewResponse struct {
	Phase       string              `json:"phase"`
	Payload     json.RawMessage     `json:"payload,omitempty"`
	Fields      []string            `json:"fields,omitempty"`
	FieldErrors []PreviewFieldError `json:"fieldErrors,omitempty"`
	RenderError string              `json:"renderError,omitempty"`
}
