package auction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	buyersdomain "leadexchange_backend/internal/buyers/domain"
	"leadexchange_backend/internal/mapping"
)

// maxResponseBytes caps how much of a buyer response body is read and stored.
const maxResponseBytes = 1 << 20

// CallResult is the raw outcome of one HTTP call to a buyer endpoint.
type CallResult struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Client performs outbound HTTP calls to buyer endpoints. Timeouts are
// enforced per call through the context, not on the underlying http.Client,
// because every buyer carries its own limits.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Call posts the payload to the buyer endpoint and returns the raw response.
// A non-2xx status is not an error here; interpretation belongs to the
// normalizer. The returned latency is valid even when err is non-nil.
func (c *Client) Call(ctx context.Context, buyer buyersdomain.Buyer, payload *mapping.Payload, timeout time.Duration) (CallResult, error) {
	body, err := payload.MarshalJSON()
	if err != nil {
		return CallResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, buyer.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return CallResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	applyAuth(req, buyer.Auth)

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		// Surface the context error so callers can distinguish a timeout
		// from a connection failure.
		if ctxErr := callCtx.Err(); ctxErr != nil {
			return CallResult{Latency: latency}, ctxErr
		}
		return CallResult{Latency: latency}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latency = time.Since(start)
	if err != nil {
		return CallResult{StatusCode: resp.StatusCode, Latency: latency}, fmt.Errorf("read response: %w", err)
	}

	return CallResult{StatusCode: resp.StatusCode, Body: raw, Latency: latency}, nil
}

func applyAuth(req *http.Request, auth buyersdomain.AuthConfig) {
	switch auth.Type {
	case buyersdomain.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case buyersdomain.AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case buyersdomain.AuthHeader:
		req.Header.Set(auth.HeaderName, auth.HeaderValue)
	}
}
