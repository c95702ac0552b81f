package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const superuTimeout = 12 * time.Second

// SuperUClient calls the SuperU outbound-calling API. Grounded on
// backend/app/infrastructure/superu_client.py: same header name, same
// endpoints, same 12s timeout, same disabled-returns-empty contract for
// read calls so a missing provider configuration degrades gracefully
// instead of erroring every poll tick.
//
// golang.org/x/time/rate paces StartOutboundCall: SPEC_FULL's domain
// stack calls for this dependency, and a token bucket is the correct
// model here — unlike the ingress rate limiter (see internal/ratelimit),
// which needs a concrete reset-epoch for its wire contract, pacing
// outbound calls to a real telephony API is exactly what x/time/rate is
// for.
type SuperUClient struct {
	enabled     bool
	apiURL      string
	apiKey      string
	assistantID string
	fromNumber  string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSuperUClient builds a client. enabled should already reflect both
// the config flag and apiKey being non-empty — mirroring the Python
// client's own `enabled = configured and bool(api_key)`.
func NewSuperUClient(apiURL, apiKey, assistantID, fromNumber string, enabled bool, callsPerSecond float64) *SuperUClient {
	if callsPerSecond <= 0 {
		callsPerSecond = 2
	}
	return &SuperUClient{
		enabled:     enabled && apiKey != "",
		apiURL:      apiURL,
		apiKey:      apiKey,
		assistantID: assistantID,
		fromNumber:  fromNumber,
		httpClient:  &http.Client{Timeout: superuTimeout},
		limiter:     rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
}

// Enabled reports whether this client can place calls at all.
func (c *SuperUClient) Enabled() bool { return c != nil && c.enabled }

// StartCallResult is the normalized response to an outbound-call request.
type StartCallResult struct {
	ProviderCallID string
	Raw            map[string]interface{}
}

// StartOutboundCall dials out to phoneNumber using the script's rendered
// text, mirroring start_outbound_call's POST to
// /api/v1/call/outbound-call.
func (c *SuperUClient) StartOutboundCall(ctx context.Context, phoneNumber, scriptText string, metadata map[string]interface{}) (*StartCallResult, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("superu: client not configured")
	}
	if c.assistantID == "" {
		return nil, fmt.Errorf("superu: missing assistant id")
	}
	if c.fromNumber == "" {
		return nil, fmt.Errorf("superu: missing from phone number")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("superu: rate limit wait: %w", err)
	}

	body := map[string]interface{}{
		"assistant_id": c.assistantID,
		"from_number":  c.fromNumber,
		"to_number":    phoneNumber,
		"script":       scriptText,
		"metadata":     metadata,
	}
	var raw map[string]interface{}
	if err := c.post(ctx, "/api/v1/call/outbound-call", body, &raw); err != nil {
		return nil, err
	}

	id, _ := raw["call_id"].(string)
	if id == "" {
		id, _ = raw["id"].(string)
	}
	return &StartCallResult{ProviderCallID: id, Raw: raw}, nil
}

// FetchCallLogs polls for status updates on callID, returning [] when
// the client is disabled rather than erroring — a scheduler tick with
// no configured provider should be a silent no-op, not a failure.
func (c *SuperUClient) FetchCallLogs(ctx context.Context, callID string, limit int) ([]map[string]interface{}, error) {
	if !c.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	path := fmt.Sprintf("/api/v1/call/logs?call_id=%s&limit=%d", callID, limit)
	var raw interface{}
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return normalizeCallLogs(raw), nil
}

// normalizeCallLogs accepts a bare list, a {data|results|logs|items|calls:
// [...]} envelope, or wraps an unrecognized single-object payload as one
// row — matching fetch_call_logs's tolerant response-shape handling.
func normalizeCallLogs(raw interface{}) []map[string]interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return toMapSlice(v)
	case map[string]interface{}:
		for _, key := range []string{"data", "results", "logs", "items", "calls"} {
			if inner, ok := v[key].([]interface{}); ok {
				return toMapSlice(inner)
			}
		}
		return []map[string]interface{}{v}
	default:
		return nil
	}
}

func toMapSlice(raw []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func (c *SuperUClient) post(ctx context.Context, path string, body interface{}, dst interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("superu: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("superu: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("superU-Api-Key", c.apiKey)
	return c.do(req, dst)
}

func (c *SuperUClient) get(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("superu: build request: %w", err)
	}
	req.Header.Set("superU-Api-Key", c.apiKey)
	return c.do(req, dst)
}

func (c *SuperUClient) do(req *http.Request, dst interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("superu: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("superu: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("superu: status %d: %s", resp.StatusCode, string(data))
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("superu: decode response: %w", err)
	}
	return nil
}
