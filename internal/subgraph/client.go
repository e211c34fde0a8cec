// Package subgraph implements the GraphQL transport against the upstream swap
// data sources. Transport failures, GraphQL-level errors and decode failures
// are reported as distinct retryable fault kinds.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/logging"
)

// GraphQLError is one entry of the response-level errors array.
type GraphQLError struct {
	Message   string     `json:"message"`
	Locations []Location `json:"locations,omitempty"`
	Path      []any      `json:"path,omitempty"`
}

// Location points at the query position a GraphQL error refers to.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Response is the raw GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Client posts GraphQL queries over HTTP. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	log        *logging.Logger
}

// NewClient creates a client with the given request timeout.
func NewClient(timeout time.Duration, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Query sends query+variables to url and returns the decoded envelope.
// A non-empty errors array is a hard failure even when data is also present.
// The source label only feeds error context and logs.
func (c *Client) Query(ctx context.Context, source, url, query string, variables map[string]any) (*Response, error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fault.Serialization(source, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fault.Transport(source, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.Transport(source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fault.Transport(source, fmt.Errorf("unexpected status %s", resp.Status))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Transport(source, fmt.Errorf("read response: %w", err))
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fault.Serialization(source, fmt.Errorf("decode response: %w", err))
	}

	if len(decoded.Errors) > 0 {
		msgs := make([]string, len(decoded.Errors))
		for i, e := range decoded.Errors {
			msgs[i] = e.Message
		}
		return nil, fault.Protocol(source, msgs...)
	}

	return &decoded, nil
}
