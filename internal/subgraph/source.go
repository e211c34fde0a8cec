package subgraph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dexrelay-systems/dexrelay/internal/fault"
	"github.com/dexrelay-systems/dexrelay/internal/model"
)

// Source binds the shared client to one upstream endpoint and its
// version-specific swap query.
type Source struct {
	client  *Client
	version model.Version
	url     string
	query   string
}

// NewSource creates a source for the given pool generation and endpoint URL.
func NewSource(client *Client, version model.Version, url string) *Source {
	query := swapsQueryV2
	if version == model.VersionV3 {
		query = swapsQueryV3
	}
	return &Source{
		client:  client,
		version: version,
		url:     url,
		query:   query,
	}
}

// Version reports which pool generation this source serves.
func (s *Source) Version() model.Version { return s.version }

// Name returns the source label used in logs and error context.
func (s *Source) Name() string { return s.version.String() }

// FetchRecent retrieves the most recent swaps, newest first, as raw records.
// Decoding beyond the envelope is left to the normalizer so that one bad
// record cannot poison the batch.
func (s *Source) FetchRecent(ctx context.Context, first int) ([]json.RawMessage, error) {
	resp, err := s.client.Query(ctx, s.Name(), s.url, s.query, map[string]any{"first": first})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}

	var payload struct {
		Swaps []json.RawMessage `json:"swaps"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fault.Serialization(s.Name(), fmt.Errorf("decode swaps payload: %w", err))
	}
	return payload.Swaps, nil
}

// CheckHealth verifies the endpoint answers a minimal metadata query.
func (s *Source) CheckHealth(ctx context.Context) error {
	_, err := s.client.Query(ctx, s.Name(), s.url, metaQuery, nil)
	return err
}
