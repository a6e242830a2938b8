// Package organization proxies organization lookups to the upstream API.
package organization

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rishabh1414/NinjaRmm-v1/internal/apperr"
)

// Caller performs an authenticated upstream call. Satisfied by
// ninjaclient.Client.
type Caller interface {
	Call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error)
}

// Service implements the organization proxy operations.
type Service struct {
	client Caller
}

// NewService creates an organization service.
func NewService(client Caller) *Service {
	return &Service{
		client: client,
	}
}

// List forwards the organization listing verbatim.
func (s *Service) List(ctx context.Context) (json.RawMessage, error) {
	return s.client.Call(ctx, http.MethodGet, "/v2/organizations", nil)
}

// Get returns a single organization by id. The upstream exposes no
// by-id lookup, so this fetches the full listing and scans it.
func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	raw, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var orgs []json.RawMessage
	if err := json.Unmarshal(raw, &orgs); err != nil {
		return nil, fmt.Errorf("failed to parse organization listing: %w", err)
	}

	for _, org := range orgs {
		var probe struct {
			ID json.Number `json:"id"`
		}
		if err := json.Unmarshal(org, &probe); err != nil {
			continue
		}
		if probe.ID.String() == id {
			return org, nil
		}
	}
	return nil, apperr.NotFound("organization", id)
}
