// Package ticket proxies ticketing operations to the upstream API.
package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Caller performs an authenticated upstream call. Satisfied by
// ninjaclient.Client.
type Caller interface {
	Call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error)
}

// Service implements the ticket proxy operations.
type Service struct {
	client Caller
	logger *zap.Logger
}

// NewService creates a ticket service.
func NewService(client Caller, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// Create forwards the request body verbatim to upstream ticket creation.
func (s *Service) Create(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return s.client.Call(ctx, http.MethodPost, "/v2/ticketing/ticket", body)
}

// Get fetches a ticket by id.
func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	return s.client.Call(ctx, http.MethodGet, "/v2/ticketing/ticket/"+id, nil)
}

// Update performs the read-filter-merge-write cycle: fetch the current
// ticket, restrict it to the updatable allow-list, overlay the caller's
// partial update and submit the merged object as a full replacement. The
// upstream requires a complete object on update and rejects unknown fields,
// so a bare partial PUT is not possible.
func (s *Service) Update(ctx context.Context, id string, patch map[string]interface{}) (json.RawMessage, error) {
	raw, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var current map[string]interface{}
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, fmt.Errorf("failed to parse current ticket: %w", err)
	}

	merged := overlay(projectUpdatable(current), patch)

	s.logger.Debug("submitting merged ticket update", zap.String("ticket_id", id))
	return s.client.Call(ctx, http.MethodPut, "/v2/ticketing/ticket/"+id, merged)
}
