package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// logPageSize caps how many log entries one enrichment request pulls.
	logPageSize = 500

	// technicianFanout bounds concurrent technician lookups so a large log
	// page cannot amplify into an unbounded burst against the upstream.
	technicianFanout = 5
)

const (
	actorTypeTechnician = "TECHNICIAN"
	actorTypeContact    = "CONTACT"
)

type technician struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// EnrichedLogs fetches up to logPageSize log entries for a ticket and
// merges actor identity onto each entry. Technicians are resolved one call
// per unique id with bounded concurrency; contacts come from a single bulk
// listing. Ids that cannot be resolved leave their entries unenriched, they
// are not an error.
func (s *Service) EnrichedLogs(ctx context.Context, id string) ([]map[string]interface{}, error) {
	path := fmt.Sprintf("/v2/ticketing/ticket/%s/log-entry?pageSize=%d", id, logPageSize)
	raw, err := s.client.Call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ticket log entries: %w", err)
	}

	technicianIDs, needContacts := partitionActors(entries)

	technicians := s.resolveTechnicians(ctx, technicianIDs)

	var contacts map[int64]contact
	if needContacts {
		contacts = s.resolveContacts(ctx)
	}

	for _, entry := range entries {
		actorID, ok := actorID(entry)
		if !ok {
			continue
		}
		switch entry["appUserContactType"] {
		case actorTypeTechnician:
			if tech, ok := technicians[actorID]; ok {
				entry["technicianFirstName"] = tech.FirstName
				entry["technicianLastName"] = tech.LastName
				entry["technicianEmail"] = tech.Email
			}
		case actorTypeContact:
			if c, ok := contacts[actorID]; ok {
				entry["contactName"] = c.Name
				entry["contactEmail"] = c.Email
				entry["contactPhone"] = c.Phone
			}
		}
	}
	return entries, nil
}

// partitionActors collects the unique technician ids referenced by the
// entries and reports whether any contact actors are present.
func partitionActors(entries []map[string]interface{}) ([]int64, bool) {
	seen := make(map[int64]bool)
	var technicianIDs []int64
	needContacts := false

	for _, entry := range entries {
		id, ok := actorID(entry)
		if !ok {
			continue
		}
		switch entry["appUserContactType"] {
		case actorTypeTechnician:
			if !seen[id] {
				seen[id] = true
				technicianIDs = append(technicianIDs, id)
			}
		case actorTypeContact:
			needContacts = true
		}
	}
	return technicianIDs, needContacts
}

// resolveTechnicians looks up each technician id concurrently, bounded by
// technicianFanout. Failed lookups are logged and skipped.
func (s *Service) resolveTechnicians(ctx context.Context, ids []int64) map[int64]technician {
	resolved := make(map[int64]technician, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(technicianFanout)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			raw, err := s.client.Call(ctx, http.MethodGet, fmt.Sprintf("/v2/ticketing/app-user-contact/%d", id), nil)
			if err != nil {
				s.logger.Warn("failed to resolve technician", zap.Int64("id", id), zap.Error(err))
				return nil
			}
			var tech technician
			if err := json.Unmarshal(raw, &tech); err != nil {
				s.logger.Warn("failed to parse technician", zap.Int64("id", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			resolved[id] = tech
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return resolved
}

// resolveContacts fetches the full contact listing once and indexes it by
// id. A failed listing just means no contact enrichment.
func (s *Service) resolveContacts(ctx context.Context) map[int64]contact {
	raw, err := s.client.Call(ctx, http.MethodGet, "/v2/ticketing/contact/contacts", nil)
	if err != nil {
		s.logger.Warn("failed to list contacts", zap.Error(err))
		return nil
	}

	var contacts []contact
	if err := json.Unmarshal(raw, &contacts); err != nil {
		s.logger.Warn("failed to parse contacts", zap.Error(err))
		return nil
	}

	indexed := make(map[int64]contact, len(contacts))
	for _, c := range contacts {
		indexed[c.ID] = c
	}
	return indexed
}

// actorID extracts the numeric actor id from a log entry. JSON numbers
// decode as float64.
func actorID(entry map[string]interface{}) (int64, bool) {
	v, ok := entry["appUserContactId"].(float64)
	if !ok {
		return 0, false
	}
	return int64(v), true
}
