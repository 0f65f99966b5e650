// Package audit exposes the append-only trail written during checkout and
// sale lifecycle changes. Entries are written inside the owning transaction
// by the services themselves; this package only reads them back.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openkassa/backend-kassa/internal/db"
)

type trailStore interface {
	ListAuditLogs(ctx context.Context, arg db.ListAuditLogsParams) ([]db.AuditLog, error)
}

// Service reads the audit trail.
type Service struct {
	Q trailStore
}

// Entry is one trail row rendered for the admin API.
type Entry struct {
	ID        string          `json:"id"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityId"`
	Action    string          `json:"action"`
	ActorID   string          `json:"actorId,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Filter narrows a trail listing.
type Filter struct {
	Entity string
	Action string
	Limit  int32
	Offset int32
}

// List returns trail entries newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	rows, err := s.Q.ListAuditLogs(ctx, db.ListAuditLogsParams{
		Entity: f.Entity,
		Action: f.Action,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(row))
	}
	return entries, nil
}

func toEntry(row db.AuditLog) Entry {
	e := Entry{
		ID:        db.UUIDString(row.ID),
		Entity:    row.Entity,
		EntityID:  db.UUIDString(row.EntityID),
		Action:    row.Action,
		ActorID:   db.UUIDString(row.ActorID),
		CreatedAt: row.CreatedAt.Time,
	}
	if len(row.Details) > 0 {
		e.Details = json.RawMessage(row.Details)
	}
	return e
}
