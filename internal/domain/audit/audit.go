package audit

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Hugozera/apontamento/internal/domain/records"
	"github.com/Hugozera/apontamento/internal/domain/tenant"
)

// Partition holds audit events for every tenant.
const Partition = "auditoria"

type Event struct {
	ID         string          `json:"id"`
	Tenant     string          `json:"tenant"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Details    json.RawMessage `json:"details,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	ActorID    string
}

type Service struct {
	Store records.Store
	Now   func() time.Time
}

func New(store records.Store) *Service {
	return &Service{Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, details any) error {
	fields := records.Fields{
		"tenant":     tenant.Normalize(tenantID),
		"actorId":    actorID,
		"action":     action,
		"entityType": entityType,
		"entityId":   entityID,
		"requestId":  requestID,
		"ip":         ip,
		"createdAt":  s.Now().UTC(),
	}
	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			return err
		}
		fields["details"] = string(payload)
	}
	_, err := s.Store.Insert(ctx, Partition, fields)
	return err
}

// List returns the tenant's events, newest first, at most limit of them.
func (s *Service) List(ctx context.Context, tenantID string, filter Filter, limit int) ([]Event, error) {
	docs, err := s.Store.QueryEquals(ctx, Partition, "tenant", tenant.Normalize(tenantID))
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(docs))
	for _, doc := range docs {
		evt := eventFromDocument(doc)
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.ActorID != "" && evt.ActorID != filter.ActorID {
			continue
		}
		out = append(out, evt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func eventFromDocument(doc records.Document) Event {
	evt := Event{
		ID:         doc.ID,
		Tenant:     doc.Fields.String("tenant"),
		ActorID:    doc.Fields.String("actorId"),
		Action:     doc.Fields.String("action"),
		EntityType: doc.Fields.String("entityType"),
		EntityID:   doc.Fields.String("entityId"),
		RequestID:  doc.Fields.String("requestId"),
		IP:         doc.Fields.String("ip"),
	}
	if at, ok := doc.Fields.Time("createdAt"); ok {
		evt.CreatedAt = at
	}
	if details := doc.Fields.String("details"); details != "" && json.Valid([]byte(details)) {
		evt.Details = json.RawMessage(details)
	}
	return evt
}
