package audit

import (
	"context"
	"encoding/json"
	"time"

	"perfeval/internal/platform/db"
	"perfeval/internal/platform/querier"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	Since      time.Time
	Until      time.Time
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshalOptional(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(after)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, db.NullIfEmpty(actorID), action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	var args db.Args
	query := "SELECT COUNT(1) FROM audit_events" + where(&args, filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args.Values()...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := "id, COALESCE(actor_user_id::text, ''), action, entity_type, entity_id, COALESCE(request_id, ''), COALESCE(ip, ''), created_at"
	if includeDetails {
		selectCols += ", before_json, after_json"
	}
	var args db.Args
	query := "SELECT " + selectCols + " FROM audit_events" + where(&args, filter)
	query += " ORDER BY created_at DESC LIMIT " + args.Add(limit) + " OFFSET " + args.Add(offset)

	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func where(args *db.Args, filter Filter) string {
	clause := " WHERE 1=1"
	if filter.Action != "" {
		clause += " AND action = " + args.Add(filter.Action)
	}
	if filter.EntityType != "" {
		clause += " AND entity_type = " + args.Add(filter.EntityType)
	}
	if filter.EntityID != "" {
		clause += " AND entity_id = " + args.Add(filter.EntityID)
	}
	if filter.ActorID != "" {
		clause += " AND actor_user_id::text = " + args.Add(filter.ActorID)
	}
	if !filter.Since.IsZero() {
		clause += " AND created_at >= " + args.Add(filter.Since)
	}
	if !filter.Until.IsZero() {
		clause += " AND created_at < " + args.Add(filter.Until)
	}
	return clause
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
