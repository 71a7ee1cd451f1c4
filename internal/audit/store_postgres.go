package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "seacert/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL. Append-only: the table
// has no update path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var actor any
	if !event.ActorID.IsNil() {
		actor = event.ActorID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			category, occurred_at, action, actor_id, role,
			document_id, subject, outcome, reason, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		string(event.Category), event.Timestamp, string(event.Action), actor,
		event.Role, event.DocumentID, event.Subject, event.Outcome,
		event.Reason, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDocument(ctx context.Context, documentID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, action, actor_id, role,
		       document_id, subject, outcome, reason, request_id
		FROM audit_events
		WHERE document_id = $1
		ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event    Event
			category string
			action   string
			actor    sql.NullString
		)
		err := rows.Scan(&category, &event.Timestamp, &action, &actor, &event.Role,
			&event.DocumentID, &event.Subject, &event.Outcome, &event.Reason, &event.RequestID)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = EventCategory(category)
		event.Action = Action(action)
		if actor.Valid {
			if event.ActorID, err = id.ParseUserID(actor.String); err != nil {
				return nil, fmt.Errorf("parse audit actor: %w", err)
			}
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return out, nil
}
