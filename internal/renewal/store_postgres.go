package renewal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

// PostgresStore persists renewal requests in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renewal_requests (id, document_id, requested_by, request_date, status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, req.ID.String(), req.DocumentID.String(), req.RequestedBy.String(), req.RequestDate, string(req.Status), req.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert renewal request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, reqID id.RenewalID) (*Request, error) {
	req, err := scanRequest(s.db.QueryRowContext(ctx, `
		SELECT id, document_id, requested_by, request_date, status, completed_at
		FROM renewal_requests WHERE id = $1
	`, reqID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get renewal request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status RequestStatus) ([]*Request, error) {
	return s.list(ctx, `
		SELECT id, document_id, requested_by, request_date, status, completed_at
		FROM renewal_requests WHERE status = $1
		ORDER BY request_date
	`, string(status))
}

func (s *PostgresStore) ListPendingByDocument(ctx context.Context, docID id.DocumentID) ([]*Request, error) {
	return s.list(ctx, `
		SELECT id, document_id, requested_by, request_date, status, completed_at
		FROM renewal_requests WHERE document_id = $1 AND status = $2
		ORDER BY request_date
	`, docID.String(), string(StatusPending))
}

// Complete flips a pending request to completed. Completing twice returns
// ErrInvalidState so a double-click never rewrites the completion time.
func (s *PostgresStore) Complete(ctx context.Context, reqID id.RenewalID, completedAt time.Time) (*Request, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE renewal_requests SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4
	`, string(StatusCompleted), completedAt, reqID.String(), string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("complete renewal request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("complete renewal request: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, reqID); err != nil {
			return nil, err
		}
		return nil, sentinel.ErrInvalidState
	}
	return s.Get(ctx, reqID)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renewal requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan renewal request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list renewal requests: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		req         Request
		rawID       string
		rawDoc      string
		rawUser     string
		status      string
		completedAt sql.NullTime
	)
	if err := row.Scan(&rawID, &rawDoc, &rawUser, &req.RequestDate, &status, &completedAt); err != nil {
		return nil, err
	}
	var err error
	if req.ID, err = id.ParseRenewalID(rawID); err != nil {
		return nil, fmt.Errorf("parse renewal id: %w", err)
	}
	if req.DocumentID, err = id.ParseDocumentID(rawDoc); err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	if req.RequestedBy, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("parse requester id: %w", err)
	}
	req.Status = RequestStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		req.CompletedAt = &t
	}
	return &req, nil
}
