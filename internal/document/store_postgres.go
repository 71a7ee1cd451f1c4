package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

// PostgresStore persists documents in PostgreSQL. State changes go through a
// single compare-and-swap UPDATE so concurrent reviewers cannot double-apply
// a transition.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, doc *Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create document: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (
			id, owner_kind, owner_id, requirement_key, name, mime_type,
			size_bytes, storage_path, status, workflow_state, version,
			upload_date, expiry_date, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		doc.ID.String(), string(doc.OwnerKind), doc.OwnerID, doc.RequirementKey,
		doc.Name, doc.MimeType, doc.SizeBytes, doc.StoragePath,
		string(doc.Status), string(doc.WorkflowState), doc.Version,
		doc.UploadDate, doc.ExpiryDate, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for _, entry := range doc.History {
		if err := insertHistory(ctx, tx, doc.ID, entry); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_versions (document_id, number, name, mime_type, size_bytes, storage_path, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID.String(), doc.Version, doc.Name, doc.MimeType, doc.SizeBytes, doc.StoragePath, doc.UploadDate)
	if err != nil {
		return fmt.Errorf("insert initial version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, docID id.DocumentID) (*Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, `
		SELECT id, owner_kind, owner_id, requirement_key, name, mime_type,
		       size_bytes, storage_path, status, workflow_state, version,
		       upload_date, expiry_date, metadata
		FROM documents WHERE id = $1
	`, docID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.History, err = s.loadHistory(ctx, docID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, kind OwnerKind, ownerID string) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_kind, owner_id, requirement_key, name, mime_type,
		       size_bytes, storage_path, status, workflow_state, version,
		       upload_date, expiry_date, metadata
		FROM documents
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY upload_date
	`, string(kind), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for _, doc := range out {
		if doc.History, err = s.loadHistory(ctx, doc.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) UpdateState(ctx context.Context, docID id.DocumentID, expectedState workflow.State, expectedVersion int, entry workflow.HistoryEntry) (*Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update state: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE documents SET workflow_state = $1
		WHERE id = $2 AND workflow_state = $3 AND version = $4
	`, string(entry.State), docID.String(), string(expectedState), expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("update workflow state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update workflow state: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, docID.String()).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check document exists: %w", err)
		}
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		return nil, sentinel.ErrConflict
	}

	if err := insertHistory(ctx, tx, docID, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update state: %w", err)
	}
	return s.Get(ctx, docID)
}

func (s *PostgresStore) AppendHistory(ctx context.Context, docID id.DocumentID, entry workflow.HistoryEntry) (*Document, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, docID.String()).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check document exists: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if err := insertHistory(ctx, s.db, docID, entry); err != nil {
		return nil, err
	}
	return s.Get(ctx, docID)
}

func (s *PostgresStore) CreateVersion(ctx context.Context, docID id.DocumentID, file FileInfo, storagePath string, uploadDate time.Time, expiry *time.Time) (*Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create version: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, `
		UPDATE documents SET
			version = version + 1,
			name = $2, mime_type = $3, size_bytes = $4,
			storage_path = $5, upload_date = $6, expiry_date = $7
		WHERE id = $1
		RETURNING version
	`, docID.String(), file.Name, file.MimeType, file.SizeBytes, storagePath, uploadDate, expiry).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("bump document version: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_versions (document_id, number, name, mime_type, size_bytes, storage_path, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, docID.String(), version, file.Name, file.MimeType, file.SizeBytes, storagePath, uploadDate)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create version: %w", err)
	}
	return s.Get(ctx, docID)
}

func (s *PostgresStore) ListVersions(ctx context.Context, docID id.DocumentID) ([]*Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, number, name, mime_type, size_bytes, storage_path, upload_date
		FROM document_versions
		WHERE document_id = $1
		ORDER BY number DESC
	`, docID.String())
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []*Version
	for rows.Next() {
		var v Version
		var rawID string
		if err := rows.Scan(&rawID, &v.Number, &v.Name, &v.MimeType, &v.SizeBytes, &v.StoragePath, &v.UploadDate); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if v.DocumentID, err = id.ParseDocumentID(rawID); err != nil {
			return nil, fmt.Errorf("parse version document id: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	if len(out) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertHistory(ctx context.Context, db execer, docID id.DocumentID, entry workflow.HistoryEntry) error {
	var actor any
	if !entry.ActorID.IsNil() {
		actor = entry.ActorID.String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO document_history (document_id, state, occurred_at, comment, actor_id)
		VALUES ($1, $2, $3, $4, $5)
	`, docID.String(), string(entry.State), entry.Timestamp, entry.Comment, actor)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, docID id.DocumentID) ([]workflow.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, occurred_at, comment, actor_id
		FROM document_history
		WHERE document_id = $1
		ORDER BY id
	`, docID.String())
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []workflow.HistoryEntry
	for rows.Next() {
		var entry workflow.HistoryEntry
		var state string
		var actor sql.NullString
		if err := rows.Scan(&state, &entry.Timestamp, &entry.Comment, &actor); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entry.State = workflow.State(state)
		if actor.Valid {
			if entry.ActorID, err = id.ParseUserID(actor.String); err != nil {
				return nil, fmt.Errorf("parse history actor: %w", err)
			}
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc      Document
		rawID    string
		kind     string
		status   string
		state    string
		expiry   sql.NullTime
		metadata []byte
	)
	err := row.Scan(
		&rawID, &kind, &doc.OwnerID, &doc.RequirementKey, &doc.Name,
		&doc.MimeType, &doc.SizeBytes, &doc.StoragePath, &status, &state,
		&doc.Version, &doc.UploadDate, &expiry, &metadata,
	)
	if err != nil {
		return nil, err
	}
	if doc.ID, err = id.ParseDocumentID(rawID); err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	doc.OwnerKind = OwnerKind(kind)
	doc.Status = Status(status)
	doc.WorkflowState = workflow.State(state)
	if expiry.Valid {
		t := expiry.Time
		doc.ExpiryDate = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}
