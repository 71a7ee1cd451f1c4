package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

// PostgresStore persists applications in PostgreSQL with the same
// compare-and-swap state write documents use.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, app *Application) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create application: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (id, institution_id, app_type, workflow_state, revision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, app.ID.String(), app.InstitutionID.String(), string(app.Type), string(app.WorkflowState), app.Revision, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	for _, entry := range app.History {
		if err := insertAppHistory(ctx, tx, app.ID, entry); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	app, err := scanApplication(s.db.QueryRowContext(ctx, `
		SELECT id, institution_id, app_type, workflow_state, revision, created_at
		FROM applications WHERE id = $1
	`, appID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app.History, err = s.loadHistory(ctx, appID); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *PostgresStore) ListByInstitution(ctx context.Context, instID id.InstitutionID) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, institution_id, app_type, workflow_state, revision, created_at
		FROM applications WHERE institution_id = $1
		ORDER BY created_at
	`, instID.String())
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	for _, app := range out {
		if app.History, err = s.loadHistory(ctx, app.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PostgresStore) UpdateState(ctx context.Context, appID id.ApplicationID, expectedState workflow.State, expectedRevision int, entry workflow.HistoryEntry) (*Application, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update application state: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE applications SET workflow_state = $1, revision = revision + 1
		WHERE id = $2 AND workflow_state = $3 AND revision = $4
	`, string(entry.State), appID.String(), string(expectedState), expectedRevision)
	if err != nil {
		return nil, fmt.Errorf("update application state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update application state: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, appID.String()).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check application exists: %w", err)
		}
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		return nil, sentinel.ErrConflict
	}

	if err := insertAppHistory(ctx, tx, appID, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update application state: %w", err)
	}
	return s.Get(ctx, appID)
}

func (s *PostgresStore) AppendHistory(ctx context.Context, appID id.ApplicationID, entry workflow.HistoryEntry) (*Application, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, appID.String()).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check application exists: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if err := insertAppHistory(ctx, s.db, appID, entry); err != nil {
		return nil, err
	}
	return s.Get(ctx, appID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAppHistory(ctx context.Context, db execer, appID id.ApplicationID, entry workflow.HistoryEntry) error {
	var actor any
	if !entry.ActorID.IsNil() {
		actor = entry.ActorID.String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO application_history (application_id, state, occurred_at, comment, actor_id)
		VALUES ($1, $2, $3, $4, $5)
	`, appID.String(), string(entry.State), entry.Timestamp, entry.Comment, actor)
	if err != nil {
		return fmt.Errorf("insert application history: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, appID id.ApplicationID) ([]workflow.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, occurred_at, comment, actor_id
		FROM application_history
		WHERE application_id = $1
		ORDER BY id
	`, appID.String())
	if err != nil {
		return nil, fmt.Errorf("load application history: %w", err)
	}
	defer rows.Close()

	var out []workflow.HistoryEntry
	for rows.Next() {
		var entry workflow.HistoryEntry
		var state string
		var actor sql.NullString
		if err := rows.Scan(&state, &entry.Timestamp, &entry.Comment, &actor); err != nil {
			return nil, fmt.Errorf("scan application history: %w", err)
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
		return nil, fmt.Errorf("load application history: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		app     Application
		rawID   string
		rawInst string
		typ     string
		state   string
	)
	if err := row.Scan(&rawID, &rawInst, &typ, &state, &app.Revision, &app.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if app.ID, err = id.ParseApplicationID(rawID); err != nil {
		return nil, fmt.Errorf("parse application id: %w", err)
	}
	if app.InstitutionID, err = id.ParseInstitutionID(rawInst); err != nil {
		return nil, fmt.Errorf("parse institution id: %w", err)
	}
	app.Type = Type(typ)
	app.WorkflowState = workflow.State(state)
	return &app, nil
}
