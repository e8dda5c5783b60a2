package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "orgguard/pkg/platform/audit"
)

// Schema is the DDL for the audit hand-off table. Retention on this table is
// operational only; the governed long-term store consumes the kafka topic.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_outcomes (
	id              UUID PRIMARY KEY,
	invocation_id   TEXT NOT NULL,
	source_event_id TEXT NOT NULL DEFAULT '',
	account_id      TEXT NOT NULL DEFAULT '',
	policy_id       TEXT NOT NULL DEFAULT '',
	action          TEXT NOT NULL,
	detail          TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_outcomes_invocation_idx ON audit_outcomes (invocation_id);
`

// Store implements audit.Store on PostgreSQL. Inserts are idempotent on the
// record ID so a redelivered record is a no-op rather than a duplicate row.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_outcomes (
			id, invocation_id, source_event_id, account_id, policy_id,
			action, detail, request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.InvocationID,
		event.SourceEventID,
		event.AccountID,
		event.PolicyID,
		event.Action,
		event.Detail,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit outcome: %w", err)
	}
	return nil
}

// ListByInvocation returns records for one invocation in emission order.
func (s *Store) ListByInvocation(ctx context.Context, invocationID string) ([]audit.Event, error) {
	query := `
		SELECT id, invocation_id, source_event_id, account_id, policy_id,
		       action, detail, request_id, created_at
		FROM audit_outcomes
		WHERE invocation_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, invocationID)
	if err != nil {
		return nil, fmt.Errorf("list audit outcomes: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(
			&e.ID,
			&e.InvocationID,
			&e.SourceEventID,
			&e.AccountID,
			&e.PolicyID,
			&e.Action,
			&e.Detail,
			&e.RequestID,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit outcome: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit outcomes: %w", err)
	}
	return out, nil
}
