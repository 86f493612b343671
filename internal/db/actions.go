// Package db provides the durable local store backing the offline data layer.
package db

import (
	"database/sql"
	stderrors "errors"

	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
)

const actionColumns = `id, action_type, entity_type, entity_id, payload, retry_count,
	   max_retries, status, last_error, next_retry_at, created_at, updated_at`

// InsertAction persists a new action record.
func (s *Store) InsertAction(action *models.Action) error {
	query := `
	INSERT INTO actions (id, action_type, entity_type, entity_id, payload, retry_count,
		max_retries, status, last_error, next_retry_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, action.ID, action.Type, action.EntityType, action.EntityID,
		[]byte(action.Payload), action.RetryCount, action.MaxRetries, action.Status,
		action.LastError, action.NextRetryAt, action.CreatedAt, action.UpdatedAt)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to persist action", err)
	}
	return nil
}

// GetAction retrieves an action by ID.
func (s *Store) GetAction(id string) (*models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE id = ?`
	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to prepare action query", err)
	}

	var action models.Action
	var payload []byte
	err = stmt.QueryRow(id).Scan(
		&action.ID, &action.Type, &action.EntityType, &action.EntityID, &payload,
		&action.RetryCount, &action.MaxRetries, &action.Status, &action.LastError,
		&action.NextRetryAt, &action.CreatedAt, &action.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrActionNotFound, "action not found: "+id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to read action", err)
	}
	action.Payload = payload
	return &action, nil
}

// ListActions returns actions matching the given statuses (all statuses when
// empty), ordered by created_at ascending with insertion order as tie-break.
// This is the global replay order; per-entity FIFO is layered on top by the
// queue.
func (s *Store) ListActions(statuses ...models.ActionStatus) ([]*models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions`
	var args []interface{}

	if len(statuses) > 0 {
		query += " WHERE status IN ("
		for i, st := range statuses {
			if i > 0 {
				query += ", "
			}
			query += "?"
			args = append(args, st)
		}
		query += ")"
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to list actions", err)
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		var action models.Action
		var payload []byte
		err := rows.Scan(
			&action.ID, &action.Type, &action.EntityType, &action.EntityID, &payload,
			&action.RetryCount, &action.MaxRetries, &action.Status, &action.LastError,
			&action.NextRetryAt, &action.CreatedAt, &action.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrStorage, "failed to scan action", err)
		}
		action.Payload = payload
		actions = append(actions, &action)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to iterate actions", err)
	}
	return actions, nil
}

// UpdateAction rewrites the mutable fields of an action record.
func (s *Store) UpdateAction(action *models.Action) error {
	query := `
	UPDATE actions
	SET retry_count = ?, status = ?, last_error = ?, next_retry_at = ?, updated_at = ?
	WHERE id = ?
	`
	result, err := s.db.Exec(query, action.RetryCount, action.Status, action.LastError,
		action.NextRetryAt, action.UpdatedAt, action.ID)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to update action", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrActionNotFound, "action not found: "+action.ID.String())
	}
	return nil
}

// DeleteAction removes an action record.
func (s *Store) DeleteAction(id string) error {
	result, err := s.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to delete action", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrActionNotFound, "action not found: "+id)
	}
	return nil
}

// CountActionsByStatus returns the number of actions per status.
func (s *Store) CountActionsByStatus() (map[models.ActionStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM actions GROUP BY status`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to count actions", err)
	}
	defer rows.Close()

	counts := make(map[models.ActionStatus]int)
	for rows.Next() {
		var status models.ActionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errors.Wrap(errors.ErrStorage, "failed to scan action count", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
