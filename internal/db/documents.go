// Package db provides the durable local store backing the offline data layer.
package db

import (
	"database/sql"
	stderrors "errors"

	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
)

// DocumentFilter narrows ListDocuments results. Zero values mean "no filter".
type DocumentFilter struct {
	DocType    models.DocType
	SyncStatus models.SyncStatus
	Limit      int
	Offset     int
}

const documentColumns = `id, title, doc_type, content, size, version, remote_version,
	   sync_status, created_at, last_modified`

// PutDocument upserts a document record. The operation is idempotent: writing
// the same record twice leaves the store unchanged.
func (s *Store) PutDocument(doc *models.Document) error {
	query := `
	INSERT INTO documents (id, title, doc_type, content, size, version, remote_version,
		sync_status, created_at, last_modified)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		doc_type = excluded.doc_type,
		content = excluded.content,
		size = excluded.size,
		version = excluded.version,
		remote_version = excluded.remote_version,
		sync_status = excluded.sync_status,
		last_modified = excluded.last_modified
	`
	_, err := s.db.Exec(query, doc.ID, doc.Title, doc.DocType, doc.Content, doc.Size,
		doc.Version, doc.RemoteVersion, doc.SyncStatus, doc.CreatedAt, doc.LastModified)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to persist document", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to prepare document query", err)
	}

	var doc models.Document
	err = stmt.QueryRow(id).Scan(
		&doc.ID, &doc.Title, &doc.DocType, &doc.Content, &doc.Size,
		&doc.Version, &doc.RemoteVersion, &doc.SyncStatus,
		&doc.CreatedAt, &doc.LastModified,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrDocumentNotFound, "document not found: "+id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to read document", err)
	}
	return &doc, nil
}

// ListDocuments returns a read-only snapshot of documents matching the filter,
// newest first.
func (s *Store) ListDocuments(filter DocumentFilter) ([]*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	var args []interface{}

	if filter.DocType != "" {
		query += " AND doc_type = ?"
		args = append(args, filter.DocType)
	}
	if filter.SyncStatus != "" {
		query += " AND sync_status = ?"
		args = append(args, filter.SyncStatus)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	stmt, err := s.prepareStmt(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to prepare document list", err)
	}

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to list documents", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		err := rows.Scan(
			&doc.ID, &doc.Title, &doc.DocType, &doc.Content, &doc.Size,
			&doc.Version, &doc.RemoteVersion, &doc.SyncStatus,
			&doc.CreatedAt, &doc.LastModified,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrStorage, "failed to scan document", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStorage, "failed to iterate documents", err)
	}
	return docs, nil
}

// DeleteDocument removes a document record.
func (s *Store) DeleteDocument(id string) error {
	result, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrStorage, "failed to delete document", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New(errors.ErrDocumentNotFound, "document not found: "+id)
	}
	return nil
}
