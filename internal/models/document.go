// Package models provides data model definitions for the syncdesk core.
package models

import "time"

// DocType identifies the kind of a stored document.
type DocType string

const (
	DocTypePDF   DocType = "pdf"
	DocTypeImage DocType = "image"
	DocTypeForm  DocType = "form"
	DocTypeNote  DocType = "note"
)

// ValidDocType reports whether t is one of the supported document kinds.
func ValidDocType(t DocType) bool {
	switch t {
	case DocTypePDF, DocTypeImage, DocTypeForm, DocTypeNote:
		return true
	}
	return false
}

// SyncStatus tracks where a document stands relative to the remote copy.
type SyncStatus string

const (
	SyncStatusLocalOnly SyncStatus = "local_only"
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusConflict  SyncStatus = "conflict"
)

// Document represents a unit of user content kept available offline.
type Document struct {
	ID            UUID       `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	DocType       DocType    `db:"doc_type" json:"doc_type"`
	Content       []byte     `db:"content" json:"content,omitempty"`
	Size          int64      `db:"size" json:"size"`
	Version       int        `db:"version" json:"version"`
	RemoteVersion int        `db:"remote_version" json:"remote_version"`
	SyncStatus    SyncStatus `db:"sync_status" json:"sync_status"`
	CreatedAt     int64      `db:"created_at" json:"created_at"`
	LastModified  int64      `db:"last_modified" json:"last_modified"`
}

// TableName returns the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (d *Document) CreatedAtTime() time.Time {
	return time.Unix(d.CreatedAt, 0)
}

// LastModifiedTime returns the LastModified as time.Time.
func (d *Document) LastModifiedTime() time.Time {
	return time.Unix(d.LastModified, 0)
}

// Touch bumps the version and refreshes the modification timestamp.
// Version is monotonically increasing; it never decreases.
func (d *Document) Touch() {
	d.LastModified = time.Now().Unix()
	d.Version++
}
