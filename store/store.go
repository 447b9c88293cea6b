// Package store defines the document store used to persist conversation logs along with
// the lazily configured Connection to it and a LevelDB implementation for local use
package store

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Status reports the outcome of a provisioning call
type Status int

const (
	// Unavailable means the resource could not be provisioned
	Unavailable Status = iota
	// Created means the resource didn't exist and was created
	Created
	// Existed means the resource already existed
	Existed
)

// String returns a friendly name for the Status
func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Existed:
		return "existed"
	default:
		return "unavailable"
	}
}

// CollectionLink addresses a collection within a database
type CollectionLink struct {
	Database   string
	Collection string
}

// String returns the link in the dbs/{database}/colls/{collection} form
func (cl CollectionLink) String() string {
	return fmt.Sprintf("dbs/%s/colls/%s", cl.Database, cl.Collection)
}

// LogEntry is one logged answer to a question. Entries are only ever created
type LogEntry struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Score          *float64  `json:"score"`
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	Timestamp      time.Time `json:"timestamp"`
}

// DocumentStore is implemented by any document database able to provision databases and collections
// idempotently and to create documents
type DocumentStore interface {
	io.Closer

	// EnsureDatabase creates the database if it doesn't exist yet
	EnsureDatabase(ctx context.Context, database string) (status Status, err error)

	// EnsureCollection creates the collection if it doesn't exist yet. The database must exist
	EnsureCollection(ctx context.Context, link CollectionLink) (status Status, err error)

	// CreateDocument stores a new log entry in the collection
	CreateDocument(ctx context.Context, link CollectionLink, entry *LogEntry) (err error)
}
