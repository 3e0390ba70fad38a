// Package repository is the storage port used by the lifecycle engine, the
// query service and the role catalog. Postgres is the production adapter; the
// in-memory adapter backs tests and local runs.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

// Filter is the single predicate shared by Find and Count, so a page and its
// total can never disagree about what matches.
type Filter struct {
	// Author restricts to one author when non-empty.
	Author string
	// Groups restricts docType to the listed routing keys. nil means no
	// restriction; an empty non-nil slice matches nothing.
	Groups []string
	// Status restricts to one lifecycle state when non-empty.
	Status model.Status
	// TitleContains is a case-insensitive substring match when non-empty.
	TitleContains string
}

// Window selects a slice of the id-descending result.
type Window struct {
	Offset int
	Limit  int
}

// Reader is available inside every transaction.
type Reader interface {
	Get(ctx context.Context, id int64) (*model.Document, error)
	GetAttachment(ctx context.Context, id string) (*model.Attachment, error)
	// Find returns matching documents ordered by id descending. Attachments
	// carry metadata only. A nil window returns every match.
	Find(ctx context.Context, f Filter, w *Window) ([]*model.Document, error)
	Count(ctx context.Context, f Filter) (int, error)
	CountSubmitted(ctx context.Context, docType string, from, to time.Time) (int, error)
	CountByStatus(ctx context.Context, docType string, status model.Status, from, to time.Time) (int, error)
	TopAuthors(ctx context.Context, docType string, from, to time.Time, limit int) ([]model.AuthorCount, error)
}

// Writer adds the mutations. Author is never rewritten by Update.
type Writer interface {
	Reader
	// Insert assigns doc.ID and persists its attachments.
	Insert(ctx context.Context, doc *model.Document) error
	// Update persists the mutable fields only when the stored status still
	// equals expected; otherwise it returns ErrConflict (or ErrNotFound).
	Update(ctx context.Context, doc *model.Document, expected model.Status) error
	AddAttachments(ctx context.Context, docID int64, atts []model.Attachment) error
	// Delete removes the attachments of the document and then the document.
	Delete(ctx context.Context, id int64) error
	DeleteByDescription(ctx context.Context, description string) (int, error)
}

// Store runs units of work. A read transaction sees one consistent snapshot.
// If fn returns an error the write transaction leaves no trace.
type Store interface {
	ReadTx(ctx context.Context, fn func(Reader) error) error
	WriteTx(ctx context.Context, fn func(Writer) error) error
}

// RoleStore persists the role/operation catalog.
type RoleStore interface {
	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, name string) (*model.Role, error)
	CreateRole(ctx context.Context, name string) error
	SetOperations(ctx context.Context, role string, operations []string) error
	DeleteRole(ctx context.Context, name string) error
	ListOperations(ctx context.Context) ([]string, error)
	CreateOperation(ctx context.Context, name string) error
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStorageFailure, op, err)
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", model.ErrNotFound, kind, id)
}
