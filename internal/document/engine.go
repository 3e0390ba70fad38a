// Package document is the lifecycle engine: it creates documents, lets authors
// edit drafts and submit them, and lets reviewers approve or reject exactly
// once. Each operation is one store write transaction.
package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/attachment"
	"github.com/dharsanguruparan/DocFlow/internal/model"
	"github.com/dharsanguruparan/DocFlow/internal/repository"
)

// DefaultDownloadPrefix is prepended to attachment ids to form download
// references.
const DefaultDownloadPrefix = "/downloadFile/"

// ReviewNotifier is told about every committed approval or rejection.
type ReviewNotifier interface {
	DocumentReviewed(ctx context.Context, doc *model.Document) error
}

// Created identifies a new document and the files stored with it.
type Created struct {
	ID    int64                `json:"id"`
	Files []model.UploadResult `json:"files"`
}

// Engine applies lifecycle transitions against a Store.
type Engine struct {
	store    repository.Store
	files    *attachment.Builder
	now      func() time.Time
	prefix   string
	notifier ReviewNotifier
	log      *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the UTC wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDownloadPrefix sets the prefix used for UploadResult.DownloadURI.
func WithDownloadPrefix(prefix string) Option {
	return func(e *Engine) { e.prefix = prefix }
}

// WithNotifier registers a notifier for reviewed documents.
func WithNotifier(n ReviewNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// NewEngine constructs an Engine on store.
func NewEngine(store repository.Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		prefix: DefaultDownloadPrefix,
		log:    log.With(zap.String("component", "lifecycle")),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.files = attachment.NewBuilder(e.now)
	return e
}

// GetByID returns the full document including attachment content. It performs
// no ownership check.
func (e *Engine) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	var doc *model.Document
	err := e.store.ReadTx(ctx, func(r repository.Reader) error {
		var err error
		doc, err = r.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetOne returns the view of a document authored by username. A document of
// another author is reported as not found.
func (e *Engine) GetOne(ctx context.Context, username string, id int64) (model.DocumentView, error) {
	doc, err := e.GetByID(ctx, id)
	if err != nil {
		return model.DocumentView{}, err
	}
	if doc.Author != username {
		return model.DocumentView{}, fmt.Errorf("%w: document %d", model.ErrNotFound, id)
	}
	return model.NewView(doc), nil
}

// GetAttachment returns one attachment with its content.
func (e *Engine) GetAttachment(ctx context.Context, id string) (*model.Attachment, error) {
	var att *model.Attachment
	err := e.store.ReadTx(ctx, func(r repository.Reader) error {
		var err error
		att, err = r.GetAttachment(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return att, nil
}

// CreateDraft stores a SAVED document with zero or more files.
func (e *Engine) CreateDraft(ctx context.Context, fields model.Fields, uploads []attachment.Upload) (Created, error) {
	return e.create(ctx, fields, uploads, model.StatusSaved)
}

// Submit stores a SUBMITTED document without files.
func (e *Engine) Submit(ctx context.Context, fields model.Fields) (Created, error) {
	return e.create(ctx, fields, nil, model.StatusSubmitted)
}

// SubmitWithFiles stores a SUBMITTED document with at least one file.
func (e *Engine) SubmitWithFiles(ctx context.Context, fields model.Fields, uploads []attachment.Upload) (Created, error) {
	if len(uploads) == 0 {
		return Created{}, fmt.Errorf("%w: at least one file is required", model.ErrInvalidInput)
	}
	return e.create(ctx, fields, uploads, model.StatusSubmitted)
}

func (e *Engine) create(ctx context.Context, fields model.Fields, uploads []attachment.Upload, status model.Status) (Created, error) {
	if err := validate(fields, true); err != nil {
		return Created{}, err
	}
	atts, err := e.files.Build(uploads)
	if err != nil {
		return Created{}, err
	}
	doc := &model.Document{
		Author:      strings.TrimSpace(fields.Author),
		DocType:     strings.TrimSpace(fields.DocType),
		Title:       fields.Title,
		Description: fields.Description,
		Status:      status,
		Attachments: atts,
	}
	err = e.store.WriteTx(ctx, func(w repository.Writer) error {
		if status == model.StatusSubmitted {
			now := e.now()
			doc.SubmissionDate = &now
		}
		return w.Insert(ctx, doc)
	})
	if err != nil {
		return Created{}, err
	}
	e.log.Info("document created",
		zap.Int64("document_id", doc.ID),
		zap.String("status", string(doc.Status)),
		zap.String("author", doc.Author),
		zap.Int("files", len(atts)))
	return Created{ID: doc.ID, Files: attachment.Results(e.prefix, atts)}, nil
}

// SubmitAfterDraft edits a SAVED document, appends files and submits it with a
// fresh submission date.
func (e *Engine) SubmitAfterDraft(ctx context.Context, id int64, fields model.Fields, uploads []attachment.Upload) ([]model.UploadResult, error) {
	return e.editDraft(ctx, id, fields, uploads, true)
}

// SaveAfterDraft edits a SAVED document and appends files; it stays a draft.
func (e *Engine) SaveAfterDraft(ctx context.Context, id int64, fields model.Fields, uploads []attachment.Upload) ([]model.UploadResult, error) {
	return e.editDraft(ctx, id, fields, uploads, false)
}

func (e *Engine) editDraft(ctx context.Context, id int64, fields model.Fields, uploads []attachment.Upload, submit bool) ([]model.UploadResult, error) {
	if err := validate(fields, false); err != nil {
		return nil, err
	}
	atts, err := e.files.Build(uploads)
	if err != nil {
		return nil, err
	}
	var doc *model.Document
	err = e.store.WriteTx(ctx, func(w repository.Writer) error {
		var err error
		doc, err = w.Get(ctx, id)
		if err != nil {
			return err
		}
		if doc.Status != model.StatusSaved {
			return fmt.Errorf("%w: document %d is %s, only drafts can be edited", model.ErrConflict, id, doc.Status)
		}
		if len(atts) > 0 {
			if err := w.AddAttachments(ctx, id, atts); err != nil {
				return err
			}
		}
		doc.DocType = strings.TrimSpace(fields.DocType)
		doc.Title = fields.Title
		doc.Description = fields.Description
		if submit {
			now := e.now()
			doc.Status = model.StatusSubmitted
			doc.SubmissionDate = &now
		}
		return w.Update(ctx, doc, model.StatusSaved)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("draft updated",
		zap.Int64("document_id", id),
		zap.String("status", string(doc.Status)),
		zap.String("author", doc.Author),
		zap.Int("files_added", len(atts)))
	return attachment.Results(e.prefix, atts), nil
}

// Approve moves a SUBMITTED document to APPROVED.
func (e *Engine) Approve(ctx context.Context, id int64, reviewer string) error {
	return e.review(ctx, id, reviewer, model.StatusApproved, "")
}

// Reject moves a SUBMITTED document to REJECTED. reason must not be blank.
func (e *Engine) Reject(ctx context.Context, id int64, reviewer, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: rejection reason is required", model.ErrInvalidInput)
	}
	return e.review(ctx, id, reviewer, model.StatusRejected, reason)
}

func (e *Engine) review(ctx context.Context, id int64, reviewer string, to model.Status, reason string) error {
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		return fmt.Errorf("%w: reviewer is required", model.ErrInvalidInput)
	}
	var doc *model.Document
	err := e.store.WriteTx(ctx, func(w repository.Writer) error {
		var err error
		doc, err = w.Get(ctx, id)
		if err != nil {
			return err
		}
		if doc.Status != model.StatusSubmitted {
			return fmt.Errorf("%w: document %d is %s, only submitted documents can be reviewed", model.ErrConflict, id, doc.Status)
		}
		now := e.now()
		doc.Status = to
		doc.ReviewDate = &now
		doc.DocumentReceiver = reviewer
		doc.RejectionReason = reason
		return w.Update(ctx, doc, model.StatusSubmitted)
	})
	if err != nil {
		return err
	}
	e.log.Info("document reviewed",
		zap.Int64("document_id", id),
		zap.String("status", string(to)),
		zap.String("reviewer", reviewer))
	if e.notifier != nil {
		if err := e.notifier.DocumentReviewed(ctx, doc); err != nil {
			e.log.Error("review notification failed", zap.Int64("document_id", id), zap.Error(err))
		}
	}
	return nil
}

// Delete removes a document and its attachments in any state.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	err := e.store.WriteTx(ctx, func(w repository.Writer) error {
		return w.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	e.log.Info("document deleted", zap.Int64("document_id", id))
	return nil
}

// DeleteByDescription removes every document whose description equals
// description and reports how many were removed.
func (e *Engine) DeleteByDescription(ctx context.Context, description string) (int, error) {
	var n int
	err := e.store.WriteTx(ctx, func(w repository.Writer) error {
		var err error
		n, err = w.DeleteByDescription(ctx, description)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.log.Info("documents deleted by description", zap.String("description", description), zap.Int("deleted", n))
	return n, nil
}

func validate(f model.Fields, withAuthor bool) error {
	var missing []string
	if withAuthor && strings.TrimSpace(f.Author) == "" {
		missing = append(missing, "author")
	}
	if strings.TrimSpace(f.DocType) == "" {
		missing = append(missing, "docType")
	}
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", model.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
