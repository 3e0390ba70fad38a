// Package worker runs the out-of-process archive job: reviewed documents are
// copied into object storage together with the text of their PDF files.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/model"
	pdfutil "github.com/dharsanguruparan/DocFlow/internal/pdf"
	"github.com/dharsanguruparan/DocFlow/internal/queue"
	"github.com/dharsanguruparan/DocFlow/internal/repository"
)

const textContentType = "text/plain; charset=utf-8"

// ObjectStore receives archived objects. *s3storage.Storage implements it.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Archiver is plugged into the asynq worker loop. It only reads documents.
type Archiver struct {
	store   repository.Store
	objects ObjectStore
	log     *zap.Logger
}

// NewArchiver constructs an Archiver.
func NewArchiver(store repository.Store, objects ObjectStore, log *zap.Logger) *Archiver {
	return &Archiver{store: store, objects: objects, log: log.With(zap.String("component", "archiver"))}
}

// Handler registers the archive job handler.
func (a *Archiver) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ArchiveDocumentTask, a.handleArchive)
	return mux
}

// ObjectKey is where an attachment is archived.
func ObjectKey(documentID int64, att model.Attachment) string {
	return path.Join("documents", fmt.Sprint(documentID), att.ID, att.FileName)
}

func (a *Archiver) handleArchive(ctx context.Context, task *asynq.Task) error {
	var payload queue.ArchivePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	var doc *model.Document
	err := a.store.ReadTx(ctx, func(r repository.Reader) error {
		var err error
		doc, err = r.Get(ctx, payload.DocumentID)
		return err
	})
	if errors.Is(err, model.ErrNotFound) {
		a.log.Warn("document vanished before archiving", zap.Int64("document_id", payload.DocumentID))
		return fmt.Errorf("document %d: %v: %w", payload.DocumentID, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("load document %d: %w", payload.DocumentID, err)
	}
	return a.archive(ctx, doc)
}

func (a *Archiver) archive(ctx context.Context, doc *model.Document) error {
	log := a.log.With(zap.Int64("document_id", doc.ID), zap.String("status", string(doc.Status)))
	for _, att := range doc.Attachments {
		key := ObjectKey(doc.ID, att)
		if err := a.objects.Put(ctx, key, att.Data, att.ContentType); err != nil {
			return fmt.Errorf("archive %s: %w", key, err)
		}
		if att.ContentType != "application/pdf" {
			continue
		}
		text, err := pdfutil.ExtractText(att.Data)
		if err != nil {
			log.Warn("pdf text extraction failed", zap.String("attachment_id", att.ID), zap.Error(err))
			continue
		}
		if err := a.objects.Put(ctx, key+".txt", []byte(text), textContentType); err != nil {
			return fmt.Errorf("archive %s.txt: %w", key, err)
		}
	}
	log.Info("document archived", zap.Int("attachments", len(doc.Attachments)))
	return nil
}
