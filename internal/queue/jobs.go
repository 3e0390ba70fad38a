package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

const (
	// ArchiveDocumentTask is scheduled each time a document is approved or
	// rejected.
	ArchiveDocumentTask = "archive:document"

	maxArchiveRetry = 5
)

// ArchivePayload is serialized into the task payload so the worker knows which
// document to copy into the archive bucket.
type ArchivePayload struct {
	DocumentID int64 `json:"document_id"`
}

// Enqueuer is the part of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewArchiveTask builds the archive task for a document. The task id is
// derived from the document id, so a document is archived at most once.
func NewArchiveTask(documentID int64) (*asynq.Task, []asynq.Option, error) {
	data, err := json.Marshal(ArchivePayload{DocumentID: documentID})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal payload: %w", err)
	}
	opts := []asynq.Option{
		asynq.MaxRetry(maxArchiveRetry),
		asynq.TaskID(fmt.Sprintf("archive-%d", documentID)),
	}
	return asynq.NewTask(ArchiveDocumentTask, data), opts, nil
}

// EnqueueArchive enqueues an archive job. A job already queued for the same
// document is not an error.
func EnqueueArchive(ctx context.Context, client Enqueuer, documentID int64) error {
	task, opts, err := NewArchiveTask(documentID)
	if err != nil {
		return err
	}
	if _, err := client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue archive task: %w", err)
	}
	return nil
}

// Publisher enqueues archive jobs for reviewed documents.
type Publisher struct {
	client Enqueuer
}

// NewPublisher constructs a Publisher on an asynq client.
func NewPublisher(client Enqueuer) *Publisher {
	return &Publisher{client: client}
}

// DocumentReviewed enqueues the archive job for doc.
func (p *Publisher) DocumentReviewed(ctx context.Context, doc *model.Document) error {
	return EnqueueArchive(ctx, p.client, doc.ID)
}
