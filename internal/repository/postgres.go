package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

// Postgres implements Store and RoleStore on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs the Postgres adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var readOnlySnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// ReadTx runs fn in a REPEATABLE READ, READ ONLY transaction so that every
// statement in fn sees the same snapshot.
func (p *Postgres) ReadTx(ctx context.Context, fn func(Reader) error) error {
	return p.run(ctx, readOnlySnapshot, func(tx *pgTx) error { return fn(tx) })
}

// WriteTx runs fn in a READ COMMITTED transaction. Status transitions are
// guarded in Update, so no stronger isolation is needed.
func (p *Postgres) WriteTx(ctx context.Context, fn func(Writer) error) error {
	return p.run(ctx, pgx.TxOptions{}, func(tx *pgTx) error { return fn(tx) })
}

func (p *Postgres) run(ctx context.Context, opts pgx.TxOptions, fn func(*pgTx) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, p.pool, opts, func(tx pgx.Tx) error {
		fnErr = fn(&pgTx{tx: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return storageErr("transaction", err)
	}
	return err
}

type pgTx struct {
	tx pgx.Tx
}

const documentColumns = `id, author, doc_type, title, description, status, submission_date, review_date, document_receiver, rejection_reason`

func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		doc      model.Document
		receiver *string
		reason   *string
	)
	if err := row.Scan(&doc.ID, &doc.Author, &doc.DocType, &doc.Title, &doc.Description, &doc.Status,
		&doc.SubmissionDate, &doc.ReviewDate, &receiver, &reason); err != nil {
		return nil, err
	}
	if receiver != nil {
		doc.DocumentReceiver = *receiver
	}
	if reason != nil {
		doc.RejectionReason = *reason
	}
	return &doc, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (t *pgTx) Get(ctx context.Context, id int64) (*model.Document, error) {
	doc, err := scanDocument(t.tx.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("document", id)
		}
		return nil, storageErr("select document", err)
	}
	rows, err := t.tx.Query(ctx, `
		SELECT id, document_id, file_name, content_type, data, created_at
		FROM attachments WHERE document_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, storageErr("select attachments", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.FileName, &a.ContentType, &a.Data, &a.CreatedAt); err != nil {
			return nil, storageErr("scan attachment", err)
		}
		doc.Attachments = append(doc.Attachments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("select attachments", err)
	}
	return doc, nil
}

func (t *pgTx) GetAttachment(ctx context.Context, id string) (*model.Attachment, error) {
	var a model.Attachment
	err := t.tx.QueryRow(ctx, `
		SELECT id, document_id, file_name, content_type, data, created_at
		FROM attachments WHERE id=$1`, id).
		Scan(&a.ID, &a.DocumentID, &a.FileName, &a.ContentType, &a.Data, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("attachment", id)
		}
		return nil, storageErr("select attachment", err)
	}
	return &a, nil
}

// where renders f as a WHERE clause. Find and Count both go through here.
func (f Filter) where(args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Author != "" {
		add("author = $%d", f.Author)
	}
	if f.Groups != nil {
		add("doc_type = ANY($%d)", f.Groups)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.TitleContains != "" {
		add("strpos(lower(title), lower($%d)) > 0", f.TitleContains)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (t *pgTx) Find(ctx context.Context, f Filter, w *Window) ([]*model.Document, error) {
	where, args := f.where(nil)
	query := `SELECT ` + documentColumns + ` FROM documents` + where + ` ORDER BY id DESC`
	if w != nil {
		args = append(args, w.Limit, w.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("select documents", err)
	}
	var (
		docs []*model.Document
		ids  []int64
	)
	byID := make(map[int64]*model.Document)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, storageErr("scan document", err)
		}
		docs = append(docs, doc)
		ids = append(ids, doc.ID)
		byID[doc.ID] = doc
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storageErr("select documents", err)
	}
	if len(ids) == 0 {
		return docs, nil
	}
	attRows, err := t.tx.Query(ctx, `
		SELECT id, document_id, file_name, content_type, created_at
		FROM attachments WHERE document_id = ANY($1) ORDER BY document_id, position`, ids)
	if err != nil {
		return nil, storageErr("select attachments", err)
	}
	defer attRows.Close()
	for attRows.Next() {
		var a model.Attachment
		if err := attRows.Scan(&a.ID, &a.DocumentID, &a.FileName, &a.ContentType, &a.CreatedAt); err != nil {
			return nil, storageErr("scan attachment", err)
		}
		if doc, ok := byID[a.DocumentID]; ok {
			doc.Attachments = append(doc.Attachments, a)
		}
	}
	if err := attRows.Err(); err != nil {
		return nil, storageErr("select attachments", err)
	}
	return docs, nil
}

func (t *pgTx) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.where(nil)
	var n int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&n); err != nil {
		return 0, storageErr("count documents", err)
	}
	return n, nil
}

func (t *pgTx) CountSubmitted(ctx context.Context, docType string, from, to time.Time) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents
		WHERE doc_type=$1 AND submission_date BETWEEN $2 AND $3`, docType, from, to).Scan(&n)
	if err != nil {
		return 0, storageErr("count submitted", err)
	}
	return n, nil
}

func (t *pgTx) CountByStatus(ctx context.Context, docType string, status model.Status, from, to time.Time) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents
		WHERE doc_type=$1 AND status=$2 AND submission_date BETWEEN $3 AND $4`,
		docType, string(status), from, to).Scan(&n)
	if err != nil {
		return 0, storageErr("count by status", err)
	}
	return n, nil
}

func (t *pgTx) TopAuthors(ctx context.Context, docType string, from, to time.Time, limit int) ([]model.AuthorCount, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT author, COUNT(*) AS submitted FROM documents
		WHERE doc_type=$1 AND submission_date BETWEEN $2 AND $3
		GROUP BY author
		ORDER BY submitted DESC, author ASC
		LIMIT $4`, docType, from, to, limit)
	if err != nil {
		return nil, storageErr("top authors", err)
	}
	defer rows.Close()
	var out []model.AuthorCount
	for rows.Next() {
		var row model.AuthorCount
		if err := rows.Scan(&row.Author, &row.Submitted); err != nil {
			return nil, storageErr("scan top authors", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("top authors", err)
	}
	return out, nil
}

func (t *pgTx) Insert(ctx context.Context, doc *model.Document) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO documents (author, doc_type, title, description, status, submission_date, review_date, document_receiver, rejection_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		doc.Author, doc.DocType, doc.Title, doc.Description, string(doc.Status),
		doc.SubmissionDate, doc.ReviewDate, nullable(doc.DocumentReceiver), nullable(doc.RejectionReason),
	).Scan(&doc.ID)
	if err != nil {
		return storageErr("insert document", err)
	}
	return t.copyAttachments(ctx, doc.ID, 0, doc.Attachments)
}

// copyAttachments bulk-loads attachments starting at position start.
func (t *pgTx) copyAttachments(ctx context.Context, docID int64, start int, atts []model.Attachment) error {
	if len(atts) == 0 {
		return nil
	}
	for i := range atts {
		atts[i].DocumentID = docID
	}
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"attachments"},
		[]string{"id", "document_id", "position", "file_name", "content_type", "data", "created_at"},
		pgx.CopyFromSlice(len(atts), func(i int) ([]any, error) {
			a := atts[i]
			return []any{a.ID, docID, start + i, a.FileName, a.ContentType, a.Data, a.CreatedAt}, nil
		}),
	)
	if err != nil {
		return storageErr("insert attachments", err)
	}
	return nil
}

func (t *pgTx) Update(ctx context.Context, doc *model.Document, expected model.Status) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE documents
		SET doc_type=$1, title=$2, description=$3, status=$4,
			submission_date=$5, review_date=$6, document_receiver=$7, rejection_reason=$8
		WHERE id=$9 AND status=$10`,
		doc.DocType, doc.Title, doc.Description, string(doc.Status),
		doc.SubmissionDate, doc.ReviewDate, nullable(doc.DocumentReceiver), nullable(doc.RejectionReason),
		doc.ID, string(expected))
	if err != nil {
		return storageErr("update document", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var current string
	err = t.tx.QueryRow(ctx, `SELECT status FROM documents WHERE id=$1`, doc.ID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("document", doc.ID)
	}
	if err != nil {
		return storageErr("select status", err)
	}
	return fmt.Errorf("%w: document %d is %s, expected %s", model.ErrConflict, doc.ID, current, expected)
}

func (t *pgTx) AddAttachments(ctx context.Context, docID int64, atts []model.Attachment) error {
	var next int
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(a.position)+1, 0) FROM documents d
		LEFT JOIN attachments a ON a.document_id = d.id
		WHERE d.id=$1 GROUP BY d.id`, docID).Scan(&next)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("document", docID)
	}
	if err != nil {
		return storageErr("attachment position", err)
	}
	return t.copyAttachments(ctx, docID, next, atts)
}

func (t *pgTx) Delete(ctx context.Context, id int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM attachments WHERE document_id=$1`, id); err != nil {
		return storageErr("delete attachments", err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return storageErr("delete document", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("document", id)
	}
	return nil
}

func (t *pgTx) DeleteByDescription(ctx context.Context, description string) (int, error) {
	if _, err := t.tx.Exec(ctx, `
		DELETE FROM attachments WHERE document_id IN (SELECT id FROM documents WHERE description=$1)`, description); err != nil {
		return 0, storageErr("delete attachments", err)
	}
	tag, err := t.tx.Exec(ctx, `DELETE FROM documents WHERE description=$1`, description)
	if err != nil {
		return 0, storageErr("delete documents", err)
	}
	return int(tag.RowsAffected()), nil
}
