package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

// MemoryStore keeps documents and roles in maps guarded by an RWMutex. Read
// transactions share the read lock; a write transaction works on a copy that
// replaces the live state only when fn succeeds.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
}

type memState struct {
	docs       map[int64]*model.Document
	nextID     int64
	roles      map[string][]string
	operations map[string]struct{}
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		docs:       make(map[int64]*model.Document),
		roles:      make(map[string][]string),
		operations: make(map[string]struct{}),
	}}
}

func (s *memState) clone() *memState {
	cp := &memState{
		docs:       make(map[int64]*model.Document, len(s.docs)),
		nextID:     s.nextID,
		roles:      make(map[string][]string, len(s.roles)),
		operations: make(map[string]struct{}, len(s.operations)),
	}
	for id, d := range s.docs {
		cp.docs[id] = d.Clone()
	}
	for name, ops := range s.roles {
		cp.roles[name] = append([]string(nil), ops...)
	}
	for op := range s.operations {
		cp.operations[op] = struct{}{}
	}
	return cp
}

// ReadTx runs fn under the read lock.
func (m *MemoryStore) ReadTx(ctx context.Context, fn func(Reader) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{state: m.state})
}

// WriteTx runs fn against a private copy and commits it on success.
func (m *MemoryStore) WriteTx(ctx context.Context, fn func(Writer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	state *memState
}

func (t *memTx) Get(_ context.Context, id int64) (*model.Document, error) {
	d, ok := t.state.docs[id]
	if !ok {
		return nil, notFound("document", id)
	}
	return d.Clone(), nil
}

func (t *memTx) GetAttachment(_ context.Context, id string) (*model.Attachment, error) {
	for _, d := range t.state.docs {
		for _, a := range d.Attachments {
			if a.ID == id {
				cp := a.Clone()
				return &cp, nil
			}
		}
	}
	return nil, notFound("attachment", id)
}

func (t *memTx) matching(f Filter) []*model.Document {
	var out []*model.Document
	for _, d := range t.state.docs {
		if matches(f, d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (t *memTx) Find(_ context.Context, f Filter, w *Window) ([]*model.Document, error) {
	all := t.matching(f)
	if w != nil {
		offset := w.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(all) {
			all = nil
		} else {
			end := len(all)
			if w.Limit >= 0 && w.Limit < end-offset {
				end = offset + w.Limit
			}
			all = all[offset:end]
		}
	}
	out := make([]*model.Document, 0, len(all))
	for _, d := range all {
		cp := d.Clone()
		for i := range cp.Attachments {
			cp.Attachments[i].Data = nil
		}
		out = append(out, cp)
	}
	return out, nil
}

func (t *memTx) Count(_ context.Context, f Filter) (int, error) {
	return len(t.matching(f)), nil
}

func submittedWithin(d *model.Document, docType string, from, to time.Time) bool {
	if d.DocType != docType || d.SubmissionDate == nil {
		return false
	}
	at := *d.SubmissionDate
	return !at.Before(from) && !at.After(to)
}

func (t *memTx) CountSubmitted(_ context.Context, docType string, from, to time.Time) (int, error) {
	n := 0
	for _, d := range t.state.docs {
		if submittedWithin(d, docType, from, to) {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CountByStatus(_ context.Context, docType string, status model.Status, from, to time.Time) (int, error) {
	n := 0
	for _, d := range t.state.docs {
		if d.Status == status && submittedWithin(d, docType, from, to) {
			n++
		}
	}
	return n, nil
}

func (t *memTx) TopAuthors(_ context.Context, docType string, from, to time.Time, limit int) ([]model.AuthorCount, error) {
	counts := make(map[string]int)
	for _, d := range t.state.docs {
		if submittedWithin(d, docType, from, to) {
			counts[d.Author]++
		}
	}
	out := make([]model.AuthorCount, 0, len(counts))
	for author, n := range counts {
		out = append(out, model.AuthorCount{Author: author, Submitted: n})
	}
	sortAuthorCounts(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortAuthorCounts(rows []model.AuthorCount) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Submitted != rows[j].Submitted {
			return rows[i].Submitted > rows[j].Submitted
		}
		return rows[i].Author < rows[j].Author
	})
}

func (t *memTx) Insert(_ context.Context, doc *model.Document) error {
	t.state.nextID++
	doc.ID = t.state.nextID
	for i := range doc.Attachments {
		doc.Attachments[i].DocumentID = doc.ID
	}
	t.state.docs[doc.ID] = doc.Clone()
	return nil
}

func (t *memTx) Update(_ context.Context, doc *model.Document, expected model.Status) error {
	cur, ok := t.state.docs[doc.ID]
	if !ok {
		return notFound("document", doc.ID)
	}
	if cur.Status != expected {
		return fmt.Errorf("%w: document %d is %s, expected %s", model.ErrConflict, doc.ID, cur.Status, expected)
	}
	next := doc.Clone()
	next.Author = cur.Author
	next.Attachments = cur.Attachments
	t.state.docs[doc.ID] = next
	return nil
}

func (t *memTx) AddAttachments(_ context.Context, docID int64, atts []model.Attachment) error {
	cur, ok := t.state.docs[docID]
	if !ok {
		return notFound("document", docID)
	}
	for _, a := range atts {
		a = a.Clone()
		a.DocumentID = docID
		cur.Attachments = append(cur.Attachments, a)
	}
	return nil
}

func (t *memTx) Delete(_ context.Context, id int64) error {
	if _, ok := t.state.docs[id]; !ok {
		return notFound("document", id)
	}
	delete(t.state.docs, id)
	return nil
}

func (t *memTx) DeleteByDescription(_ context.Context, description string) (int, error) {
	n := 0
	for id, d := range t.state.docs {
		if d.Description == description {
			delete(t.state.docs, id)
			n++
		}
	}
	return n, nil
}

func matches(f Filter, d *model.Document) bool {
	if f.Author != "" && d.Author != f.Author {
		return false
	}
	if f.Groups != nil && !contains(f.Groups, d.DocType) {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.TitleContains != "" && !strings.Contains(strings.ToLower(d.Title), strings.ToLower(f.TitleContains)) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
