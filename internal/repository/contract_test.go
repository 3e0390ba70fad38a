package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

// runStoreContract exercises behaviour every Store adapter must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("InsertAndGet", func(t *testing.T) { testInsertAndGet(t, newStore(t)) })
	t.Run("FilterCountConsistency", func(t *testing.T) { testFilterCountConsistency(t, newStore(t)) })
	t.Run("WindowBeyondRange", func(t *testing.T) { testWindowBeyondRange(t, newStore(t)) })
	t.Run("UpdateGuard", func(t *testing.T) { testUpdateGuard(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollbackOnError(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
	t.Run("Statistics", func(t *testing.T) { testStatistics(t, newStore(t)) })
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(days int) *time.Time {
	v := baseTime.AddDate(0, 0, days)
	return &v
}

func insert(t *testing.T, s Store, doc *model.Document) *model.Document {
	t.Helper()
	err := s.WriteTx(context.Background(), func(w Writer) error {
		return w.Insert(context.Background(), doc)
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return doc
}

func draft(author, docType, title string) *model.Document {
	return &model.Document{Author: author, DocType: docType, Title: title, Status: model.StatusSaved}
}

func submitted(author, docType, title string, day int) *model.Document {
	d := draft(author, docType, title)
	d.Status = model.StatusSubmitted
	d.SubmissionDate = at(day)
	return d
}

func testInsertAndGet(t *testing.T, s Store) {
	ctx := context.Background()
	doc := draft("alice", "invoice", "Q1 report")
	doc.Attachments = []model.Attachment{
		{ID: "11111111-1111-1111-1111-111111111111", FileName: "q1.pdf", ContentType: "application/pdf", Data: []byte("%PDF"), CreatedAt: baseTime},
		{ID: "22222222-2222-2222-2222-222222222222", FileName: "notes.txt", ContentType: "text/plain", Data: []byte("n"), CreatedAt: baseTime},
	}
	insert(t, s, doc)
	if doc.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}
	err := s.ReadTx(ctx, func(r Reader) error {
		got, err := r.Get(ctx, doc.ID)
		if err != nil {
			return err
		}
		if got.Author != "alice" || got.Status != model.StatusSaved {
			t.Errorf("unexpected document %+v", got)
		}
		if len(got.Attachments) != 2 || got.Attachments[0].FileName != "q1.pdf" || got.Attachments[1].FileName != "notes.txt" {
			t.Errorf("attachments not kept in order: %+v", got.Attachments)
		}
		att, err := r.GetAttachment(ctx, "22222222-2222-2222-2222-222222222222")
		if err != nil {
			return err
		}
		if string(att.Data) != "n" || att.DocumentID != doc.ID {
			t.Errorf("unexpected attachment %+v", att)
		}
		if _, err := r.Get(ctx, doc.ID+1000); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := r.GetAttachment(ctx, "33333333-3333-3333-3333-333333333333"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected ErrNotFound for attachment, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
}

func testFilterCountConsistency(t *testing.T, s Store) {
	ctx := context.Background()
	insert(t, s, draft("alice", "invoice", "Q1 report"))
	insert(t, s, submitted("alice", "invoice", "Q2 Report", 1))
	insert(t, s, submitted("bob", "leave", "Holiday request", 2))
	insert(t, s, submitted("carol", "invoice", "march REPORT", 3))
	insert(t, s, draft("bob", "travel", "Trip"))

	filters := []Filter{
		{},
		{Author: "alice"},
		{Author: "alice", Status: model.StatusSubmitted},
		{Author: "alice", TitleContains: "report"},
		{Author: "nobody"},
		{Groups: []string{"invoice"}},
		{Groups: []string{"invoice", "leave"}, Status: model.StatusSubmitted},
		{Groups: []string{"invoice"}, TitleContains: "REPORT"},
		{Groups: []string{}},
		{Status: model.StatusSaved},
	}
	err := s.ReadTx(ctx, func(r Reader) error {
		for _, f := range filters {
			all, err := r.Find(ctx, f, nil)
			if err != nil {
				return err
			}
			n, err := r.Count(ctx, f)
			if err != nil {
				return err
			}
			if n != len(all) {
				t.Errorf("filter %+v: count %d != %d rows", f, n, len(all))
			}
			for i := 1; i < len(all); i++ {
				if all[i-1].ID <= all[i].ID {
					t.Errorf("filter %+v: not ordered by id desc", f)
				}
			}
			for size := 1; size <= 3; size++ {
				for off := 0; off <= len(all); off += size {
					page, err := r.Find(ctx, f, &Window{Offset: off, Limit: size})
					if err != nil {
						return err
					}
					end := off + size
					if end > len(all) {
						end = len(all)
					}
					want := all[off:end]
					if len(page) != len(want) {
						t.Fatalf("filter %+v window %d/%d: got %d rows want %d", f, off, size, len(page), len(want))
					}
					for i := range page {
						if page[i].ID != want[i].ID {
							t.Errorf("filter %+v window %d/%d: row %d id %d want %d", f, off, size, i, page[i].ID, want[i].ID)
						}
					}
				}
			}
		}
		n, err := r.Count(ctx, Filter{Groups: []string{"invoice"}, TitleContains: "report"})
		if err != nil {
			return err
		}
		if n != 3 {
			t.Errorf("expected case-insensitive title match on 3 invoices, got %d", n)
		}
		if n, _ := r.Count(ctx, Filter{Groups: []string{}}); n != 0 {
			t.Errorf("empty group list must match nothing, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
}

func testWindowBeyondRange(t *testing.T, s Store) {
	ctx := context.Background()
	insert(t, s, draft("alice", "invoice", "only"))
	err := s.ReadTx(ctx, func(r Reader) error {
		page, err := r.Find(ctx, Filter{Author: "alice"}, &Window{Offset: 10, Limit: 5})
		if err != nil {
			return err
		}
		if len(page) != 0 {
			t.Errorf("expected empty page, got %d", len(page))
		}
		page, err = r.Find(ctx, Filter{Author: "alice"}, &Window{Offset: math.MaxInt - 1, Limit: math.MaxInt})
		if err != nil {
			return err
		}
		if len(page) != 0 {
			t.Errorf("expected empty page for huge offset, got %d", len(page))
		}
		page, err = r.Find(ctx, Filter{Author: "alice"}, &Window{Offset: 0, Limit: math.MaxInt})
		if err != nil {
			return err
		}
		if len(page) != 1 {
			t.Errorf("expected the only document for huge limit, got %d", len(page))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
}

func testUpdateGuard(t *testing.T, s Store) {
	ctx := context.Background()
	doc := insert(t, s, submitted("alice", "invoice", "Q1", 0))

	approve := func(receiver string) error {
		return s.WriteTx(ctx, func(w Writer) error {
			next := *doc
			next.Status = model.StatusApproved
			next.ReviewDate = at(1)
			next.DocumentReceiver = receiver
			next.Author = "mallory"
			return w.Update(ctx, &next, model.StatusSubmitted)
		})
	}
	if err := approve("bob"); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := approve("carol"); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for second update, got %v", err)
	}
	missing := *doc
	missing.ID = doc.ID + 1000
	err := s.WriteTx(ctx, func(w Writer) error { return w.Update(ctx, &missing, model.StatusSubmitted) })
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = s.ReadTx(ctx, func(r Reader) error {
		got, err := r.Get(ctx, doc.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.DocumentReceiver != "bob" {
			t.Errorf("expected first reviewer to win, got %q", got.DocumentReceiver)
		}
		if got.Author != "alice" {
			t.Errorf("author must never change, got %q", got.Author)
		}
		return nil
	})
}

func testRollbackOnError(t *testing.T, s Store) {
	ctx := context.Background()
	doc := insert(t, s, draft("alice", "invoice", "Q1"))
	boom := errors.New("boom")
	err := s.WriteTx(ctx, func(w Writer) error {
		if err := w.AddAttachments(ctx, doc.ID, []model.Attachment{{ID: "44444444-4444-4444-4444-444444444444", FileName: "a.txt", Data: []byte("a"), CreatedAt: baseTime}}); err != nil {
			return err
		}
		if err := w.Insert(ctx, draft("alice", "invoice", "ghost")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	_ = s.ReadTx(ctx, func(r Reader) error {
		got, err := r.Get(ctx, doc.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Attachments) != 0 {
			t.Errorf("expected rollback of attachments, got %d", len(got.Attachments))
		}
		n, _ := r.Count(ctx, Filter{Author: "alice"})
		if n != 1 {
			t.Errorf("expected rollback of insert, got %d documents", n)
		}
		return nil
	})
}

func testDeleteCascades(t *testing.T, s Store) {
	ctx := context.Background()
	doc := draft("alice", "invoice", "Q1")
	doc.Attachments = []model.Attachment{{ID: "55555555-5555-5555-5555-555555555555", FileName: "a.txt", Data: []byte("a"), CreatedAt: baseTime}}
	insert(t, s, doc)
	other := draft("alice", "invoice", "cleanup")
	other.Description = "fixture"
	insert(t, s, other)
	insert(t, s, &model.Document{Author: "bob", DocType: "x", Title: "y", Description: "fixture", Status: model.StatusSaved})

	if err := s.WriteTx(ctx, func(w Writer) error { return w.Delete(ctx, doc.ID) }); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err := s.WriteTx(ctx, func(w Writer) error { return w.Delete(ctx, doc.ID) })
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	var removed int
	err = s.WriteTx(ctx, func(w Writer) error {
		var err error
		removed, err = w.DeleteByDescription(ctx, "fixture")
		return err
	})
	if err != nil || removed != 2 {
		t.Fatalf("delete by description: removed=%d err=%v", removed, err)
	}
	_ = s.ReadTx(ctx, func(r Reader) error {
		if _, err := r.GetAttachment(ctx, "55555555-5555-5555-5555-555555555555"); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("expected attachment to be deleted with its document, got %v", err)
		}
		if n, _ := r.Count(ctx, Filter{}); n != 0 {
			t.Errorf("expected empty store, got %d", n)
		}
		return nil
	})
}

func testStatistics(t *testing.T, s Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		insert(t, s, submitted("erin", "invoice", fmt.Sprintf("e%d", i), i))
	}
	for i := 0; i < 3; i++ {
		insert(t, s, submitted("dave", "invoice", fmt.Sprintf("d%d", i), i))
		insert(t, s, submitted("carl", "invoice", fmt.Sprintf("c%d", i), i))
	}
	late := submitted("zed", "invoice", "late", 30)
	insert(t, s, late)
	insert(t, s, submitted("erin", "leave", "other type", 1))
	insert(t, s, draft("erin", "invoice", "draft never counts"))
	approved := submitted("dave", "invoice", "ok", 2)
	approved.Status = model.StatusApproved
	approved.ReviewDate = at(3)
	approved.DocumentReceiver = "bob"
	insert(t, s, approved)

	from, to := baseTime, baseTime.AddDate(0, 0, 10)
	_ = s.ReadTx(ctx, func(r Reader) error {
		top, err := r.TopAuthors(ctx, "invoice", from, to, 2)
		if err != nil {
			t.Fatalf("top authors: %v", err)
		}
		if len(top) != 2 {
			t.Fatalf("expected 2 rows, got %+v", top)
		}
		if top[0].Author != "erin" || top[0].Submitted != 5 {
			t.Errorf("expected erin with 5 first, got %+v", top[0])
		}
		if top[1].Author != "dave" || top[1].Submitted != 4 {
			t.Errorf("expected dave with 4 second, got %+v", top[1])
		}
		again, _ := r.TopAuthors(ctx, "invoice", from, to, 3)
		if len(again) != 3 || again[2].Author != "carl" {
			t.Errorf("unexpected ranking %+v", again)
		}
		n, _ := r.CountSubmitted(ctx, "invoice", from, to)
		if n != 12 {
			t.Errorf("expected 12 submitted in range, got %d", n)
		}
		n, _ = r.CountByStatus(ctx, "invoice", model.StatusApproved, from, to)
		if n != 1 {
			t.Errorf("expected 1 approved, got %d", n)
		}
		n, _ = r.CountByStatus(ctx, "invoice", model.StatusRejected, from, to)
		if n != 0 {
			t.Errorf("expected 0 rejected, got %d", n)
		}
		return nil
	})
}
