package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := draft("alice", "invoice", "Q1")
	insert(t, store, doc)
	doc.Title = "mutated after insert"

	_ = store.ReadTx(ctx, func(r Reader) error {
		got, err := r.Get(ctx, doc.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "Q1" {
			t.Fatalf("store shares memory with caller: %q", got.Title)
		}
		got.Title = "mutated after get"
		again, _ := r.Get(ctx, doc.ID)
		if again.Title != "Q1" {
			t.Fatalf("store shares memory with reader: %q", again.Title)
		}
		return nil
	})
}

func TestMemoryStoreFindOmitsContent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := draft("alice", "invoice", "Q1")
	doc.Attachments = []model.Attachment{{ID: "a", FileName: "a.txt", Data: []byte("payload")}}
	insert(t, store, doc)

	_ = store.ReadTx(ctx, func(r Reader) error {
		list, _ := r.Find(ctx, Filter{Author: "alice"}, nil)
		if len(list) != 1 || len(list[0].Attachments) != 1 {
			t.Fatalf("unexpected list %+v", list)
		}
		if list[0].Attachments[0].Data != nil {
			t.Fatalf("Find must not carry attachment content")
		}
		att, _ := r.GetAttachment(ctx, "a")
		if string(att.Data) != "payload" {
			t.Fatalf("GetAttachment lost content")
		}
		return nil
	})
}

func TestMemoryStoreContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	called := false
	err := store.WriteTx(ctx, func(Writer) error { called = true; return nil })
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("expected cancelled write to be skipped, err=%v called=%v", err, called)
	}
}

func TestMemoryRoles(t *testing.T) {
	runRoleContract(t, NewMemoryStore())
}

func runRoleContract(t *testing.T, store RoleStore) {
	t.Helper()
	ctx := context.Background()
	for _, op := range []string{"document.approve", "document.reject", "document.read"} {
		if err := store.CreateOperation(ctx, op); err != nil {
			t.Fatalf("create operation %s: %v", op, err)
		}
	}
	if err := store.CreateOperation(ctx, "document.read"); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate operation, got %v", err)
	}
	if err := store.CreateRole(ctx, "reviewer"); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if err := store.CreateRole(ctx, "admin"); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if err := store.CreateRole(ctx, "reviewer"); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate role, got %v", err)
	}
	if err := store.SetOperations(ctx, "reviewer", []string{"document.read", "document.approve"}); err != nil {
		t.Fatalf("set operations: %v", err)
	}
	if err := store.SetOperations(ctx, "reviewer", []string{"document.shred"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown operation, got %v", err)
	}
	if err := store.SetOperations(ctx, "ghost", nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown role, got %v", err)
	}

	role, err := store.GetRole(ctx, "reviewer")
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if len(role.Operations) != 2 || role.Operations[0] != "document.read" || role.Operations[1] != "document.approve" {
		t.Fatalf("unexpected operations %v", role.Operations)
	}

	roles, err := store.ListRoles(ctx)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 2 || roles[0].Name != "admin" || roles[1].Name != "reviewer" {
		t.Fatalf("unexpected roles %+v", roles)
	}
	if len(roles[0].Operations) != 0 {
		t.Fatalf("admin should have no operations, got %v", roles[0].Operations)
	}

	ops, err := store.ListOperations(ctx)
	if err != nil || len(ops) != 3 || ops[0] != "document.approve" {
		t.Fatalf("unexpected operations %v err=%v", ops, err)
	}

	if err := store.DeleteRole(ctx, "reviewer"); err != nil {
		t.Fatalf("delete role: %v", err)
	}
	if _, err := store.GetRole(ctx, "reviewer"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteRole(ctx, "reviewer"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
