// Package roles manages the role catalog used by clients to decide which
// actions to offer. It does not enforce anything.
package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/model"
	"github.com/dharsanguruparan/DocFlow/internal/repository"
)

// Service wraps a RoleStore with a read-through cache on Get.
type Service struct {
	store repository.RoleStore
	cache *cache.Cache
	log   *zap.Logger
}

// NewService constructs a Service whose cached roles expire after ttl.
func NewService(store repository.RoleStore, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{
		store: store,
		cache: cache.New(ttl, 2*ttl),
		log:   log.With(zap.String("component", "roles")),
	}
}

func clean(name, kind string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: %s name is required", model.ErrInvalidInput, kind)
	}
	return name, nil
}

func copyRole(r *model.Role) *model.Role {
	return &model.Role{Name: r.Name, Operations: append([]string{}, r.Operations...)}
}

// List returns every role ordered by name.
func (s *Service) List(ctx context.Context) ([]model.Role, error) {
	return s.store.ListRoles(ctx)
}

// Get returns one role, from cache when possible.
func (s *Service) Get(ctx context.Context, name string) (*model.Role, error) {
	name, err := clean(name, "role")
	if err != nil {
		return nil, err
	}
	if v, ok := s.cache.Get(name); ok {
		return copyRole(v.(*model.Role)), nil
	}
	role, err := s.store.GetRole(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, copyRole(role), cache.DefaultExpiration)
	return role, nil
}

// Create adds an empty role.
func (s *Service) Create(ctx context.Context, name string) error {
	name, err := clean(name, "role")
	if err != nil {
		return err
	}
	if err := s.store.CreateRole(ctx, name); err != nil {
		return err
	}
	s.cache.Delete(name)
	s.log.Info("role created", zap.String("role", name))
	return nil
}

// UpdateOperations replaces the operations granted to a role. Duplicates are
// dropped; the first occurrence keeps its position.
func (s *Service) UpdateOperations(ctx context.Context, name string, operations []string) error {
	name, err := clean(name, "role")
	if err != nil {
		return err
	}
	ops := make([]string, 0, len(operations))
	seen := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		op, err := clean(op, "operation")
		if err != nil {
			return err
		}
		if _, ok := seen[op]; ok {
			continue
		}
		seen[op] = struct{}{}
		ops = append(ops, op)
	}
	defer s.cache.Delete(name)
	if err := s.store.SetOperations(ctx, name, ops); err != nil {
		return err
	}
	s.log.Info("role operations updated", zap.String("role", name), zap.Strings("operations", ops))
	return nil
}

// Delete removes a role.
func (s *Service) Delete(ctx context.Context, name string) error {
	name, err := clean(name, "role")
	if err != nil {
		return err
	}
	defer s.cache.Delete(name)
	if err := s.store.DeleteRole(ctx, name); err != nil {
		return err
	}
	s.log.Info("role deleted", zap.String("role", name))
	return nil
}

// ListOperations returns every known operation ordered by name.
func (s *Service) ListOperations(ctx context.Context) ([]string, error) {
	return s.store.ListOperations(ctx)
}

// CreateOperation registers an operation that roles may be granted.
func (s *Service) CreateOperation(ctx context.Context, name string) error {
	name, err := clean(name, "operation")
	if err != nil {
		return err
	}
	if err := s.store.CreateOperation(ctx, name); err != nil {
		return err
	}
	s.log.Info("operation created", zap.String("operation", name))
	return nil
}
