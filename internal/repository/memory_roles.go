package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

func (m *MemoryStore) ListRoles(ctx context.Context) ([]model.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Role, 0, len(m.state.roles))
	for name, ops := range m.state.roles {
		out = append(out, model.Role{Name: name, Operations: append([]string{}, ops...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) GetRole(ctx context.Context, name string) (*model.Role, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ops, ok := m.state.roles[name]
	if !ok {
		return nil, notFound("role", name)
	}
	return &model.Role{Name: name, Operations: append([]string{}, ops...)}, nil
}

func (m *MemoryStore) CreateRole(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.roles[name]; ok {
		return fmt.Errorf("%w: role %s already exists", model.ErrConflict, name)
	}
	m.state.roles[name] = []string{}
	return nil
}

func (m *MemoryStore) SetOperations(ctx context.Context, role string, operations []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.roles[role]; !ok {
		return notFound("role", role)
	}
	for _, op := range operations {
		if _, ok := m.state.operations[op]; !ok {
			return notFound("operation", op)
		}
	}
	m.state.roles[role] = append([]string{}, operations...)
	return nil
}

func (m *MemoryStore) DeleteRole(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.roles[name]; !ok {
		return notFound("role", name)
	}
	delete(m.state.roles, name)
	return nil
}

func (m *MemoryStore) ListOperations(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.state.operations))
	for op := range m.state.operations {
		out = append(out, op)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) CreateOperation(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.operations[name]; ok {
		return fmt.Errorf("%w: operation %s already exists", model.ErrConflict, name)
	}
	m.state.operations[name] = struct{}{}
	return nil
}
