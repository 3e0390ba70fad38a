package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/DocFlow/internal/model"
)

func (p *Postgres) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT r.name, ro.operation_name
		FROM roles r LEFT JOIN role_operations ro ON ro.role_name = r.name
		ORDER BY r.name, ro.position`)
	if err != nil {
		return nil, storageErr("select roles", err)
	}
	defer rows.Close()
	var out []model.Role
	for rows.Next() {
		var (
			name string
			op   *string
		)
		if err := rows.Scan(&name, &op); err != nil {
			return nil, storageErr("scan role", err)
		}
		if len(out) == 0 || out[len(out)-1].Name != name {
			out = append(out, model.Role{Name: name, Operations: []string{}})
		}
		if op != nil {
			last := &out[len(out)-1]
			last.Operations = append(last.Operations, *op)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("select roles", err)
	}
	return out, nil
}

func (p *Postgres) GetRole(ctx context.Context, name string) (*model.Role, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name=$1)`, name).Scan(&exists); err != nil {
		return nil, storageErr("select role", err)
	}
	if !exists {
		return nil, notFound("role", name)
	}
	rows, err := p.pool.Query(ctx, `
		SELECT operation_name FROM role_operations WHERE role_name=$1 ORDER BY position`, name)
	if err != nil {
		return nil, storageErr("select role operations", err)
	}
	ops, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storageErr("scan role operations", err)
	}
	if ops == nil {
		ops = []string{}
	}
	return &model.Role{Name: name, Operations: ops}, nil
}

func (p *Postgres) CreateRole(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	if err != nil {
		return storageErr("insert role", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: role %s already exists", model.ErrConflict, name)
	}
	return nil
}

func (p *Postgres) SetOperations(ctx context.Context, role string, operations []string) error {
	return p.run(ctx, pgx.TxOptions{}, func(t *pgTx) error {
		var exists bool
		if err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name=$1)`, role).Scan(&exists); err != nil {
			return storageErr("select role", err)
		}
		if !exists {
			return notFound("role", role)
		}
		for _, op := range operations {
			var known bool
			if err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM operations WHERE name=$1)`, op).Scan(&known); err != nil {
				return storageErr("select operation", err)
			}
			if !known {
				return notFound("operation", op)
			}
		}
		if _, err := t.tx.Exec(ctx, `DELETE FROM role_operations WHERE role_name=$1`, role); err != nil {
			return storageErr("clear role operations", err)
		}
		for i, op := range operations {
			if _, err := t.tx.Exec(ctx, `
				INSERT INTO role_operations (role_name, operation_name, position) VALUES ($1,$2,$3)`, role, op, i); err != nil {
				return storageErr("insert role operation", err)
			}
		}
		return nil
	})
}

func (p *Postgres) DeleteRole(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM roles WHERE name=$1`, name)
	if err != nil {
		return storageErr("delete role", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("role", name)
	}
	return nil
}

func (p *Postgres) ListOperations(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT name FROM operations ORDER BY name`)
	if err != nil {
		return nil, storageErr("select operations", err)
	}
	ops, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storageErr("scan operations", err)
	}
	return ops, nil
}

func (p *Postgres) CreateOperation(ctx context.Context, name string) error {
	tag, err := p.pool.Exec(ctx, `INSERT INTO operations (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	if err != nil {
		return storageErr("insert operation", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: operation %s already exists", model.ErrConflict, name)
	}
	return nil
}
