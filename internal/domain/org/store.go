package org

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"perfeval/internal/platform/db"
	"perfeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `id, email, full_name, COALESCE(position, ''), role, group_id, supervisor_id, active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Position, &u.Role, &u.GroupID, &u.SupervisorID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	var args db.Args
	where := " WHERE 1=1"
	if filter.GroupID != "" {
		where += " AND group_id = " + args.Add(filter.GroupID)
	}
	if filter.Role != "" {
		where += " AND role = " + args.Add(filter.Role)
	}
	if filter.Active != nil {
		where += " AND active = " + args.Add(*filter.Active)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM profiles"+where, args.Values()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + userColumns + " FROM profiles" + where + " ORDER BY full_name, id"
	if filter.Limit > 0 {
		query += " LIMIT " + args.Add(filter.Limit) + " OFFSET " + args.Add(filter.Offset)
	}
	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, 0, err
	}
	users, err := collectUsers(rows)
	return users, total, err
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM profiles WHERE id = $1", id))
}

func (s *Store) CreateUser(ctx context.Context, input UserInput) (User, error) {
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	user, err := scanUser(s.DB.QueryRow(ctx, `
    INSERT INTO profiles (id, email, full_name, position, role, group_id, supervisor_id, active)
    VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
    RETURNING `+userColumns,
		db.NullIfEmpty(input.ID), input.Email, input.FullName, input.Position, input.Role,
		db.NullIfEmpty(input.GroupID), db.NullIfEmpty(input.SupervisorID), active))
	return user, mapUniqueViolation(err)
}

func (s *Store) UpdateUser(ctx context.Context, id string, input UserInput) (User, error) {
	user, err := scanUser(s.DB.QueryRow(ctx, `
    UPDATE profiles
    SET email = $1, full_name = $2, position = $3, role = $4, group_id = $5, supervisor_id = $6,
        active = COALESCE($7, active), updated_at = now()
    WHERE id = $8
    RETURNING `+userColumns,
		input.Email, input.FullName, input.Position, input.Role,
		db.NullIfEmpty(input.GroupID), db.NullIfEmpty(input.SupervisorID), input.Active, id))
	return user, mapUniqueViolation(err)
}

func (s *Store) Subordinates(ctx context.Context, supervisorID string) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+" FROM profiles WHERE supervisor_id = $1 ORDER BY full_name, id", supervisorID)
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ActiveUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+" FROM profiles WHERE active ORDER BY id")
	if err != nil {
		return nil, err
	}
	return collectUsers(rows)
}

func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, parent_id, manager_id, created_at
    FROM org_groups
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name, &g.ParentID, &g.ManagerID, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *Store) GetGroup(ctx context.Context, id string) (Group, error) {
	var g Group
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, parent_id, manager_id, created_at
    FROM org_groups
    WHERE id = $1
  `, id).Scan(&g.ID, &g.Name, &g.ParentID, &g.ManagerID, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Group{}, ErrNotFound
	}
	return g, err
}

func (s *Store) CreateGroup(ctx context.Context, input GroupInput) (Group, error) {
	var g Group
	err := s.DB.QueryRow(ctx, `
    INSERT INTO org_groups (name, parent_id, manager_id)
    VALUES ($1, $2, $3)
    RETURNING id, name, parent_id, manager_id, created_at
  `, input.Name, db.NullIfEmpty(input.ParentID), db.NullIfEmpty(input.ManagerID)).Scan(&g.ID, &g.Name, &g.ParentID, &g.ManagerID, &g.CreatedAt)
	return g, err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}
