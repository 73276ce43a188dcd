package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"perfeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const (
	dimensionColumns = `id, period_id, code, name, COALESCE(description, ''), axis, weight, display_order, COALESCE(color, '')`
	itemColumns      = `id, dimension_id, text, weight, required, display_order, applies_to`
)

func scanDimension(row pgx.Row) (Dimension, error) {
	var d Dimension
	err := row.Scan(&d.ID, &d.PeriodID, &d.Code, &d.Name, &d.Description, &d.Axis, &d.Weight, &d.DisplayOrder, &d.Color)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dimension{}, ErrNotFound
	}
	return d, mapConflict(err)
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.DimensionID, &it.Text, &it.Weight, &it.Required, &it.DisplayOrder, &it.AppliesTo)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (s *Store) ListDimensions(ctx context.Context, periodID string) ([]Dimension, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+dimensionColumns+" FROM dimensions WHERE period_id = $1 ORDER BY display_order, code", periodID)
	if err != nil {
		return nil, err
	}
	dims := []Dimension{}
	index := map[string]int{}
	for rows.Next() {
		d, err := scanDimension(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		d.Items = []Item{}
		index[d.ID] = len(dims)
		dims = append(dims, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := s.DB.Query(ctx, `
    SELECT i.id, i.dimension_id, i.text, i.weight, i.required, i.display_order, i.applies_to
    FROM dimension_items i
    JOIN dimensions d ON d.id = i.dimension_id
    WHERE d.period_id = $1
    ORDER BY i.display_order, i.id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		it, err := scanItem(itemRows)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[it.DimensionID]; ok {
			dims[pos].Items = append(dims[pos].Items, it)
		}
	}
	return dims, itemRows.Err()
}

func (s *Store) GetDimension(ctx context.Context, id string) (Dimension, error) {
	d, err := scanDimension(s.DB.QueryRow(ctx, "SELECT "+dimensionColumns+" FROM dimensions WHERE id = $1", id))
	if err != nil {
		return Dimension{}, err
	}
	rows, err := s.DB.Query(ctx, "SELECT "+itemColumns+" FROM dimension_items WHERE dimension_id = $1 ORDER BY display_order, id", id)
	if err != nil {
		return Dimension{}, err
	}
	defer rows.Close()
	d.Items = []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return Dimension{}, err
		}
		d.Items = append(d.Items, it)
	}
	return d, rows.Err()
}

func (s *Store) CreateDimension(ctx context.Context, periodID string, input DimensionInput) (Dimension, error) {
	return scanDimension(s.DB.QueryRow(ctx, `
    INSERT INTO dimensions (period_id, code, name, description, axis, weight, display_order, color)
    VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8, ''))
    RETURNING `+dimensionColumns,
		periodID, input.Code, input.Name, input.Description, input.Axis, input.Weight, input.DisplayOrder, input.Color))
}

func (s *Store) UpdateDimension(ctx context.Context, id string, input DimensionInput) (Dimension, error) {
	return scanDimension(s.DB.QueryRow(ctx, `
    UPDATE dimensions
    SET code = $1, name = $2, description = $3, axis = $4, weight = $5, display_order = $6, color = NULLIF($7, '')
    WHERE id = $8
    RETURNING `+dimensionColumns,
		input.Code, input.Name, input.Description, input.Axis, input.Weight, input.DisplayOrder, input.Color, id))
}

func (s *Store) DeleteDimension(ctx context.Context, id string) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		if _, err := q.Exec(ctx, "DELETE FROM dimension_items WHERE dimension_id = $1", id); err != nil {
			return err
		}
		tag, err := q.Exec(ctx, "DELETE FROM dimensions WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) GetItem(ctx context.Context, id string) (Item, error) {
	return scanItem(s.DB.QueryRow(ctx, "SELECT "+itemColumns+" FROM dimension_items WHERE id = $1", id))
}

func (s *Store) CreateItem(ctx context.Context, dimensionID string, input ItemInput) (Item, error) {
	return scanItem(s.DB.QueryRow(ctx, `
    INSERT INTO dimension_items (dimension_id, text, weight, required, display_order, applies_to)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+itemColumns,
		dimensionID, input.Text, input.Weight, input.Required, input.DisplayOrder, input.AppliesTo))
}

func (s *Store) UpdateItem(ctx context.Context, id string, input ItemInput) (Item, error) {
	return scanItem(s.DB.QueryRow(ctx, `
    UPDATE dimension_items
    SET text = $1, weight = $2, required = $3, display_order = $4, applies_to = $5
    WHERE id = $6
    RETURNING `+itemColumns,
		input.Text, input.Weight, input.Required, input.DisplayOrder, input.AppliesTo, id))
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM dimension_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCode
	}
	return err
}
