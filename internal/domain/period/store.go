package period

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

const periodColumns = `id, name, start_date, end_date, status, scale_min, scale_max,
  self_weight, supervisor_weight, peer_weight, low_threshold, high_threshold,
  activated_at, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.ScaleMin, &p.ScaleMax,
		&p.SelfWeight, &p.SupervisorWeight, &p.PeerWeight, &p.LowThreshold, &p.HighThreshold,
		&p.ActivatedAt, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrNotFound
	}
	return p, err
}

func (s *Store) List(ctx context.Context, status string) ([]Period, error) {
	query := "SELECT " + periodColumns + " FROM evaluation_periods"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY start_date DESC, created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	periods := []Period{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM evaluation_periods WHERE id = $1", id))
}

func (s *Store) Active(ctx context.Context) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM evaluation_periods WHERE status = 'active' LIMIT 1"))
}

func (s *Store) Create(ctx context.Context, p Period) (Period, error) {
	return scanPeriod(s.DB.QueryRow(ctx, `
    INSERT INTO evaluation_periods (name, start_date, end_date, status, scale_min, scale_max,
      self_weight, supervisor_weight, peer_weight, low_threshold, high_threshold)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING `+periodColumns,
		p.Name, p.StartDate, p.EndDate, StatusDraft, p.ScaleMin, p.ScaleMax,
		p.SelfWeight, p.SupervisorWeight, p.PeerWeight, p.LowThreshold, p.HighThreshold))
}

func (s *Store) Update(ctx context.Context, p Period) (Period, error) {
	updated, err := scanPeriod(s.DB.QueryRow(ctx, `
    UPDATE evaluation_periods
    SET name = $1, start_date = $2, end_date = $3, scale_min = $4, scale_max = $5,
        self_weight = $6, supervisor_weight = $7, peer_weight = $8,
        low_threshold = $9, high_threshold = $10, updated_at = now()
    WHERE id = $11 AND status = 'draft'
    RETURNING `+periodColumns,
		p.Name, p.StartDate, p.EndDate, p.ScaleMin, p.ScaleMax,
		p.SelfWeight, p.SupervisorWeight, p.PeerWeight, p.LowThreshold, p.HighThreshold, p.ID))
	if errors.Is(err, ErrNotFound) {
		return Period{}, ErrNotEditable
	}
	return updated, err
}

func (s *Store) Transition(ctx context.Context, id, from, to string) (Period, error) {
	p, err := scanPeriod(s.DB.QueryRow(ctx, `
    UPDATE evaluation_periods
    SET status = $3,
        activated_at = CASE WHEN $3 = 'active' THEN now() ELSE activated_at END,
        closed_at = CASE WHEN $3 = 'closed' THEN now() WHEN $3 = 'active' THEN NULL ELSE closed_at END,
        updated_at = now()
    WHERE id = $1 AND status = $2
    RETURNING `+periodColumns, id, from, to))
	if errors.Is(err, ErrNotFound) {
		return Period{}, ErrInvalidState
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Period{}, ErrActiveExists
	}
	return p, err
}
