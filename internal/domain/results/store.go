package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"perfeval/internal/platform/db"
	"perfeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const resultSelect = `
    SELECT r.period_id, r.user_id, COALESCE(p.full_name, ''), p.group_id, r.dimensions,
           r.total_score, r.total_pct, r.performance_pct, r.potential_pct,
           r.box, COALESCE(r.box_label, ''), r.evaluation_count, r.complete, r.locked, r.computed_at
    FROM final_results r
    LEFT JOIN profiles p ON p.id = r.user_id`

func scanResult(row pgx.Row) (FinalResult, error) {
	var r FinalResult
	var dims []byte
	err := row.Scan(&r.PeriodID, &r.UserID, &r.UserName, &r.GroupID, &dims,
		&r.TotalScore, &r.TotalPercentage, &r.PerformancePercentage, &r.PotentialPercentage,
		&r.Box, &r.BoxLabel, &r.EvaluationCount, &r.Complete, &r.Locked, &r.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FinalResult{}, ErrNotFound
	}
	if err != nil {
		return FinalResult{}, err
	}
	r.Dimensions = []DimensionResult{}
	if len(dims) > 0 {
		if err := json.Unmarshal(dims, &r.Dimensions); err != nil {
			return FinalResult{}, fmt.Errorf("decode dimensions of result %s/%s: %w", r.PeriodID, r.UserID, err)
		}
	}
	return r, nil
}

func (s *Store) Upsert(ctx context.Context, r FinalResult) error {
	dims, err := json.Marshal(r.Dimensions)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO final_results (period_id, user_id, dimensions, total_score, total_pct, performance_pct,
      potential_pct, box, box_label, evaluation_count, complete, locked, computed_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false,$12)
    ON CONFLICT (period_id, user_id) DO UPDATE
      SET dimensions = EXCLUDED.dimensions,
          total_score = EXCLUDED.total_score,
          total_pct = EXCLUDED.total_pct,
          performance_pct = EXCLUDED.performance_pct,
          potential_pct = EXCLUDED.potential_pct,
          box = EXCLUDED.box,
          box_label = EXCLUDED.box_label,
          evaluation_count = EXCLUDED.evaluation_count,
          complete = EXCLUDED.complete,
          computed_at = EXCLUDED.computed_at
      WHERE final_results.locked = false
  `, r.PeriodID, r.UserID, dims, r.TotalScore, r.TotalPercentage, r.PerformancePercentage,
		r.PotentialPercentage, r.Box, db.NullIfEmpty(r.BoxLabel), r.EvaluationCount, r.Complete, r.ComputedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLocked
	}
	return nil
}

func (s *Store) Get(ctx context.Context, periodID, userID string) (FinalResult, error) {
	return scanResult(s.DB.QueryRow(ctx, resultSelect+" WHERE r.period_id = $1 AND r.user_id = $2", periodID, userID))
}

func (s *Store) List(ctx context.Context, filter Filter) ([]FinalResult, error) {
	var args db.Args
	query := resultSelect + " WHERE r.period_id = " + args.Add(filter.PeriodID)
	if filter.GroupID != "" {
		query += " AND p.group_id = " + args.Add(filter.GroupID)
	}
	if filter.Box > 0 {
		query += " AND r.box = " + args.Add(filter.Box)
	}
	if filter.UserIDs != nil {
		query += " AND r.user_id = ANY(" + args.Add(filter.UserIDs) + ")"
	}
	query += " ORDER BY r.total_pct DESC NULLS LAST, p.full_name"

	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []FinalResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SetLocked(ctx context.Context, periodID string, locked bool) (int64, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE final_results SET locked = $2 WHERE period_id = $1", periodID, locked)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Evaluatees(ctx context.Context, periodID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT DISTINCT evaluatee_id FROM assignments WHERE period_id = $1 ORDER BY evaluatee_id", periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
