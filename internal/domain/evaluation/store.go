package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

const assignmentSelect = `
    SELECT a.id, a.period_id, a.evaluator_id, a.evaluatee_id, a.type,
           COALESCE(ev.full_name, ''), COALESCE(ee.full_name, ''),
           COALESCE(e.status, 'pending'), a.created_at
    FROM assignments a
    LEFT JOIN profiles ev ON ev.id = a.evaluator_id
    LEFT JOIN profiles ee ON ee.id = a.evaluatee_id
    LEFT JOIN evaluations e ON e.assignment_id = a.id`

const evaluationColumns = `id, assignment_id, period_id, evaluator_id, evaluatee_id, type, status,
  responses, COALESCE(general_comment, ''), version, updated_at, submitted_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.PeriodID, &a.EvaluatorID, &a.EvaluateeID, &a.Type, &a.EvaluatorName, &a.EvaluateeName, &a.EvaluationStatus, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	return a, err
}

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var e Evaluation
	var responses []byte
	err := row.Scan(&e.ID, &e.AssignmentID, &e.PeriodID, &e.EvaluatorID, &e.EvaluateeID, &e.Type, &e.Status,
		&responses, &e.GeneralComment, &e.Version, &e.UpdatedAt, &e.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrNotFound
	}
	if err != nil {
		return Evaluation{}, err
	}
	e.Responses = map[string]Response{}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &e.Responses); err != nil {
			return Evaluation{}, fmt.Errorf("decode responses of evaluation %s: %w", e.ID, err)
		}
	}
	return e, nil
}

func (s *Store) InsertAssignments(ctx context.Context, assignments []Assignment) ([]Assignment, error) {
	created := []Assignment{}
	err := querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		for _, a := range assignments {
			var out Assignment
			err := q.QueryRow(ctx, `
        INSERT INTO assignments (period_id, evaluator_id, evaluatee_id, type)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (period_id, evaluator_id, evaluatee_id, type) DO NOTHING
        RETURNING id, period_id, evaluator_id, evaluatee_id, type, created_at
      `, a.PeriodID, a.EvaluatorID, a.EvaluateeID, a.Type).Scan(&out.ID, &out.PeriodID, &out.EvaluatorID, &out.EvaluateeID, &out.Type, &out.CreatedAt)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return err
			}
			out.EvaluationStatus = StatusPending
			created = append(created, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	var args db.Args
	query := assignmentSelect + " WHERE a.period_id = " + args.Add(filter.PeriodID)
	if filter.EvaluatorID != "" {
		query += " AND a.evaluator_id = " + args.Add(filter.EvaluatorID)
	}
	if filter.EvaluateeID != "" {
		query += " AND a.evaluatee_id = " + args.Add(filter.EvaluateeID)
	}
	if filter.Type != "" {
		query += " AND a.type = " + args.Add(filter.Type)
	}
	query += " ORDER BY ee.full_name, a.type, a.id"

	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return scanAssignment(s.DB.QueryRow(ctx, assignmentSelect+" WHERE a.id = $1", id))
}

func (s *Store) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO assignments (period_id, evaluator_id, evaluatee_id, type)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, a.PeriodID, a.EvaluatorID, a.EvaluateeID, a.Type).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Assignment{}, ErrDuplicate
	}
	if err != nil {
		return Assignment{}, err
	}
	return s.GetAssignment(ctx, id)
}

func (s *Store) DeleteAssignment(ctx context.Context, id string) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		var submitted int
		if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM evaluations WHERE assignment_id = $1 AND status = 'submitted'", id).Scan(&submitted); err != nil {
			return err
		}
		if submitted > 0 {
			return ErrHasSubmission
		}
		if _, err := q.Exec(ctx, "DELETE FROM evaluations WHERE assignment_id = $1", id); err != nil {
			return err
		}
		tag, err := q.Exec(ctx, "DELETE FROM assignments WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) GetByAssignment(ctx context.Context, assignmentID string) (Evaluation, error) {
	return scanEvaluation(s.DB.QueryRow(ctx, "SELECT "+evaluationColumns+" FROM evaluations WHERE assignment_id = $1", assignmentID))
}

func (s *Store) SaveDraft(ctx context.Context, e Evaluation) (Evaluation, error) {
	responses, err := json.Marshal(e.Responses)
	if err != nil {
		return Evaluation{}, err
	}
	if e.ID == "" {
		saved, err := scanEvaluation(s.DB.QueryRow(ctx, `
      INSERT INTO evaluations (assignment_id, period_id, evaluator_id, evaluatee_id, type, status, responses, general_comment, version)
      VALUES ($1,$2,$3,$4,$5,'draft',$6,$7,1)
      ON CONFLICT (assignment_id) DO NOTHING
      RETURNING `+evaluationColumns,
			e.AssignmentID, e.PeriodID, e.EvaluatorID, e.EvaluateeID, e.Type, responses, e.GeneralComment))
		if errors.Is(err, ErrNotFound) {
			return Evaluation{}, ErrConflict
		}
		return saved, err
	}
	saved, err := scanEvaluation(s.DB.QueryRow(ctx, `
    UPDATE evaluations
    SET responses = $1, general_comment = $2, version = version + 1, updated_at = now()
    WHERE id = $3 AND version = $4 AND status = 'draft'
    RETURNING `+evaluationColumns, responses, e.GeneralComment, e.ID, e.Version))
	if errors.Is(err, ErrNotFound) {
		return Evaluation{}, ErrConflict
	}
	return saved, err
}

func (s *Store) MarkSubmitted(ctx context.Context, id string, version int) (Evaluation, error) {
	saved, err := scanEvaluation(s.DB.QueryRow(ctx, `
    UPDATE evaluations
    SET status = 'submitted', submitted_at = now(), version = version + 1, updated_at = now()
    WHERE id = $1 AND version = $2 AND status = 'draft'
    RETURNING `+evaluationColumns, id, version))
	if errors.Is(err, ErrNotFound) {
		return Evaluation{}, ErrConflict
	}
	return saved, err
}

func (s *Store) MarkDraft(ctx context.Context, id string) (Evaluation, error) {
	saved, err := scanEvaluation(s.DB.QueryRow(ctx, `
    UPDATE evaluations
    SET status = 'draft', submitted_at = NULL, version = version + 1, updated_at = now()
    WHERE id = $1 AND status = 'submitted'
    RETURNING `+evaluationColumns, id))
	if errors.Is(err, ErrNotFound) {
		return Evaluation{}, ErrNotSubmitted
	}
	return saved, err
}

func (s *Store) ListSubmitted(ctx context.Context, periodID, evaluateeID string) ([]Evaluation, error) {
	var args db.Args
	query := "SELECT " + evaluationColumns + " FROM evaluations WHERE status = 'submitted' AND period_id = " + args.Add(periodID)
	if evaluateeID != "" {
		query += " AND evaluatee_id = " + args.Add(evaluateeID)
	}
	query += " ORDER BY evaluatee_id, type, submitted_at"

	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Completion counts assignments per type and how many have a submitted
// evaluation. A nil evaluateeIDs covers the whole period.
func (s *Store) Completion(ctx context.Context, periodID string, evaluateeIDs []string) ([]Completion, error) {
	var args db.Args
	query := `
    SELECT a.type, COUNT(1), COUNT(1) FILTER (WHERE e.status = 'submitted')
    FROM assignments a
    LEFT JOIN evaluations e ON e.assignment_id = a.id
    WHERE a.period_id = ` + args.Add(periodID)
	if evaluateeIDs != nil {
		query += " AND a.evaluatee_id = ANY(" + args.Add(evaluateeIDs) + ")"
	}
	query += " GROUP BY a.type ORDER BY a.type"

	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Completion{}
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.Type, &c.Total, &c.Submitted); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
