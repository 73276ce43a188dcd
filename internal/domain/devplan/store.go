package devplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"perfeval/internal/platform/crypto"
	"perfeval/internal/platform/db"
	"perfeval/internal/platform/querier"
)

type Store struct {
	DB     querier.Querier
	Crypto *crypto.Service
}

func NewStore(db querier.Querier, cryptoSvc *crypto.Service) *Store {
	return &Store{DB: db, Crypto: cryptoSvc}
}

const planSelect = `
    SELECT d.id, d.period_id, d.user_id, COALESCE(p.full_name, ''), d.status, d.source, d.content,
           d.created_by, d.approved_by, d.approved_at, d.created_at, d.updated_at
    FROM development_plans d
    LEFT JOIN profiles p ON p.id = d.user_id`

func (s *Store) scan(row pgx.Row) (Plan, error) {
	var p Plan
	var content []byte
	err := row.Scan(&p.ID, &p.PeriodID, &p.UserID, &p.UserName, &p.Status, &p.Source, &content,
		&p.CreatedBy, &p.ApprovedBy, &p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	if len(content) > 0 {
		if err := s.Crypto.OpenJSON(content, &p.Content); err != nil {
			return Plan{}, fmt.Errorf("open plan %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (Plan, error) {
	return s.scan(s.DB.QueryRow(ctx, planSelect+" WHERE d.id = $1", id))
}

func (s *Store) GetFor(ctx context.Context, periodID, userID string) (Plan, error) {
	return s.scan(s.DB.QueryRow(ctx, planSelect+" WHERE d.period_id = $1 AND d.user_id = $2", periodID, userID))
}

func (s *Store) List(ctx context.Context, periodID string, userIDs []string) ([]Plan, error) {
	var args db.Args
	query := planSelect + " WHERE d.period_id = " + args.Add(periodID)
	if userIDs != nil {
		query += " AND d.user_id = ANY(" + args.Add(userIDs) + ")"
	}
	query += " ORDER BY p.full_name, d.user_id"

	rows, err := s.DB.Query(ctx, query, args.Values()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Plan{}
	for rows.Next() {
		p, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Save(ctx context.Context, p Plan) (Plan, error) {
	sealed, err := s.Crypto.SealJSON(p.Content)
	if err != nil {
		return Plan{}, fmt.Errorf("seal plan: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO development_plans (id, period_id, user_id, status, source, content, created_by, created_at, updated_at)
    VALUES ($1,$2,$3,'draft',$4,$5,$6,$7,$7)
    ON CONFLICT (period_id, user_id) DO UPDATE
      SET source = EXCLUDED.source, content = EXCLUDED.content,
          created_by = EXCLUDED.created_by, updated_at = EXCLUDED.updated_at
      WHERE development_plans.status = 'draft'
    RETURNING id
  `, p.ID, p.PeriodID, p.UserID, p.Source, sealed, p.CreatedBy, p.UpdatedAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrApproved
	}
	if err != nil {
		return Plan{}, err
	}
	return s.Get(ctx, id)
}

func (s *Store) UpdateContent(ctx context.Context, id string, content Content, source string, now time.Time) error {
	sealed, err := s.Crypto.SealJSON(content)
	if err != nil {
		return fmt.Errorf("seal plan: %w", err)
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE development_plans SET content = $2, source = $3, updated_at = $4
    WHERE id = $1 AND status = 'draft'
  `, id, sealed, source, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrApproved
	}
	return nil
}

func (s *Store) Approve(ctx context.Context, id, approverID string, now time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE development_plans SET status = 'approved', approved_by = $2, approved_at = $3, updated_at = $3
    WHERE id = $1 AND status = 'draft'
  `, id, approverID, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrApproved
	}
	return nil
}
