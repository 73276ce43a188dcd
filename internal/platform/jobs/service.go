package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"perfeval/internal/domain/period"
	"perfeval/internal/domain/results"
	"perfeval/internal/platform/querier"
)

const (
	JobRecomputeUser   = "results_recompute_user"
	JobRecomputePeriod = "results_recompute_period"
	JobPlanGenerate    = "devplan_generate"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const queueSize = 128

type ResultComputer interface {
	ComputeUser(ctx context.Context, periodID, userID string) (results.FinalResult, error)
	ComputePeriod(ctx context.Context, periodID string) (results.ComputeSummary, error)
}

type ActivePeriodReader interface {
	Active(ctx context.Context) (period.Period, error)
}

type Recorder interface {
	RecordJob(jobType, status string)
}

type Service struct {
	// DB receives job_runs bookkeeping; nil skips it.
	DB       querier.Querier
	Results  ResultComputer
	Periods  ActivePeriodReader
	Metrics  Recorder
	Interval time.Duration

	queue   chan job
	mu      sync.Mutex
	pending map[string]bool
}

type job struct {
	Type string
	Key  string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, resultsSvc ResultComputer, periods ActivePeriodReader, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Results:  resultsSvc,
		Periods:  periods,
		Interval: interval,
		queue:    make(chan job, queueSize),
		pending:  map[string]bool{},
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 {
		go s.scheduleRecompute(ctx, s.Interval)
	}
}

// Enqueue queues run unless a job with the same type and key is already
// waiting. It reports whether the job was accepted.
func (s *Service) Enqueue(jobType, key string, run func(context.Context) (any, error)) bool {
	id := jobType + ":" + key
	s.mu.Lock()
	if s.pending[id] {
		s.mu.Unlock()
		return true
	}
	s.pending[id] = true
	s.mu.Unlock()

	select {
	case s.queue <- job{Type: jobType, Key: key, Run: run}:
		return true
	default:
		s.release(jobType, key)
		slog.Warn("job queue full", "jobType", jobType, "key", key)
		return false
	}
}

// EnqueueRecompute schedules a final-result recomputation for one evaluatee.
func (s *Service) EnqueueRecompute(periodID, userID string) {
	s.Enqueue(JobRecomputeUser, periodID+"/"+userID, func(ctx context.Context) (any, error) {
		r, err := s.Results.ComputeUser(ctx, periodID, userID)
		if errors.Is(err, results.ErrLocked) {
			return map[string]any{"periodId": periodID, "userId": userID, "skipped": "locked"}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"periodId": periodID, "userId": userID, "complete": r.Complete, "box": r.Box}, nil
	})
}

func (s *Service) EnqueuePeriod(periodID string) bool {
	return s.Enqueue(JobRecomputePeriod, periodID, func(ctx context.Context) (any, error) {
		return s.Results.ComputePeriod(ctx, periodID)
	})
}

// RunNow runs a job synchronously with the same bookkeeping as queued jobs.
func (s *Service) RunNow(ctx context.Context, jobType, key string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Key: key, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			s.release(j.Type, j.Key)
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "key", j.Key, "err", err)
			}
		}
	}
}

func (s *Service) release(jobType, key string) {
	s.mu.Lock()
	delete(s.pending, jobType+":"+key)
	s.mu.Unlock()
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := s.startRun(ctx, j)

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"key": j.Key, "error": err.Error()}
	}
	if s.Metrics != nil {
		s.Metrics.RecordJob(j.Type, status)
	}
	s.finishRun(ctx, runID, status, details)
	return details, err
}

func (s *Service) startRun(ctx context.Context, j job) string {
	if s.DB == nil {
		return ""
	}
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, StatusRunning).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}
	return runID
}

func (s *Service) finishRun(ctx context.Context, runID, status string, details any) {
	if s.DB == nil || runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		slog.Warn("job run update failed", "err", err)
	}
}

func (s *Service) scheduleRecompute(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.recomputeActive(ctx)
		}
	}
}

func (s *Service) recomputeActive(ctx context.Context) {
	active, err := s.Periods.Active(ctx)
	if errors.Is(err, period.ErrNotFound) {
		return
	}
	if err != nil {
		slog.Warn("recompute scheduler period lookup failed", "err", err)
		return
	}
	s.EnqueuePeriod(active.ID)
}
