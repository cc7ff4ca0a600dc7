package job

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ahmethakanbesel/jobmanager/internal/apperror"
	"github.com/ahmethakanbesel/jobmanager/internal/validation"
)

// Spawner starts background execution of a stored job.
type Spawner interface {
	Spawn(jobID, jobType string) error
	Active(jobID string) bool
}

type Service struct {
	store    Store
	registry *Registry
	spawner  Spawner
	now      func() time.Time
}

func NewService(store Store, registry *Registry, spawner Spawner) *Service {
	return &Service{
		store:    store,
		registry: registry,
		spawner:  spawner,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Types lists the registered job types.
func (s *Service) Types() []string { return s.registry.Types() }

// Create validates input, stores a pending record and hands it to the
// executor. It returns as soon as the record is stored.
func (s *Service) Create(ctx context.Context, req CreateJobRequest) (*CreateJobResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	d, ok := s.registry.Get(req.Type)
	if !ok {
		return nil, apperror.New(apperror.NotFound, "unknown job type")
	}

	input, err := validation.Validate(d.Schema, req.Input)
	if err != nil {
		return nil, apperror.New(apperror.BadRequest, err.Error())
	}

	rec := &Record{
		JobID:     uuid.NewString(),
		RunID:     uuid.NewString(),
		Type:      d.Type,
		Status:    StatusPending,
		InputData: input,
		CreatedAt: s.now(),
	}
	if err := s.store.Store(ctx, rec.JobID, rec); err != nil {
		slog.Error("store job", "job", rec.JobID, "error", err)
		return nil, apperror.Wrap(apperror.Internal, "Failed to create job", err)
	}

	if err := s.spawner.Spawn(rec.JobID, rec.Type); err != nil {
		slog.Error("spawn job", "job", rec.JobID, "error", err)
		// A record nobody will execute would stay pending forever.
		if delErr := s.store.Delete(ctx, rec.JobID); delErr != nil {
			slog.Error("discard unspawned job", "job", rec.JobID, "error", delErr)
		}
		return nil, apperror.Wrap(apperror.Internal, "Failed to create job", err)
	}

	return &CreateJobResponse{
		JobID:     rec.JobID,
		Message:   "Job created successfully",
		InputData: input,
	}, nil
}

// Get returns the job with its runtime. Jobs of another type are reported as
// not found, and so are storage failures.
func (s *Service) Get(ctx context.Context, req GetJobRequest) (*JobView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.lookup(ctx, req.ID, req.Type)
	if err != nil {
		return nil, err
	}
	return &JobView{Record: *rec, Runtime: rec.Runtime(s.now())}, nil
}

// List returns jobs of one type, optionally filtered by status, newest first.
// A storage failure yields an empty list.
func (s *Service) List(ctx context.Context, req ListJobsRequest) ([]Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}

	all, err := s.store.List(ctx)
	if err != nil {
		slog.Error("list jobs", "type", req.Type, "error", err)
		return []Record{}, nil
	}

	jobs := make([]Record, 0, len(all))
	for _, rec := range all {
		if rec.Type != req.Type {
			continue
		}
		if req.Status != "" && string(rec.Status) != req.Status {
			continue
		}
		jobs = append(jobs, rec)
	}

	slices.SortStableFunc(jobs, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Delete removes a job. Jobs whose executor task is still alive cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, req DeleteJobRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.lookup(ctx, req.ID, req.Type); err != nil {
		return err
	}
	if s.spawner.Active(req.ID) {
		return apperror.New(apperror.Conflict, "Job is still being executed")
	}

	if err := s.store.Delete(ctx, req.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.New(apperror.NotFound, "Job not found")
		}
		slog.Error("delete job", "job", req.ID, "error", err)
		return apperror.Wrap(apperror.Internal, "Failed to delete job", err)
	}
	return nil
}

// RecoverInterrupted reconciles records left behind by a previous process:
// running jobs lost their task and are marked failed, pending jobs are
// spawned again.
func (s *Service) RecoverInterrupted(ctx context.Context) error {
	all, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	var failed, respawned int
	for _, rec := range all {
		switch rec.Status {
		case StatusRunning:
			if s.spawner.Active(rec.JobID) {
				continue
			}
			if err := s.store.Update(ctx, rec.JobID, FailPatch("interrupted by restart", s.now())); err != nil {
				slog.Error("fail interrupted job", "job", rec.JobID, "error", err)
				continue
			}
			failed++
		case StatusPending:
			if err := s.spawner.Spawn(rec.JobID, rec.Type); err != nil {
				if !errors.Is(err, ErrAlreadyLeased) {
					slog.Error("respawn pending job", "job", rec.JobID, "error", err)
				}
				continue
			}
			respawned++
		case StatusCompleted, StatusFailed:
		}
	}

	if failed > 0 || respawned > 0 {
		slog.Info("recovered interrupted jobs", "failed", failed, "respawned", respawned)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, id, jobType string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("get job", "job", id, "error", err)
		}
		return nil, apperror.New(apperror.NotFound, "Job not found")
	}
	if rec.Type != jobType {
		return nil, apperror.New(apperror.NotFound, "Job not found")
	}
	return rec, nil
}
