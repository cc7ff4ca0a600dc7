package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/ahmethakanbesel/jobmanager/internal/job"
)

var _ domain.Store = (*Repository)(nil)

const selectColumns = `SELECT job_id, run_id, type, status, input_data,
		created_at, started_at, completed_at, result, error
		FROM jobs`

// Repository stores jobs in the sqlite jobs table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Store(ctx context.Context, id string, j *domain.Record) error {
	const query = `INSERT INTO jobs (job_id, run_id, type, status, input_data,
		created_at, started_at, completed_at, result, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	input, err := encodeMap(j.InputData)
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	result, err := encodeMap(j.Result)
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		id, j.RunID, j.Type, string(j.Status), input,
		formatTime(j.CreatedAt),
		nullTime(j.StartedAt), nullTime(j.CompletedAt),
		nullString(result), nullStringPtr(j.Error),
	)
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Record, error) {
	j, err := scanRecord(r.db.QueryRowContext(ctx, selectColumns+" WHERE job_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// Update writes only the patched columns in a single statement.
func (r *Repository) Update(ctx context.Context, id string, p domain.Patch) error {
	var sets []string
	var args []any

	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*p.Status))
	}
	if p.StartedAt != nil {
		sets = append(sets, "started_at = ?")
		args = append(args, formatTime(*p.StartedAt))
	}
	if p.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, formatTime(*p.CompletedAt))
	}
	if p.Result != nil {
		result, err := encodeMap(p.Result)
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		sets = append(sets, "result = ?")
		args = append(args, result)
	}
	if p.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *p.Error)
	}

	if len(sets) == 0 {
		// Nothing to write, but the id must still exist.
		_, err := r.Get(ctx, id)
		return err
	}

	query := "UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE job_id = ?"
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []domain.Record
	for rows.Next() {
		j, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	j := &domain.Record{}
	var status, input, created string
	var started, completed, result, dbErr sql.NullString

	if err := s.Scan(
		&j.JobID, &j.RunID, &j.Type, &status, &input,
		&created, &started, &completed, &result, &dbErr,
	); err != nil {
		return nil, err
	}

	var err error
	j.Status = domain.Status(status)
	if j.InputData, err = decodeMap(input); err != nil {
		return nil, err
	}
	if j.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if j.StartedAt, err = parseTimePtr(started.String); err != nil {
		return nil, err
	}
	if j.CompletedAt, err = parseTimePtr(completed.String); err != nil {
		return nil, err
	}
	if j.Result, err = decodeMap(result.String); err != nil {
		return nil, err
	}
	if dbErr.Valid {
		msg := dbErr.String
		j.Error = &msg
	}
	return j, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
