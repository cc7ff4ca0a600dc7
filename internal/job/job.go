package job

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	case StatusPending, StatusRunning:
		return false
	default:
		return false
	}
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// The only edges are pending->running, running->completed and running->failed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted, StatusFailed:
		return false
	default:
		return false
	}
}

// Record is the persisted state of one job.
type Record struct {
	JobID       string         `json:"job_id"`
	RunID       string         `json:"run_id"`
	Type        string         `json:"type"`
	Status      Status         `json:"status"`
	InputData   map[string]any `json:"input_data"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	Result      map[string]any `json:"result"`
	Error       *string        `json:"error"`
}

// Clone returns a copy that shares no pointers with r. Nested values inside
// InputData and Result are treated as immutable and are not deep-copied.
func (r *Record) Clone() *Record {
	cp := *r
	cp.InputData = cloneMap(r.InputData)
	cp.Result = cloneMap(r.Result)
	if r.StartedAt != nil {
		t := *r.StartedAt
		cp.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	if r.Error != nil {
		e := *r.Error
		cp.Error = &e
	}
	return &cp
}

// Patch is a partial update of a record's lifecycle fields. Nil fields are
// left untouched by Store.Update.
type Patch struct {
	Status      *Status
	StartedAt   *time.Time
	CompletedAt *time.Time
	Result      map[string]any
	Error       *string
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && p.StartedAt == nil && p.CompletedAt == nil &&
		p.Result == nil && p.Error == nil
}

// Apply merges p into r in place.
func (p Patch) Apply(r *Record) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		r.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		r.CompletedAt = &t
	}
	if p.Result != nil {
		r.Result = cloneMap(p.Result)
	}
	if p.Error != nil {
		e := *p.Error
		r.Error = &e
	}
}

// StartPatch moves a job to running.
func StartPatch(now time.Time) Patch {
	s := StatusRunning
	return Patch{Status: &s, StartedAt: &now}
}

// CompletePatch moves a job to completed with its result.
func CompletePatch(result map[string]any, now time.Time) Patch {
	s := StatusCompleted
	if result == nil {
		result = map[string]any{}
	}
	return Patch{Status: &s, Result: result, CompletedAt: &now}
}

// FailPatch moves a job to failed with an error message.
func FailPatch(msg string, now time.Time) Patch {
	s := StatusFailed
	return Patch{Status: &s, Error: &msg, CompletedAt: &now}
}

// Runtime returns the elapsed execution time in seconds, or nil when the job
// has not started. Running jobs are measured against now.
func (r *Record) Runtime(now time.Time) *float64 {
	if r.StartedAt == nil {
		return nil
	}
	end := now
	if r.CompletedAt != nil {
		end = *r.CompletedAt
	}
	secs := end.Sub(*r.StartedAt).Seconds()
	return &secs
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
