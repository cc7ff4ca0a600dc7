package job

import "github.com/ahmethakanbesel/jobmanager/internal/apperror"

// DefaultListLimit caps List results when the caller gives no limit.
const DefaultListLimit = 50

type CreateJobRequest struct {
	Type  string
	Input map[string]any
}

func (r CreateJobRequest) Validate() *apperror.AppError {
	if r.Input == nil {
		return apperror.New(apperror.BadRequest, "request body must be a JSON object")
	}
	return nil
}

type CreateJobResponse struct {
	JobID     string         `json:"job_id"`
	Message   string         `json:"message"`
	InputData map[string]any `json:"input_data"`
}

type GetJobRequest struct {
	ID   string
	Type string
}

func (r GetJobRequest) Validate() *apperror.AppError {
	if r.ID == "" {
		return apperror.New(apperror.BadRequest, "invalid job id")
	}
	return nil
}

// JobView is a record enriched with derived fields.
type JobView struct {
	Record
	Runtime *float64 `json:"runtime"`
}

type ListJobsRequest struct {
	Type   string
	Status string
	Limit  int
}

func (r ListJobsRequest) Validate() *apperror.AppError {
	if r.Limit < 0 {
		return apperror.New(apperror.BadRequest, "limit must be a positive integer")
	}
	return nil
}

type DeleteJobRequest struct {
	ID   string
	Type string
}

func (r DeleteJobRequest) Validate() *apperror.AppError {
	if r.ID == "" {
		return apperror.New(apperror.BadRequest, "invalid job id")
	}
	return nil
}
