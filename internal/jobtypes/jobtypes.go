// Package jobtypes defines the built-in job types. Their work functions are
// placeholders that simulate latency and echo their inputs.
package jobtypes

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/jobmanager/internal/job"
	"github.com/ahmethakanbesel/jobmanager/internal/validation"
)

const (
	Job1 = "job1"
	Job2 = "job2"
)

// Delays sets the simulated work latency per job type.
type Delays struct {
	Job1 time.Duration
	Job2 time.Duration
}

// Register adds every built-in job type to r.
func Register(r *job.Registry, delays Delays) {
	r.Register(job.Descriptor{
		Type: Job1,
		Schema: validation.Schema{
			validation.String("input1", validation.NonEmpty("input1")),
			validation.Any("input2"),
		},
		Work: Echo(delays.Job1),
	})
	r.Register(job.Descriptor{
		Type: Job2,
		Schema: validation.Schema{
			validation.URL("url", "url must be a valid URL"),
			validation.Integer("max_retries", validation.Between(0, 5, "max_retries must be between 0 and 5")),
			validation.Integer("timeout", validation.Between(1, 300, "timeout must be between 1 and 300 seconds")),
		},
		Work: ProcessURL(delays.Job2),
	})
}

// Echo returns the job1 work function: (input1, input2).
func Echo(delay time.Duration) job.WorkFunc {
	return func(ctx context.Context, args ...any) (map[string]any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("job1: expected 2 arguments, got %d", len(args))
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		input1, input2 := args[0], args[1]
		return map[string]any{
			"result":           "Job completed successfully",
			"processed_input1": input1,
			"processed_input2": input2,
			"combined_result":  fmt.Sprintf("%v + %v", input1, input2),
		}, nil
	}
}

// ProcessURL returns the job2 work function: (url, max_retries, timeout).
// max_retries and timeout are echoed only; no retry or timeout policy exists.
func ProcessURL(delay time.Duration) job.WorkFunc {
	return func(ctx context.Context, args ...any) (map[string]any, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("job2: expected 3 arguments, got %d", len(args))
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		return map[string]any{
			"result":         "URL processing completed successfully",
			"processed_url":  args[0],
			"attempts":       args[1],
			"actual_timeout": args[2],
			"status_code":    200,
		}, nil
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
