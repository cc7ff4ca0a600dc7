package job

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	domain "github.com/ahmethakanbesel/jobmanager/internal/job"
)

var _ domain.Store = (*RedisStore)(nil)

// updateScript merges fields into an existing hash. Running it server-side
// makes the existence check and the write a single atomic step.
var updateScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// RedisStore keeps each job in a hash at <prefix>job:<id> and tracks ids in
// the set <prefix>jobs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(id string) string { return r.prefix + "job:" + id }
func (r *RedisStore) indexKey() string     { return r.prefix + "jobs" }

func (r *RedisStore) Store(ctx context.Context, id string, rec *domain.Record) error {
	fields, err := toHash(rec)
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}

	key := r.key(id)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		pipe.SAdd(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Record, error) {
	h, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(h) == 0 {
		return nil, domain.ErrNotFound
	}
	rec, err := fromHash(h)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return rec, nil
}

func (r *RedisStore) Update(ctx context.Context, id string, p domain.Patch) error {
	args, err := patchArgs(p)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if len(args) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}

	n, err := updateScript.Run(ctx, r.client, []string{r.key(id)}, args...).Int()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(id))
		pipe.SRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context) ([]domain.Record, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Record{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.key(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]domain.Record, 0, len(ids))
	for _, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			// Deleted between SMEMBERS and HGETALL.
			continue
		}
		rec, err := fromHash(h)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, *rec)
	}
	return jobs, nil
}

func toHash(rec *domain.Record) (map[string]any, error) {
	input, err := encodeMap(rec.InputData)
	if err != nil {
		return nil, err
	}
	h := map[string]any{
		"job_id":     rec.JobID,
		"run_id":     rec.RunID,
		"type":       rec.Type,
		"status":     string(rec.Status),
		"input_data": input,
		"created_at": formatTime(rec.CreatedAt),
	}
	args, err := patchArgs(domain.Patch{
		StartedAt:   rec.StartedAt,
		CompletedAt: rec.CompletedAt,
		Result:      rec.Result,
		Error:       rec.Error,
	})
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(args); i += 2 {
		h[args[i].(string)] = args[i+1]
	}
	return h, nil
}

// patchArgs flattens the non-nil patch fields into HSET field/value pairs.
func patchArgs(p domain.Patch) ([]any, error) {
	var args []any
	if p.Status != nil {
		args = append(args, "status", string(*p.Status))
	}
	if p.StartedAt != nil {
		args = append(args, "started_at", formatTime(*p.StartedAt))
	}
	if p.CompletedAt != nil {
		args = append(args, "completed_at", formatTime(*p.CompletedAt))
	}
	if p.Result != nil {
		result, err := encodeMap(p.Result)
		if err != nil {
			return nil, err
		}
		args = append(args, "result", result)
	}
	if p.Error != nil {
		args = append(args, "error", *p.Error)
	}
	return args, nil
}

func fromHash(h map[string]string) (*domain.Record, error) {
	rec := &domain.Record{
		JobID:  h["job_id"],
		RunID:  h["run_id"],
		Type:   h["type"],
		Status: domain.Status(h["status"]),
	}

	var err error
	if rec.InputData, err = decodeMap(h["input_data"]); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(h["created_at"]); err != nil {
		return nil, err
	}
	if rec.StartedAt, err = parseTimePtr(h["started_at"]); err != nil {
		return nil, err
	}
	if rec.CompletedAt, err = parseTimePtr(h["completed_at"]); err != nil {
		return nil, err
	}
	if rec.Result, err = decodeMap(h["result"]); err != nil {
		return nil, err
	}
	if msg, ok := h["error"]; ok {
		rec.Error = &msg
	}
	return rec, nil
}
