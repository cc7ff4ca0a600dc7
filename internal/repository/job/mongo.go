package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	domain "github.com/ahmethakanbesel/jobmanager/internal/job"
)

var _ domain.Store = (*MongoStore)(nil)

// MongoStore keeps one document per job. Partial updates are a single
// UpdateOne with $set, which MongoDB applies atomically per document.
type MongoStore struct {
	col *mongod.Collection
}

func NewMongoStore(col *mongod.Collection) *MongoStore {
	return &MongoStore{col: col}
}

type jobModel struct {
	ID          string     `bson:"_id"`
	RunID       string     `bson:"run_id"`
	Type        string     `bson:"type"`
	Status      string     `bson:"status"`
	InputData   bson.M     `bson:"input_data"`
	CreatedAt   time.Time  `bson:"created_at"`
	StartedAt   *time.Time `bson:"started_at"`
	CompletedAt *time.Time `bson:"completed_at"`
	Result      bson.M     `bson:"result"`
	Error       *string    `bson:"error"`
}

func toJobModel(id string, rec *domain.Record) *jobModel {
	return &jobModel{
		ID:          id,
		RunID:       rec.RunID,
		Type:        rec.Type,
		Status:      string(rec.Status),
		InputData:   bson.M(rec.InputData),
		CreatedAt:   rec.CreatedAt,
		StartedAt:   rec.StartedAt,
		CompletedAt: rec.CompletedAt,
		Result:      bson.M(rec.Result),
		Error:       rec.Error,
	}
}

func fromJobModel(m *jobModel) *domain.Record {
	rec := &domain.Record{
		JobID:     m.ID,
		RunID:     m.RunID,
		Type:      m.Type,
		Status:    domain.Status(m.Status),
		InputData: plainMap(m.InputData),
		CreatedAt: m.CreatedAt.UTC(),
		Result:    plainMap(m.Result),
		Error:     m.Error,
	}
	if m.StartedAt != nil {
		t := m.StartedAt.UTC()
		rec.StartedAt = &t
	}
	if m.CompletedAt != nil {
		t := m.CompletedAt.UTC()
		rec.CompletedAt = &t
	}
	return rec
}

func (s *MongoStore) Store(ctx context.Context, id string, rec *domain.Record) error {
	if _, err := s.col.InsertOne(ctx, toJobModel(id, rec)); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*domain.Record, error) {
	var m jobModel
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return fromJobModel(&m), nil
}

func (s *MongoStore) Update(ctx context.Context, id string, p domain.Patch) error {
	set := bson.M{}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}
	if p.StartedAt != nil {
		set["started_at"] = *p.StartedAt
	}
	if p.CompletedAt != nil {
		set["completed_at"] = *p.CompletedAt
	}
	if p.Result != nil {
		set["result"] = bson.M(p.Result)
	}
	if p.Error != nil {
		set["error"] = *p.Error
	}
	if len(set) == 0 {
		_, err := s.Get(ctx, id)
		return err
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]domain.Record, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var models []jobModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("list jobs decode: %w", err)
	}

	jobs := make([]domain.Record, 0, len(models))
	for i := range models {
		jobs = append(jobs, *fromJobModel(&models[i]))
	}
	return jobs, nil
}

// plainMap converts decoded bson.M/bson.A values back into map[string]any and
// []any so records look the same regardless of backend.
func plainMap(m bson.M) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case int32:
		return int64(t)
	default:
		return v
	}
}
