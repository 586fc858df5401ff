package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// JobStateStore keeps one JSON document per job under <prefix>:jobs:<name>.
type JobStateStore struct {
	rdb    *redis.Client
	prefix string
}

var _ ports.JobStateStore = (*JobStateStore)(nil)

// NewJobStateStore builds a store namespaced by prefix.
func NewJobStateStore(rdb *redis.Client, prefix string) *JobStateStore {
	if prefix == "" {
		prefix = "productcurator"
	}
	return &JobStateStore{rdb: rdb, prefix: prefix}
}

func (s *JobStateStore) key(name string) string {
	return s.prefix + ":jobs:" + name
}

// LoadJobState returns the saved state for a job, if any.
func (s *JobStateStore) LoadJobState(ctx context.Context, name string) (domain.JobState, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.JobState{}, false, nil
	}
	if err != nil {
		return domain.JobState{}, false, fmt.Errorf("get job state %s: %w", name, err)
	}

	var st domain.JobState
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.JobState{}, false, fmt.Errorf("decode job state %s: %w", name, err)
	}
	return st, true, nil
}

// SaveJobState overwrites the state for a job.
func (s *JobStateStore) SaveJobState(ctx context.Context, st domain.JobState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode job state %s: %w", st.Name, err)
	}
	if err := s.rdb.Set(ctx, s.key(st.Name), raw, 0).Err(); err != nil {
		return fmt.Errorf("set job state %s: %w", st.Name, err)
	}
	return nil
}
