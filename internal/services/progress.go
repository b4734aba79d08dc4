package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/utils"
)

// Pipeline step markers, in execution order. The pipeline is not atomic;
// recording which step a run reached makes an aborted run observable and lets
// a retry see what the previous attempt already did.
const (
	StepCreated         = "created"
	StepRecordingStored = "recording_stored"
	StepTranscribed     = "transcribed"
	StepExtracted       = "extracted"
	StepTopicsApplied   = "topics_applied"
	StepCompleted       = "completed"
)

type ProgressStore interface {
	MarkStep(ctx context.Context, sessionID uuid.UUID, step string) error
	Steps(ctx context.Context, sessionID uuid.UUID) ([]string, error)
	Clear(ctx context.Context, sessionID uuid.UUID) error
}

type redisProgressStore struct {
	log    *logger.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProgressStore(log *logger.Logger) (ProgressStore, error) {
	slog := log.With("service", "RedisProgressStore")
	addr := utils.GetEnv("REDIS_ADDR", "", nil)
	if addr == "" {
		return nil, fmt.Errorf("missing env var REDIS_ADDR")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", nil),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, nil),
	})
	ttlHours := utils.GetEnvAsInt("ANALYSIS_PROGRESS_TTL_HOURS", 24, nil)
	return &redisProgressStore{
		log:    slog,
		client: client,
		ttl:    time.Duration(ttlHours) * time.Hour,
	}, nil
}

func progressKey(sessionID uuid.UUID) string {
	return "chalk:analysis:" + sessionID.String()
}

func (s *redisProgressStore) MarkStep(ctx context.Context, sessionID uuid.UUID, step string) error {
	key := progressKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, step)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark step %s: %w", step, err)
	}
	return nil
}

func (s *redisProgressStore) Steps(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	return s.client.LRange(ctx, progressKey(sessionID), 0, -1).Result()
}

func (s *redisProgressStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return s.client.Del(ctx, progressKey(sessionID)).Err()
}

// memoryProgressStore backs single-process deployments and tests.
type memoryProgressStore struct {
	mu    sync.Mutex
	steps map[uuid.UUID][]string
}

func NewMemoryProgressStore() ProgressStore {
	return &memoryProgressStore{steps: make(map[uuid.UUID][]string)}
}

func (s *memoryProgressStore) MarkStep(ctx context.Context, sessionID uuid.UUID, step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[sessionID] = append(s.steps[sessionID], step)
	return nil
}

func (s *memoryProgressStore) Steps(ctx context.Context, sessionID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.steps[sessionID]))
	copy(out, s.steps[sessionID])
	return out, nil
}

func (s *memoryProgressStore) Clear(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.steps, sessionID)
	return nil
}
