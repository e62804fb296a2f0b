package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/classroom-service/internal/domain"
)

const (
	deadlinesKey = "exam:deadlines"
	// sessions outlive their deadline so late reads still see the result
	sessionRetention = time.Hour
)

// ExamSessionStore keeps in-progress exam attempts and their deadlines.
type ExamSessionStore struct {
	client *redis.Client
}

// NewExamSessionStore builds the store.
func NewExamSessionStore(client *redis.Client) *ExamSessionStore {
	return &ExamSessionStore{client: client}
}

func sessionKey(id string) string {
	return "exam:session:" + id
}

func activeKey(studentID, examID string) string {
	return fmt.Sprintf("exam:active:%s:%s", studentID, examID)
}

// Create stores a new session and schedules its deadline.
func (s *ExamSessionStore) Create(ctx context.Context, session *domain.ExamSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := time.Until(session.Deadline) + sessionRetention

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), data, ttl)
		pipe.Set(ctx, activeKey(session.StudentID, session.ExamID), session.ID, time.Until(session.Deadline))
		pipe.ZAdd(ctx, deadlinesKey, redis.Z{Score: float64(session.Deadline.Unix()), Member: session.ID})
		return nil
	})
	return err
}

// Save overwrites the stored session keeping its remaining lifetime.
func (s *ExamSessionStore) Save(ctx context.Context, session *domain.ExamSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.ID), data, redis.KeepTTL).Err()
}

// Get loads a session. Missing sessions return ErrCacheNotFound.
func (s *ExamSessionStore) Get(ctx context.Context, id string) (*domain.ExamSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheNotFound
	}
	if err != nil {
		return nil, err
	}
	var session domain.ExamSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Active returns the running session id of studentID for examID, if any.
func (s *ExamSessionStore) Active(ctx context.Context, studentID, examID string) (string, error) {
	id, err := s.client.Get(ctx, activeKey(studentID, examID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheNotFound
	}
	return id, err
}

// Claim takes the session off the deadline schedule. Only one caller wins,
// which makes it the submission lock shared by students and the expiry worker.
func (s *ExamSessionStore) Claim(ctx context.Context, session *domain.ExamSession) (bool, error) {
	removed, err := s.client.ZRem(ctx, deadlinesKey, session.ID).Result()
	if err != nil {
		return false, err
	}
	if removed == 0 {
		return false, nil
	}
	if err := s.client.Del(ctx, activeKey(session.StudentID, session.ExamID)).Err(); err != nil {
		return true, err
	}
	return true, nil
}

// Release undoes a Claim whose submission failed: the session goes back on
// the deadline schedule and, while time remains, becomes resumable again.
func (s *ExamSessionStore) Release(ctx context.Context, session *domain.ExamSession) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, deadlinesKey, redis.Z{Score: float64(session.Deadline.Unix()), Member: session.ID})
		if remaining := time.Until(session.Deadline); remaining > 0 {
			pipe.Set(ctx, activeKey(session.StudentID, session.ExamID), session.ID, remaining)
		}
		return nil
	})
	return err
}

// Due lists up to limit session ids whose deadline is at or before now.
func (s *ExamSessionStore) Due(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	return s.client.ZRangeByScore(ctx, deadlinesKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: limit,
	}).Result()
}

// Forget drops a scheduled id whose session data is gone.
func (s *ExamSessionStore) Forget(ctx context.Context, id string) error {
	return s.client.ZRem(ctx, deadlinesKey, id).Err()
}
