package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quizhive/quizhive/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyResultSnapshot = "result:%s:%s:%s"

	snapshotTTL = 48 * time.Hour
)

// AttemptSnapshot is the cached view of a user's latest attempt at a quiz.
type AttemptSnapshot struct {
	UserID      string         `json:"user_id"`
	CompanyID   string         `json:"company_id"`
	QuizID      string         `json:"quiz_id"`
	QuizTitle   string         `json:"quiz_title"`
	RightCount  int            `json:"right_count"`
	TotalCount  int            `json:"total_count"`
	Score       float64        `json:"score"`
	Items       []SnapshotItem `json:"items"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// SnapshotItem records the outcome of a single question.
type SnapshotItem struct {
	QuestionID string `json:"question_id"`
	Prompt     string `json:"prompt"`
	GivenIndex int    `json:"given_index"`
	Right      bool   `json:"right"`
}

// SnapshotStore keeps recent attempt results in redis. A nil store is a
// valid disabled store; every method degrades to a no-op or a miss.
type SnapshotStore struct {
	client *redis.Client
}

func NewSnapshotStore(cfg config.Config) *SnapshotStore {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *SnapshotStore) Put(ctx context.Context, snap AttemptSnapshot) error {
	if !s.Enabled() {
		return nil
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(keyResultSnapshot, snap.UserID, snap.CompanyID, snap.QuizID)
	return s.client.Set(ctx, key, raw, snapshotTTL).Err()
}

func (s *SnapshotStore) Get(ctx context.Context, userID, companyID, quizID string) (*AttemptSnapshot, error) {
	if !s.Enabled() {
		return nil, nil
	}

	key := fmt.Sprintf(keyResultSnapshot, userID, companyID, quizID)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap AttemptSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SnapshotStore) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
