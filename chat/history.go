// Package chat holds the conversational state manager and the chat
// orchestrator. Per-user state lives behind HistoryStore so deployments
// can keep it in process memory or in Redis.
package chat

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/divin3circle/hashrexa/domain"
)

const (
	// historyCap bounds per-user history; oldest entries are trimmed first.
	historyCap = 20
	// promptWindow is how many recent turns are rendered into the prompt.
	promptWindow = 5
)

// HistoryStore is the per-user conversational state contract. Append
// must be atomic per user: concurrent appends for the same user may
// interleave but must never lose messages or leave the history above
// the cap.
type HistoryStore interface {
	Append(userID string, msgs ...domain.ChatMessage)
	Recent(userID string, n int) []domain.ChatMessage
	LoanData(userID string) (domain.UserLoanData, bool)
	PutLoanData(userID string, data domain.UserLoanData)
}

// userState is one user's history and loan snapshot, guarded by its own
// mutex so users never contend with each other.
type userState struct {
	mu      sync.Mutex
	history []domain.ChatMessage
	loan    *domain.UserLoanData
}

// MemoryStore keeps conversational state in process memory for the
// lifetime of the server.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userState)}
}

func (s *MemoryStore) user(userID string) *userState {
	s.mu.RLock()
	u, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return u
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok = s.users[userID]; !ok {
		u = &userState{}
		s.users[userID] = u
	}
	return u
}

// Append adds messages to the user's history and trims to the cap,
// oldest first.
func (s *MemoryStore) Append(userID string, msgs ...domain.ChatMessage) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.history = append(u.history, msgs...)
	if len(u.history) > historyCap {
		u.history = append([]domain.ChatMessage(nil), u.history[len(u.history)-historyCap:]...)
	}
}

// Recent returns up to the last n messages in original order.
func (s *MemoryStore) Recent(userID string, n int) []domain.ChatMessage {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	start := len(u.history) - n
	if start < 0 {
		start = 0
	}
	return append([]domain.ChatMessage(nil), u.history[start:]...)
}

// LoanData returns the user's loan snapshot, if any.
func (s *MemoryStore) LoanData(userID string) (domain.UserLoanData, bool) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.loan == nil {
		return domain.UserLoanData{}, false
	}
	return *u.loan, true
}

// PutLoanData replaces the user's loan snapshot wholesale.
func (s *MemoryStore) PutLoanData(userID string, data domain.UserLoanData) {
	u := s.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.loan = &data
}

// RedisStore keeps conversational state in Redis so it survives
// restarts and is shared across replicas. Appends use RPUSH+LTRIM, so
// the cap holds under concurrent writers.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(addr string, logger *zap.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb, logger: logger}
}

func historyKey(userID string) string { return "chat:history:" + userID }
func loanKey(userID string) string    { return "chat:loans:" + userID }

// Append pushes messages and trims the list to the cap.
func (s *RedisStore) Append(userID string, msgs ...domain.ChatMessage) {
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	for _, msg := range msgs {
		payload, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, historyKey(userID), payload)
	}
	pipe.LTrim(ctx, historyKey(userID), -historyCap, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("failed to append history", zap.String("user_id", userID), zap.Error(err))
	}
}

// Recent returns up to the last n messages in original order. Redis
// failures degrade to an empty slice.
func (s *RedisStore) Recent(userID string, n int) []domain.ChatMessage {
	ctx := context.Background()
	raw, err := s.client.LRange(ctx, historyKey(userID), int64(-n), -1).Result()
	if err != nil {
		s.logger.Warn("failed to read history", zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	out := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// LoanData returns the user's loan snapshot, if any.
func (s *RedisStore) LoanData(userID string) (domain.UserLoanData, bool) {
	ctx := context.Background()
	raw, err := s.client.Get(ctx, loanKey(userID)).Result()
	if err != nil {
		return domain.UserLoanData{}, false
	}
	var data domain.UserLoanData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return domain.UserLoanData{}, false
	}
	return data, true
}

// PutLoanData replaces the user's loan snapshot wholesale.
func (s *RedisStore) PutLoanData(userID string, data domain.UserLoanData) {
	ctx := context.Background()
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, loanKey(userID), payload, 0).Err(); err != nil {
		s.logger.Warn("failed to store loan data", zap.String("user_id", userID), zap.Error(err))
	}
}
