// Package redis stores agent state in Redis.
//
// Persisted keys live in a single hash and the outcome history in a capped
// list of JSON documents, newest at the head.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
)

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces the keys. Defaults to "sessync".
	Prefix string
}

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout bounds the initial ping.
const connectionTimeout = 5 * time.Second

// Store provides the KV and history ports on top of a Redis client.
type Store struct {
	client     *redis.Client
	stateKey   string
	historyKey string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newStore(client, cfg.Prefix), nil
}

func newStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "sessync"
	}
	return &Store{
		client:     client,
		stateKey:   prefix + ":state",
		historyKey: prefix + ":history",
	}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// KVStore returns the hash-backed key/value store.
func (s *Store) KVStore() driven.KVStore {
	return &kvStore{store: s}
}

// HistoryStore returns the list-backed history store.
func (s *Store) HistoryStore() driven.HistoryStore {
	return &historyStore{store: s}
}

type kvStore struct {
	store *Store
}

var _ driven.KVStore = (*kvStore)(nil)

func (s *kvStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		values, err := s.store.client.HGetAll(ctx, s.store.stateKey).Result()
		if err != nil {
			return nil, fmt.Errorf("reading state: %w", err)
		}
		return values, nil
	}

	raw, err := s.store.client.HMGet(ctx, s.store.stateKey, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	values := make(map[string]string, len(keys))
	for i, v := range raw {
		if str, ok := v.(string); ok {
			values[keys[i]] = str
		}
	}
	return values, nil
}

func (s *kvStore) Set(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.store.client.HSet(ctx, s.store.stateKey, entries).Err(); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

func (s *kvStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.store.client.HDel(ctx, s.store.stateKey, keys...).Err(); err != nil {
		return fmt.Errorf("removing state: %w", err)
	}
	return nil
}

func (s *kvStore) Clear(ctx context.Context) error {
	if err := s.store.client.Del(ctx, s.store.stateKey).Err(); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	return nil
}

type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

func (s *historyStore) RecordOutcome(ctx context.Context, o *domain.OutcomeRecord) error {
	if o == nil {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}
	if err := s.store.client.LPush(ctx, s.store.historyKey, data).Err(); err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	return nil
}

func (s *historyStore) ListOutcomes(ctx context.Context, limit int) ([]domain.OutcomeRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := s.store.client.LRange(ctx, s.store.historyKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}

	outcomes := make([]domain.OutcomeRecord, 0, len(raw))
	for _, item := range raw {
		var o domain.OutcomeRecord
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			return nil, fmt.Errorf("decoding outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (s *historyStore) PruneHistory(ctx context.Context, keep int) error {
	if keep <= 0 {
		return s.ClearHistory(ctx)
	}
	if err := s.store.client.LTrim(ctx, s.store.historyKey, 0, int64(keep)-1).Err(); err != nil {
		return fmt.Errorf("pruning outcomes: %w", err)
	}
	return nil
}

func (s *historyStore) ClearHistory(ctx context.Context) error {
	if err := s.store.client.Del(ctx, s.store.historyKey).Err(); err != nil {
		return fmt.Errorf("clearing outcomes: %w", err)
	}
	return nil
}
