package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Runoi/itemstore/internal/model"
)

// Redis key layout. Each item is stored as JSON under itemKeyPrefix+ID;
// the set at itemIndexKey tracks all known IDs because Redis has no
// native way to list every item of one type. The index is written in
// the same MULTI/EXEC pipeline as the value so the two can never
// diverge on create or delete.
const (
	itemKeyPrefix = "item:"
	itemCounter   = "item:next_id"
	itemIndexKey  = "item:ids"
)

// Client timeouts. A hung Redis surfaces as ErrUnavailable instead of
// blocking the request indefinitely.
const (
	redisDialTimeout  = 5 * time.Second
	redisReadTimeout  = 3 * time.Second
	redisWriteTimeout = 3 * time.Second
)

// updateScript replaces an item value only if the key already exists,
// so an update miss can never create an item.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("SET", KEYS[1], ARGV[1])
	return 1
end
return 0
`)

// RedisStore implements Store on a remote Redis server. Data persists
// for as long as the server retains it.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at the given URL
// (redis://host:port/db) and verifies the connection. The client
// retries transient failures once before reporting ErrUnavailable.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	opts.MaxRetries = 1
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisReadTimeout
	opts.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w: %w", ErrUnavailable, err)
	}

	return &RedisStore{client: client}, nil
}

// List returns all items from the store, ordered by ascending ID. The
// index set is unordered, so results are sorted after retrieval. An
// index member with no corresponding value is treated as absent.
func (s *RedisStore) List(ctx context.Context) ([]model.Item, error) {
	ids, err := s.client.SMembers(ctx, itemIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w: %w", ErrUnavailable, err)
	}

	items := make([]model.Item, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKeyPrefix + id
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w: %w", ErrUnavailable, err)
	}

	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}

		var item model.Item
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, fmt.Errorf("list items: decoding value: %w", err)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	return items, nil
}

// Get retrieves an item by its ID.
func (s *RedisStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	data, err := s.client.Get(ctx, itemKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w: %w", ErrUnavailable, err)
	}

	var item model.Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, fmt.Errorf("get item: decoding value: %w", err)
	}

	return &item, nil
}

// Create adds a new item. The ID comes from an atomic INCR on the
// counter key; value and index member are written in one pipeline.
func (s *RedisStore) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	id, err := s.client.Incr(ctx, itemCounter).Result()
	if err != nil {
		return nil, fmt.Errorf("create item: %w: %w", ErrUnavailable, err)
	}

	now := time.Now().UTC()
	newItem := model.Item{
		ID:          id,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	data, err := json.Marshal(newItem)
	if err != nil {
		return nil, fmt.Errorf("create item: encoding value: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, itemKey(id), data, 0)
	pipe.SAdd(ctx, itemIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("create item: %w: %w", ErrUnavailable, err)
	}

	return &newItem, nil
}

// Update fully replaces an existing item via a server-side script, so
// the existence check and the write are a single atomic step.
func (s *RedisStore) Update(ctx context.Context, id int64, item *model.Item) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	if item == nil {
		return nil, fmt.Errorf("update item: %w", ErrNilItem)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updatedItem := model.Item{
		ID:          id,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(updatedItem)
	if err != nil {
		return nil, fmt.Errorf("update item: encoding value: %w", err)
	}

	replaced, err := updateScript.Run(ctx, s.client, []string{itemKey(id)}, data).Int()
	if err != nil {
		return nil, fmt.Errorf("update item: %w: %w", ErrUnavailable, err)
	}
	if replaced == 0 {
		return nil, ErrNotFound
	}

	return &updatedItem, nil
}

// Delete removes an item and its index member in one pipeline.
func (s *RedisStore) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	pipe := s.client.TxPipeline()
	delCmd := pipe.Del(ctx, itemKey(id))
	pipe.SRem(ctx, itemIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete item: %w: %w", ErrUnavailable, err)
	}

	if delCmd.Val() == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping verifies the Redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func itemKey(id int64) string {
	return fmt.Sprintf("%s%d", itemKeyPrefix, id)
}
