package question

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

const (
	defaultCacheTTL     = 5 * time.Minute
	cacheKeyPrefix      = "question:"
	generationKeyPrefix = "question-generation:"
	cacheEpochKey       = generationKeyPrefix + "epoch"
	baseLocaleField     = "_"
)

var errStaleGeneration = errors.New("question changed since it was loaded")

// AggregateCache holds owner views of questions, per locale.
//
// Readers take the Generation of a question before loading it from the store
// and hand it back to Set. Invalidate and Flush move the generation forward,
// so a Set carrying a generation taken before a committed write is dropped.
type AggregateCache interface {
	Get(ctx context.Context, id uuid.UUID, locale localize.Locale) (*Question, error)
	Generation(ctx context.Context, id uuid.UUID) (string, error)
	Set(ctx context.Context, q Question, locale localize.Locale, generation string) error
	Invalidate(ctx context.Context, id uuid.UUID) error
	Flush(ctx context.Context) error
}

// Cache stores one Redis hash per question with a field per locale, so a
// write drops every locale of the question at once. A counter per question
// and a global epoch make up the generation.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ AggregateCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(id uuid.UUID) string {
	return cacheKeyPrefix + id.String()
}

func generationKey(id uuid.UUID) string {
	return generationKeyPrefix + id.String()
}

func localeField(locale localize.Locale) string {
	if !locale.IsSet() {
		return baseLocaleField
	}
	return locale.String()
}

func (c *Cache) Get(ctx context.Context, id uuid.UUID, locale localize.Locale) (*Question, error) {
	data, err := c.client.HGet(ctx, cacheKey(id), localeField(locale)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (c *Cache) Generation(ctx context.Context, id uuid.UUID) (string, error) {
	return readGeneration(ctx, c.client, id)
}

type multiGetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func readGeneration(ctx context.Context, client multiGetter, id uuid.UUID) (string, error) {
	vals, err := client.MGet(ctx, cacheEpochKey, generationKey(id)).Result()
	if err != nil {
		return "", err
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "0"
		if s, ok := v.(string); ok {
			parts[i] = s
		}
	}
	return strings.Join(parts, ":"), nil
}

// Set stores q unless its generation moved past generation. A dropped write
// is not an error.
func (c *Cache) Set(ctx context.Context, q Question, locale localize.Locale, generation string) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	key := cacheKey(q.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, q.ID)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, localeField(locale), data)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, cacheEpochKey, generationKey(q.ID))
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops every locale of the question and moves its generation on.
// The counter outlives cached entries so an in-flight reader always sees it.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	gen := generationKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, 2*c.ttl)
		pipe.Del(ctx, cacheKey(id))
		return nil
	})
	return err
}

// Flush drops every cached question and moves the epoch on.
func (c *Cache) Flush(ctx context.Context) error {
	if err := c.client.Incr(ctx, cacheEpochKey).Err(); err != nil {
		return err
	}
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID, localize.Locale) (*Question, error) { return nil, nil }
func (noCache) Generation(context.Context, uuid.UUID) (string, error)              { return "", nil }
func (noCache) Set(context.Context, Question, localize.Locale, string) error       { return nil }
func (noCache) Invalidate(context.Context, uuid.UUID) error                        { return nil }
func (noCache) Flush(context.Context) error                                        { return nil }
