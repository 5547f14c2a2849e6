package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
)

// CatalogLoader fetches questionnaire content from a backing store.
type CatalogLoader interface {
	LoadQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error)
}

// Catalog caches whole questionnaires as JSON in Redis and falls back to a
// loader on cache miss. Question views need full option texts and order,
// so the entire catalog entry is cached rather than just the correct
// answers: SET catalog:questionnaire:{id} {json} EX ttl.
type Catalog struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewCatalog(client *redis.Client, loader CatalogLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (c *Catalog) GetQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error) {
	key := c.key(id)

	if q, ok := c.fromCache(ctx, key); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if q, ok := c.fromCache(ctx, key); ok {
			return q, nil
		}

		q, err := c.loader.LoadQuestionnaire(ctx, id)
		if err != nil {
			return domain.Questionnaire{}, err
		}

		if data, err := json.Marshal(q); err == nil {
			// best-effort cache fill
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return q, nil
	})
	if err != nil {
		return domain.Questionnaire{}, err
	}
	return result.(domain.Questionnaire), nil
}

func (c *Catalog) fromCache(ctx context.Context, key string) (domain.Questionnaire, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil || len(data) == 0 {
		return domain.Questionnaire{}, false
	}
	var q domain.Questionnaire
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Questionnaire{}, false
	}
	return q, true
}

func (c *Catalog) key(id string) string {
	return "catalog:questionnaire:" + id
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// fills for different ids can run concurrently, so use the global source
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
