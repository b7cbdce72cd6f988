package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"interview-quiz-service/internal/app"
	"interview-quiz-service/internal/domain"
)

// QuestionCache caches question-bank reads in Redis and falls back to the
// wrapped store on a miss. Entries are JSON blobs:
//
//	SET quiz:questions:{criteriaID}:{setLabel} [...]
type QuestionCache struct {
	app.Store
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, store app.Store, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		Store:  store,
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	// Only whole-set reads are cached; narrower filters go straight through.
	if filter.Section != "" || filter.Subsection != "" {
		return c.Store.Questions(ctx, filter)
	}
	key := c.key(filter)
	if qs, ok := c.lookup(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := c.lookup(ctx, key); ok {
			return qs, nil
		}
		qs, err := c.Store.Questions(ctx, filter)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(qs)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err(); err != nil {
			log.Printf("quiz: cache questions %s: %v", key, err)
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached set. It is the hook for whatever edits the
// question bank: this service only reads questions, so an admin tool that
// changes a criteria's questions calls it to avoid serving them until the TTL
// runs out.
func (c *QuestionCache) Invalidate(ctx context.Context, criteriaID, setLabel string) error {
	return c.client.Del(ctx, c.key(domain.QuestionFilter{CriteriaID: criteriaID, SetLabel: setLabel})).Err()
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("quiz: read cached questions %s: %v", key, err)
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, false
	}
	return qs, true
}

func (c *QuestionCache) key(filter domain.QuestionFilter) string {
	return "quiz:questions:" + filter.CriteriaID + ":" + filter.SetLabel
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
