package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"interview-quiz-service/internal/app"
	"interview-quiz-service/internal/domain"
)

// QuestionCache caches question-bank reads with TTL to avoid repeated DB hits.
// Everything else passes through to the wrapped store.
type QuestionCache struct {
	app.Store
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[domain.QuestionFilter]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(store app.Store, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		Store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[domain.QuestionFilter]cachedQuestions),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	if qs, ok := c.lookup(filter); ok {
		return qs, nil
	}

	key := filter.CriteriaID + "|" + filter.SetLabel + "|" + string(filter.Section) + "|" + filter.Subsection
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if qs, ok := c.lookup(filter); ok {
			return qs, nil
		}
		qs, err := c.Store.Questions(ctx, filter)
		if err != nil {
			return nil, err
		}
		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[filter] = cachedQuestions{questions: qs, expiresAt: expiresAt}
		c.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneQuestions(result.([]domain.Question)), nil
}

// Invalidate drops cached reads for a criteria. This service never edits
// questions; the call is for an admin tool sharing the process.
func (c *QuestionCache) Invalidate(criteriaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for f := range c.cache {
		if f.CriteriaID == criteriaID {
			delete(c.cache, f)
		}
	}
}

func (c *QuestionCache) lookup(filter domain.QuestionFilter) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[filter]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return cloneQuestions(entry.questions), true
}

func cloneQuestions(qs []domain.Question) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
