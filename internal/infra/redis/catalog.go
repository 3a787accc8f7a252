package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizzer-session-service/internal/domain"
	"quizzer-session-service/internal/infra/memory"
)

// Catalog caches quiz documents in Redis and falls back to a loader on
// cache miss. Layout:
//
//	SET quiz:{quizID}:detail  {detail JSON}
//	SET catalog:summaries     {summaries JSON}
type Catalog struct {
	client *redis.Client
	loader memory.Loader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalog(client *redis.Client, loader memory.Loader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.QuizDetail, error) {
	key := c.detailKey(quizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var detail domain.QuizDetail
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail, nil
		}
		// Corrupt entry: fall through and reload.
	}

	result, err, _ := c.sf.Do("detail:"+quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var detail domain.QuizDetail
			if err := json.Unmarshal(raw, &detail); err == nil {
				return detail, nil
			}
		}

		detail, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDetail{}, err
		}

		if raw, err := json.Marshal(detail); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return detail, nil
	})
	if err != nil {
		return domain.QuizDetail{}, err
	}
	return result.(domain.QuizDetail), nil
}

func (c *Catalog) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	if raw, err := c.client.Get(ctx, summariesKey).Bytes(); err == nil {
		var summaries []domain.QuizSummary
		if err := json.Unmarshal(raw, &summaries); err == nil {
			return summaries, nil
		}
	}

	result, err, _ := c.sf.Do("summaries", func() (interface{}, error) {
		summaries, err := c.loader.LoadSummaries(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(summaries); err == nil {
			_ = c.client.Set(ctx, summariesKey, raw, c.ttlWithJitter()).Err()
		}
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizSummary), nil
}

const summariesKey = "catalog:summaries"

func (c *Catalog) detailKey(quizID string) string {
	return "quiz:" + quizID + ":detail"
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
