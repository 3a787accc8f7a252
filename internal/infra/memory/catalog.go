package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"quizzer-session-service/internal/domain"
)

// Loader fetches quiz documents from a backing store (Postgres, a remote
// catalog, a fixture map).
type Loader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.QuizDetail, error)
	LoadSummaries(ctx context.Context) ([]domain.QuizSummary, error)
}

// Catalog caches quiz details and the summary listing with TTL to avoid
// repeated store hits while takers browse and select.
type Catalog struct {
	loader Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	details   map[string]cachedDetail
	summaries cachedSummaries
}

type cachedDetail struct {
	detail    domain.QuizDetail
	expiresAt time.Time
}

type cachedSummaries struct {
	summaries []domain.QuizSummary
	expiresAt time.Time
}

func NewCatalog(loader Loader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		details: make(map[string]cachedDetail),
	}
}

func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.QuizDetail, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.details[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.detail, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("detail:"+quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.details[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.detail, nil
		}
		c.mu.RUnlock()

		detail, err := c.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.QuizDetail{}, err
		}

		c.mu.Lock()
		c.details[quizID] = cachedDetail{
			detail:    detail,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return detail, nil
	})
	if err != nil {
		return domain.QuizDetail{}, err
	}
	return result.(domain.QuizDetail), nil
}

func (c *Catalog) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	now := c.clock()

	c.mu.RLock()
	if c.summaries.summaries != nil && c.summaries.expiresAt.After(now) {
		cached := c.summaries.summaries
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("summaries", func() (interface{}, error) {
		summaries, err := c.loader.LoadSummaries(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.summaries = cachedSummaries{
			summaries: summaries,
			expiresAt: c.clock().Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizSummary), nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticLoader is a loader backed by an in-memory map; it doubles as a
// writable catalog for standalone mode and tests.
type StaticLoader struct {
	mu      sync.RWMutex
	quizzes map[string]domain.QuizDetail
}

func NewStaticLoader(quizzes map[string]domain.QuizDetail) *StaticLoader {
	if quizzes == nil {
		quizzes = make(map[string]domain.QuizDetail)
	}
	return &StaticLoader{quizzes: quizzes}
}

func (l *StaticLoader) LoadQuiz(_ context.Context, quizID string) (domain.QuizDetail, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.QuizDetail{}, domain.ErrQuizNotFound
}

func (l *StaticLoader) LoadSummaries(_ context.Context) ([]domain.QuizSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	summaries := make([]domain.QuizSummary, 0, len(l.quizzes))
	for _, quiz := range l.quizzes {
		summaries = append(summaries, quiz.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Title != summaries[j].Title {
			return summaries[i].Title < summaries[j].Title
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

func (l *StaticLoader) CreateQuiz(_ context.Context, detail domain.QuizDetail) (string, error) {
	if detail.ID == "" {
		detail.ID = uuid.NewString()
	}
	if err := detail.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quizzes[detail.ID] = detail
	return detail.ID, nil
}
