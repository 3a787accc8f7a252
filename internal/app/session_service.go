package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quizzer-session-service/internal/domain"
)

// Catalog exposes the read operations the session engine consumes.
type Catalog interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDetail, error)
}

// CatalogWriter is the authoring-side write operation. The session engine
// never calls it; only the REST surface does.
type CatalogWriter interface {
	CreateQuiz(ctx context.Context, detail domain.QuizDetail) (string, error)
}

// SessionService owns session construction and the fetch-then-install
// selection flow against the catalog.
type SessionService struct {
	catalog  Catalog
	logger   *zap.Logger
	interval time.Duration
}

func NewSessionService(catalog Catalog, logger *zap.Logger) *SessionService {
	return NewSessionServiceWithInterval(catalog, logger, time.Second)
}

// NewSessionServiceWithInterval allows tests to shrink the countdown tick.
func NewSessionServiceWithInterval(catalog Catalog, logger *zap.Logger, interval time.Duration) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{catalog: catalog, logger: logger, interval: interval}
}

// NewSession creates an empty session for one taker.
func (svc *SessionService) NewSession() *Session {
	return NewSessionWithInterval(svc.logger, svc.interval)
}

// ListQuizzes returns the catalog listing for the selection screen.
func (svc *SessionService) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return svc.catalog.ListQuizzes(ctx)
}

// Select fetches the quiz and starts an attempt on the session. A fetch
// failure or malformed quiz leaves the session untouched, and a fetch that
// resolves after the session moved on (restart or a competing selection)
// is discarded with ErrStaleFetch.
func (svc *SessionService) Select(ctx context.Context, session *Session, quizID string) error {
	gen, err := session.beginSelect()
	if err != nil {
		return err
	}

	detail, err := svc.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		svc.logger.Warn("quiz fetch failed", zap.String("quizId", quizID), zap.Error(err))
		return err
	}
	if err := detail.Validate(); err != nil {
		svc.logger.Warn("rejecting malformed quiz", zap.String("quizId", quizID), zap.Error(err))
		return err
	}

	return session.install(gen, detail)
}
