package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizzer-session-service/internal/app"
	"quizzer-session-service/internal/domain"
)

type fakeCatalog struct {
	quizzes map[string]domain.QuizDetail
	gates   map[string]chan struct{}
	entered chan string
}

func (f *fakeCatalog) ListQuizzes(context.Context) ([]domain.QuizSummary, error) {
	summaries := make([]domain.QuizSummary, 0, len(f.quizzes))
	for _, quiz := range f.quizzes {
		summaries = append(summaries, quiz.Summary())
	}
	return summaries, nil
}

func (f *fakeCatalog) GetQuiz(_ context.Context, quizID string) (domain.QuizDetail, error) {
	if gate, ok := f.gates[quizID]; ok {
		if f.entered != nil {
			f.entered <- quizID
		}
		<-gate
	}
	if quiz, ok := f.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.QuizDetail{}, domain.ErrQuizNotFound
}

func serviceQuiz(id string, questions int) domain.QuizDetail {
	qs := make([]domain.Question, questions)
	for i := range qs {
		qs[i] = domain.Question{
			Text:          "What is 2 + 2?",
			Choices:       []string{"3", "4"},
			CorrectAnswer: "4",
		}
	}
	return domain.QuizDetail{ID: id, Title: id, TimeLimitMinutes: 1, Questions: qs}
}

func newTestService(catalog app.Catalog) *app.SessionService {
	return app.NewSessionServiceWithInterval(catalog, nil, time.Hour)
}

func TestSelectStartsAttempt(t *testing.T) {
	svc := newTestService(&fakeCatalog{quizzes: map[string]domain.QuizDetail{
		"quiz-a": serviceQuiz("quiz-a", 2),
	}})
	session := svc.NewSession()
	defer session.Close()

	if err := svc.Select(context.Background(), session, "quiz-a"); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap := session.Snapshot()
	if snap.Phase != domain.PhaseInProgress || snap.Quiz == nil || snap.Quiz.ID != "quiz-a" {
		t.Fatalf("expected quiz-a in progress, got %+v", snap)
	}
}

func TestSelectFailureLeavesSessionIdle(t *testing.T) {
	svc := newTestService(&fakeCatalog{quizzes: map[string]domain.QuizDetail{}})
	session := svc.NewSession()
	defer session.Close()

	err := svc.Select(context.Background(), session, "missing")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if snap := session.Snapshot(); snap.Phase != domain.PhaseIdle || snap.Quiz != nil {
		t.Fatalf("failed fetch must not create partial state, got %+v", snap)
	}
}

func TestSelectRejectsMalformedQuiz(t *testing.T) {
	broken := serviceQuiz("quiz-broken", 1)
	broken.Questions[0].CorrectAnswer = "not a choice"
	svc := newTestService(&fakeCatalog{quizzes: map[string]domain.QuizDetail{
		"quiz-broken": broken,
	}})
	session := svc.NewSession()
	defer session.Close()

	err := svc.Select(context.Background(), session, "quiz-broken")
	if !errors.Is(err, domain.ErrMalformedQuiz) {
		t.Fatalf("expected malformed quiz, got %v", err)
	}
	if snap := session.Snapshot(); snap.Phase != domain.PhaseIdle {
		t.Fatalf("malformed quiz must not start a session, got %+v", snap)
	}
}

func TestStaleFetchDoesNotOverwriteNewerSelection(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan string, 1)
	svc := newTestService(&fakeCatalog{
		quizzes: map[string]domain.QuizDetail{
			"quiz-a": serviceQuiz("quiz-a", 1),
			"quiz-b": serviceQuiz("quiz-b", 2),
		},
		gates:   map[string]chan struct{}{"quiz-a": gate},
		entered: entered,
	})
	session := svc.NewSession()
	defer session.Close()

	// Selection of quiz A parks inside the catalog fetch.
	errA := make(chan error, 1)
	go func() {
		errA <- svc.Select(context.Background(), session, "quiz-a")
	}()

	// The taker gives up and restarts, then picks quiz B, which resolves first.
	<-entered
	if err := session.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := svc.Select(context.Background(), session, "quiz-b"); err != nil {
		t.Fatalf("select quiz-b: %v", err)
	}

	// Quiz A's fetch finally resolves and must be discarded.
	close(gate)
	if err := <-errA; !errors.Is(err, domain.ErrStaleFetch) {
		t.Fatalf("expected stale fetch, got %v", err)
	}
	snap := session.Snapshot()
	if snap.Quiz == nil || snap.Quiz.ID != "quiz-b" {
		t.Fatalf("stale fetch overwrote the active session: %+v", snap)
	}
	if len(snap.Answers) != 2 {
		t.Fatalf("expected quiz-b answer slots, got %d", len(snap.Answers))
	}
}
