package app

import (
	"testing"
	"time"

	"quizzer-session-service/internal/domain"
)

func testQuiz(questions int) domain.QuizDetail {
	qs := make([]domain.Question, questions)
	for i := range qs {
		qs[i] = domain.Question{
			Text:          "What is 2 + 2?",
			Choices:       []string{"3", "4", "5", "22"},
			CorrectAnswer: "4",
		}
	}
	return domain.QuizDetail{
		ID:               "quiz-1",
		Title:            "Quick Arithmetic",
		TimeLimitMinutes: 1,
		Questions:        qs,
	}
}

// newStartedSession installs a quiz with a countdown interval long enough
// that the real timer never fires during the test; ticks are driven by hand.
func newStartedSession(t *testing.T, detail domain.QuizDetail) *Session {
	t.Helper()
	s := NewSessionWithInterval(nil, time.Hour)
	gen, err := s.beginSelect()
	if err != nil {
		t.Fatalf("begin select: %v", err)
	}
	if err := s.install(gen, detail); err != nil {
		t.Fatalf("install: %v", err)
	}
	return s
}

func episodeGen(s *Session) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func TestSelectInitializesState(t *testing.T) {
	s := newStartedSession(t, testQuiz(3))
	defer s.Close()

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseInProgress {
		t.Fatalf("expected inProgress, got %s", snap.Phase)
	}
	if len(snap.Answers) != 3 {
		t.Fatalf("expected 3 answer slots, got %d", len(snap.Answers))
	}
	for i, a := range snap.Answers {
		if a != nil {
			t.Fatalf("expected answer %d to start empty, got %q", i, *a)
		}
	}
	if snap.CurrentIndex != 0 {
		t.Fatalf("expected index 0, got %d", snap.CurrentIndex)
	}
	if snap.RemainingSeconds != 60 {
		t.Fatalf("expected 60 remaining seconds, got %d", snap.RemainingSeconds)
	}
	if snap.Results != nil {
		t.Fatalf("expected no results before submit")
	}
}

func TestSelectRejectsMalformedQuiz(t *testing.T) {
	empty := domain.QuizDetail{ID: "quiz-empty", TimeLimitMinutes: 1}
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected empty quiz to be rejected")
	}
	noTime := testQuiz(1)
	noTime.TimeLimitMinutes = 0
	if err := noTime.Validate(); err == nil {
		t.Fatalf("expected zero time limit to be rejected")
	}
}

func TestAdvanceDrivesToScored(t *testing.T) {
	const n = 4
	s := newStartedSession(t, testQuiz(n))
	defer s.Close()

	for i := 0; i < n; i++ {
		if err := s.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseScored {
		t.Fatalf("expected scored after %d advances, got %s", n, snap.Phase)
	}
	if len(snap.Results) != n {
		t.Fatalf("expected %d results, got %d", n, len(snap.Results))
	}
}

func TestRecordAnswerScoring(t *testing.T) {
	s := newStartedSession(t, testQuiz(2))
	defer s.Close()

	if err := s.RecordAnswer("4"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	// Second question left unanswered.
	if err := s.Advance(); err != nil {
		t.Fatalf("submit via advance: %v", err)
	}

	snap := s.Snapshot()
	if snap.Correct != 1 || snap.Total != 2 {
		t.Fatalf("expected score 1/2, got %d/%d", snap.Correct, snap.Total)
	}
	if !snap.Results[0].IsCorrect || snap.Results[0].UserAnswer == nil {
		t.Fatalf("expected first answer correct, got %+v", snap.Results[0])
	}
	if snap.Results[1].IsCorrect || snap.Results[1].UserAnswer != nil {
		t.Fatalf("expected unanswered question scored incorrect with nil answer, got %+v", snap.Results[1])
	}
}

func TestRecordAnswerIdempotent(t *testing.T) {
	s := newStartedSession(t, testQuiz(1))
	defer s.Close()

	updates, cancel := s.Subscribe()
	defer cancel()
	<-updates // initial snapshot

	if err := s.RecordAnswer("4"); err != nil {
		t.Fatalf("record: %v", err)
	}
	<-updates // answer broadcast

	if err := s.RecordAnswer("4"); err != nil {
		t.Fatalf("re-record same choice: %v", err)
	}
	select {
	case snap := <-updates:
		t.Fatalf("expected no broadcast for re-selecting the same choice, got %+v", snap)
	default:
	}
}

func TestSubmitIdempotent(t *testing.T) {
	s := newStartedSession(t, testQuiz(2))
	defer s.Close()

	_ = s.RecordAnswer("4")
	if err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	first := s.Snapshot().Results

	if err := s.Submit(); err != nil {
		t.Fatalf("second submit should be a no-op, got %v", err)
	}
	second := s.Snapshot().Results
	if len(first) != len(second) {
		t.Fatalf("results changed across submits: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("result %d changed across submits", i)
		}
	}
}

func TestTimerExpirySubmitsOnce(t *testing.T) {
	s := newStartedSession(t, testQuiz(2))
	defer s.Close()
	gen := episodeGen(s)

	for i := 0; i < 59; i++ {
		if !s.tick(gen) {
			t.Fatalf("tick %d ended the episode early", i)
		}
	}
	if snap := s.Snapshot(); snap.RemainingSeconds != 1 || snap.Phase != domain.PhaseInProgress {
		t.Fatalf("expected 1 second left, got %+v", snap)
	}

	if s.tick(gen) {
		t.Fatalf("expected final tick to end the episode")
	}
	snap := s.Snapshot()
	if snap.Phase != domain.PhaseScored {
		t.Fatalf("expected scored at zero, got %s", snap.Phase)
	}
	if snap.RemainingSeconds != 0 {
		t.Fatalf("expected clamp at 0, got %d", snap.RemainingSeconds)
	}
	for i, result := range snap.Results {
		if result.IsCorrect {
			t.Fatalf("expected question %d scored incorrect with no answers recorded", i)
		}
	}

	// A late tick from a stale timer must not mutate the scored session.
	if s.tick(gen) {
		t.Fatalf("expected stale tick to be rejected")
	}
	if after := s.Snapshot(); after.RemainingSeconds != 0 || after.Phase != domain.PhaseScored {
		t.Fatalf("stale tick mutated session: %+v", after)
	}
}

func TestStaleTimerAfterRestartCannotTouchNewAttempt(t *testing.T) {
	s := newStartedSession(t, testQuiz(1))
	defer s.Close()
	staleGen := episodeGen(s)

	if err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	gen, err := s.beginSelect()
	if err != nil {
		t.Fatalf("begin select: %v", err)
	}
	if err := s.install(gen, testQuiz(1)); err != nil {
		t.Fatalf("install: %v", err)
	}

	before := s.Snapshot().RemainingSeconds
	if s.tick(staleGen) {
		t.Fatalf("expected tick from the previous episode to be rejected")
	}
	if after := s.Snapshot().RemainingSeconds; after != before {
		t.Fatalf("stale tick decremented the new attempt: %d -> %d", before, after)
	}
}

func TestCountdownGoroutineScoresAttempt(t *testing.T) {
	s := NewSessionWithInterval(nil, 2*time.Millisecond)
	defer s.Close()

	gen, err := s.beginSelect()
	if err != nil {
		t.Fatalf("begin select: %v", err)
	}
	if err := s.install(gen, testQuiz(1)); err != nil {
		t.Fatalf("install: %v", err)
	}

	updates, cancel := s.Subscribe()
	defer cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.Phase == domain.PhaseScored {
				if snap.RemainingSeconds != 0 {
					t.Fatalf("expected expiry at 0, got %d", snap.RemainingSeconds)
				}
				return
			}
		case <-deadline:
			t.Fatalf("countdown never scored the attempt")
		}
	}
}

func TestRestartClearsSession(t *testing.T) {
	s := newStartedSession(t, testQuiz(2))
	defer s.Close()

	_ = s.RecordAnswer("4")
	if err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseIdle || snap.Quiz != nil || snap.Answers != nil || snap.Results != nil {
		t.Fatalf("expected clean idle session, got %+v", snap)
	}
	if snap.RemainingSeconds != 0 || snap.CurrentIndex != 0 {
		t.Fatalf("expected zeroed counters, got %+v", snap)
	}

	// A fresh selection must not leak prior answers.
	gen, err := s.beginSelect()
	if err != nil {
		t.Fatalf("begin select: %v", err)
	}
	if err := s.install(gen, testQuiz(3)); err != nil {
		t.Fatalf("install: %v", err)
	}
	snap = s.Snapshot()
	if len(snap.Answers) != 3 {
		t.Fatalf("expected 3 fresh answer slots, got %d", len(snap.Answers))
	}
	for i, a := range snap.Answers {
		if a != nil {
			t.Fatalf("answer %d leaked from prior attempt: %q", i, *a)
		}
	}
}

func TestOperationsRejectedOutsideInProgress(t *testing.T) {
	s := NewSessionWithInterval(nil, time.Hour)
	defer s.Close()

	if err := s.RecordAnswer("4"); err != domain.ErrInvalidState {
		t.Fatalf("expected invalid state for answer while idle, got %v", err)
	}
	if err := s.Advance(); err != domain.ErrInvalidState {
		t.Fatalf("expected invalid state for advance while idle, got %v", err)
	}
	if err := s.Submit(); err != domain.ErrInvalidState {
		t.Fatalf("expected invalid state for submit while idle, got %v", err)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("restart from idle should be tolerated, got %v", err)
	}

	started := newStartedSession(t, testQuiz(1))
	defer started.Close()
	if err := started.Restart(); err != domain.ErrInvalidState {
		t.Fatalf("expected restart rejected mid-attempt, got %v", err)
	}
	if _, err := started.beginSelect(); err != domain.ErrInvalidState {
		t.Fatalf("expected selection rejected mid-attempt, got %v", err)
	}
}

func TestInstallRejectsStaleGeneration(t *testing.T) {
	s := NewSessionWithInterval(nil, time.Hour)
	defer s.Close()

	gen, err := s.beginSelect()
	if err != nil {
		t.Fatalf("begin select: %v", err)
	}
	if err := s.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := s.install(gen, testQuiz(1)); err != domain.ErrStaleFetch {
		t.Fatalf("expected stale fetch after restart, got %v", err)
	}
	if snap := s.Snapshot(); snap.Phase != domain.PhaseIdle {
		t.Fatalf("stale install mutated session: %+v", snap)
	}
}
