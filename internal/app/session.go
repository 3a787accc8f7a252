package app

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"quizzer-session-service/internal/domain"
)

// Session drives one taker's attempt at a single quiz through the
// Idle -> InProgress -> Scored lifecycle. All mutations are serialized
// through the session mutex so results are populated at most once even
// when a manual submit races the countdown.
type Session struct {
	logger   *zap.Logger
	interval time.Duration

	mu          sync.Mutex
	phase       domain.Phase
	quiz        *domain.QuizDetail
	answers     []*string
	current     int
	remaining   int
	results     []domain.ScoredAnswer
	generation  uint64
	timer       *countdown
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession returns an empty session with the real one-second countdown.
func NewSession(logger *zap.Logger) *Session {
	return NewSessionWithInterval(logger, time.Second)
}

// NewSessionWithInterval allows tests to run the countdown faster than
// wall-clock seconds.
func NewSessionWithInterval(logger *zap.Logger, interval time.Duration) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		logger:      logger,
		interval:    interval,
		phase:       domain.PhaseIdle,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
}

// beginSelect reserves a selection slot and returns the generation an
// in-flight fetch must present to install its result. Selection is only
// allowed while no attempt is running.
func (s *Session) beginSelect() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseInProgress {
		return 0, domain.ErrInvalidState
	}
	return s.generation, nil
}

// install loads a fetched quiz into the session and starts the countdown.
// The quiz is discarded if the session has moved on (restart or another
// selection) since gen was captured. detail must already be validated.
func (s *Session) install(gen uint64, detail domain.QuizDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.phase == domain.PhaseInProgress {
		return domain.ErrStaleFetch
	}

	s.generation++
	s.quiz = &detail
	s.answers = make([]*string, len(detail.Questions))
	s.current = 0
	s.remaining = detail.TimeLimitMinutes * 60
	s.results = nil
	s.phase = domain.PhaseInProgress
	s.startTimerLocked()
	s.broadcastLocked()

	s.logger.Info("quiz selected",
		zap.String("quizId", detail.ID),
		zap.Int("questions", len(detail.Questions)),
		zap.Int("remainingSeconds", s.remaining))
	return nil
}

// RecordAnswer overwrites the answer for the current question. Re-picking
// the same choice is a no-op. Only valid while the attempt is running.
func (s *Session) RecordAnswer(choice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidState
	}
	if s.current < 0 || s.current >= len(s.answers) {
		return domain.ErrInvalidState
	}
	if existing := s.answers[s.current]; existing != nil && *existing == choice {
		return nil
	}
	picked := choice
	s.answers[s.current] = &picked
	s.broadcastLocked()
	return nil
}

// Advance moves to the next question, or submits the attempt when called
// on the last one. There is no backward navigation.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidState
	}
	if s.current == len(s.quiz.Questions)-1 {
		s.submitLocked()
	} else {
		s.current++
	}
	s.broadcastLocked()
	return nil
}

// Submit scores the attempt. A second call after scoring is a no-op, which
// absorbs the race between a manual submit and the countdown reaching zero.
func (s *Session) Submit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseScored {
		return nil
	}
	if s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidState
	}
	s.submitLocked()
	s.broadcastLocked()
	return nil
}

// Restart clears the session back to Idle. Tolerated from Idle, rejected
// while an attempt is running.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseInProgress {
		return domain.ErrInvalidState
	}
	s.generation++
	s.stopTimerLocked()
	s.quiz = nil
	s.answers = nil
	s.current = 0
	s.remaining = 0
	s.results = nil
	s.phase = domain.PhaseIdle
	s.broadcastLocked()
	return nil
}

// Close stops the countdown and closes all subscriber channels. The session
// must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.stopTimerLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the read-only view of the session.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot on every state change,
// seeded with the current one. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// submitLocked populates results exactly once and stops the countdown.
// Callers broadcast; must hold s.mu.
func (s *Session) submitLocked() {
	if s.results != nil {
		return
	}
	s.results = Score(s.quiz.Questions, s.answers)
	s.stopTimerLocked()
	s.phase = domain.PhaseScored

	s.logger.Info("attempt scored",
		zap.String("quizId", s.quiz.ID),
		zap.Int("correct", CorrectCount(s.results)),
		zap.Int("total", len(s.results)))
}

// tick applies one countdown decrement on behalf of the timer episode
// identified by gen. Returns false once the episode is over so the timer
// goroutine can exit.
func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.phase != domain.PhaseInProgress {
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.submitLocked()
	}
	s.broadcastLocked()
	return s.phase == domain.PhaseInProgress
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Phase:            s.phase,
		Quiz:             s.quiz,
		CurrentIndex:     s.current,
		RemainingSeconds: s.remaining,
	}
	if s.answers != nil {
		snap.Answers = make([]*string, len(s.answers))
		copy(snap.Answers, s.answers)
	}
	if s.results != nil {
		snap.Results = s.results
		snap.Correct = CorrectCount(s.results)
		snap.Total = len(s.results)
	}
	return snap
}
