package app

import (
	"sort"
	"sync"
	"time"

	"partyquiz-service/internal/domain"
)

// Timings holds the wall-clock budget for each timed phase.
type Timings struct {
	Answer time.Duration
	Reveal time.Duration
}

// DefaultTimings matches the classic 10s answer / 10s reveal cadence.
func DefaultTimings() Timings {
	return Timings{Answer: 10 * time.Second, Reveal: 10 * time.Second}
}

// Transition describes one committed phase change.
type Transition struct {
	QuizID        string
	Phase         domain.Phase
	QuestionIndex int
}

// Session is the live aggregate for one quiz: phase machine, attempts,
// answers and subscriber fanout. All mutation goes through the mutex; the
// tick is applied on every touch, so progression needs no background timer.
type Session struct {
	quiz    domain.Quiz
	timings Timings
	now     func() time.Time

	mu             sync.Mutex
	phase          domain.Phase
	currentIndex   int
	phaseStartedAt *time.Time
	startedAt      *time.Time
	finishedAt     *time.Time
	attempts       map[string]*domain.Attempt
	present        map[string]struct{}                  // attempts currently connected
	answers        map[string]map[string]*domain.Answer // attemptID -> questionID
	scored         map[string]bool                      // questions already tallied
	subscribers    map[chan domain.StateView]struct{}
}

func newSession(quiz domain.Quiz, timings Timings, now func() time.Time) *Session {
	sortQuestions(quiz.Questions)
	sortRounds(quiz.Rounds)
	return &Session{
		quiz:        quiz,
		timings:     timings,
		now:         now,
		phase:       domain.PhaseWaiting,
		attempts:    make(map[string]*domain.Attempt),
		present:     make(map[string]struct{}),
		answers:     make(map[string]map[string]*domain.Answer),
		scored:      make(map[string]bool),
		subscribers: make(map[chan domain.StateView]struct{}),
	}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(quiz domain.Quiz, timings Timings) *Session {
	return newSession(quiz, timings, time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(quiz domain.Quiz, timings Timings, now func() time.Time) *Session {
	return newSession(quiz, timings, now)
}

func sortQuestions(qs []domain.Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
}

func sortRounds(rs []domain.Round) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Order != rs[j].Order {
			return rs[i].Order < rs[j].Order
		}
		return rs[i].ID < rs[j].ID
	})
}

// QuizID returns the identity of the quiz this session runs.
func (s *Session) QuizID() string {
	return s.quiz.ID
}

// Join registers or refreshes an attempt and returns a fresh snapshot. A
// rejoin after a disconnect reuses the existing attempt, so the score and
// the original start time survive.
func (s *Session) Join(attemptID, displayName string) (domain.StateView, *Transition) {
	s.mu.Lock()
	tr := s.tickLocked(s.now())
	s.present[attemptID] = struct{}{}
	if attempt, ok := s.attempts[attemptID]; ok {
		if displayName != "" {
			attempt.DisplayName = displayName
		}
	} else {
		s.attempts[attemptID] = &domain.Attempt{
			ID:          attemptID,
			DisplayName: displayName,
			StartedAt:   s.now(),
		}
	}
	view := s.stateLocked(attemptID)
	s.broadcastLocked()
	s.mu.Unlock()
	return view, tr
}

// Start moves the quiz into the first question's ANSWER phase. The quiz must
// have at least one question; started_at is only stamped on the first start.
func (s *Session) Start() (domain.StateView, *Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.quiz.Questions) == 0 {
		return s.stateLocked(""), nil, domain.ErrEmptyQuiz
	}
	now := s.now()
	s.phase = domain.PhaseAnswer
	s.currentIndex = 0
	s.phaseStartedAt = &now
	if s.startedAt == nil {
		s.startedAt = &now
	}
	tr := &Transition{QuizID: s.quiz.ID, Phase: s.phase, QuestionIndex: s.currentIndex}
	view := s.stateLocked("")
	s.broadcastLocked()
	return view, tr, nil
}

// Reset returns the quiz to WAITING. Attempts, scores and answers are kept;
// the scored-question guard is cleared so a rerun tallies again.
func (s *Session) Reset() (domain.StateView, *Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseWaiting
	s.currentIndex = 0
	s.phaseStartedAt = nil
	s.startedAt = nil
	s.finishedAt = nil
	s.scored = make(map[string]bool)
	tr := &Transition{QuizID: s.quiz.ID, Phase: s.phase, QuestionIndex: 0}
	view := s.stateLocked("")
	s.broadcastLocked()
	return view, tr
}

// Tick applies at most one time-driven transition and returns it, or nil if
// the phase is stable at the current wall clock.
func (s *Session) Tick() *Transition {
	s.mu.Lock()
	tr := s.tickLocked(s.now())
	if tr != nil {
		s.broadcastLocked()
	}
	s.mu.Unlock()
	return tr
}

// State ticks and returns a snapshot personalized for attemptID (own answer
// marked). An empty attemptID yields a neutral snapshot.
func (s *Session) State(attemptID string) (domain.StateView, *Transition) {
	s.mu.Lock()
	tr := s.tickLocked(s.now())
	view := s.stateLocked(attemptID)
	if tr != nil {
		s.broadcastLocked()
	}
	s.mu.Unlock()
	return view, tr
}

// Submit records an attempt's answer for the current question. The first
// submission wins: a repeat for the same question is a success no-op that
// returns the stored answer.
func (s *Session) Submit(attemptID string, sub domain.AnswerSubmission) (domain.Answer, domain.StateView, *Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr := s.tickLocked(s.now())

	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.Answer{}, s.stateLocked(attemptID), tr, domain.ErrAttemptNotFound
	}
	if s.phase != domain.PhaseAnswer {
		return domain.Answer{}, s.stateLocked(attemptID), tr, domain.ErrPhaseClosed
	}
	question := s.currentQuestionLocked()
	if question == nil || sub.QuestionID != question.ID {
		return domain.Answer{}, s.stateLocked(attemptID), tr, domain.ErrStaleQuestion
	}
	if !optionBelongs(*question, sub.OptionID) {
		return domain.Answer{}, s.stateLocked(attemptID), tr, domain.ErrOptionMismatch
	}

	byQuestion, ok := s.answers[attempt.ID]
	if !ok {
		byQuestion = make(map[string]*domain.Answer)
		s.answers[attempt.ID] = byQuestion
	}
	if existing, ok := byQuestion[question.ID]; ok {
		return *existing, s.stateLocked(attemptID), tr, nil
	}
	answer := &domain.Answer{
		AttemptID:  attempt.ID,
		QuestionID: question.ID,
		OptionID:   sub.OptionID,
		CreatedAt:  s.now(),
	}
	byQuestion[question.ID] = answer
	view := s.stateLocked(attemptID)
	s.broadcastLocked()
	return *answer, view, tr, nil
}

func optionBelongs(q domain.Question, optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Leave removes an attempt's presence marker. The attempt itself stays, with
// its score, answers and start time, so a reconnect picks up where it left
// off.
func (s *Session) Leave(attemptID string) {
	s.mu.Lock()
	delete(s.present, attemptID)
	s.broadcastLocked()
	s.mu.Unlock()
}

func (s *Session) isEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.present) == 0
}

// IsEmpty reports whether the session has no connected attempts.
func (s *Session) IsEmpty() bool {
	return s.isEmpty()
}

// FinishedSummary reports winners and top score once the quiz has finished.
func (s *Session) FinishedSummary() (domain.RecentQuiz, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr := s.tickLocked(s.now()); tr != nil {
		s.broadcastLocked()
	}
	if s.phase != domain.PhaseFinished || s.finishedAt == nil {
		return domain.RecentQuiz{}, false
	}
	finished := s.finishedViewLocked()
	winners := make([]string, 0, len(finished.Winners))
	for _, w := range finished.Winners {
		winners = append(winners, w.DisplayName)
	}
	return domain.RecentQuiz{
		QuizID:     s.quiz.ID,
		Title:      s.quiz.Title,
		TopScore:   finished.TopScore,
		Winners:    winners,
		FinishedAt: *s.finishedAt,
	}, true
}

// tickLocked is the transition engine: a pure decision over (phase, elapsed)
// applying at most one step. It deliberately never cascades even if the wall
// clock skipped several boundaries; the next touch catches the next one.
func (s *Session) tickLocked(now time.Time) *Transition {
	switch s.phase {
	case domain.PhaseAnswer:
		if s.inPhaseForLocked(now) < s.timings.Answer {
			return nil
		}
		s.scoreCurrentQuestionLocked()
		s.phase = domain.PhaseReveal
		t := now
		s.phaseStartedAt = &t
		return &Transition{QuizID: s.quiz.ID, Phase: s.phase, QuestionIndex: s.currentIndex}
	case domain.PhaseReveal:
		if s.inPhaseForLocked(now) < s.timings.Reveal {
			return nil
		}
		s.currentIndex++
		t := now
		if s.currentIndex >= len(s.quiz.Questions) {
			s.phase = domain.PhaseFinished
			if s.finishedAt == nil {
				s.finishedAt = &t
			}
			s.phaseStartedAt = &t
		} else {
			s.phase = domain.PhaseAnswer
			s.phaseStartedAt = &t
		}
		return &Transition{QuizID: s.quiz.ID, Phase: s.phase, QuestionIndex: s.currentIndex}
	default:
		// WAITING and FINISHED only move by explicit host commands.
		return nil
	}
}

// inPhaseForLocked is the elapsed time in the current phase, clamped at zero.
func (s *Session) inPhaseForLocked(now time.Time) time.Duration {
	if s.phaseStartedAt == nil {
		return 0
	}
	elapsed := now.Sub(*s.phaseStartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// phaseRemainingLocked is whole seconds left in the current timed phase.
func (s *Session) phaseRemainingLocked(now time.Time) int {
	var budget time.Duration
	switch s.phase {
	case domain.PhaseAnswer:
		budget = s.timings.Answer
	case domain.PhaseReveal:
		budget = s.timings.Reveal
	default:
		return 0
	}
	remaining := budget - s.inPhaseForLocked(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

func (s *Session) currentQuestionLocked() *domain.Question {
	if s.phase != domain.PhaseAnswer && s.phase != domain.PhaseReveal {
		return nil
	}
	if s.currentIndex < 0 || s.currentIndex >= len(s.quiz.Questions) {
		return nil
	}
	return &s.quiz.Questions[s.currentIndex]
}

// Subscribe returns a channel of state snapshots. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.StateView, func()) {
	ch := make(chan domain.StateView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.stateLocked("")
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

func (s *Session) broadcastLocked() {
	view := s.stateLocked("")
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale snapshot so slow clients never block the game.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}
