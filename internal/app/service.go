package app

import (
	"context"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"partyquiz-service/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(quizID string, build func() *Session) *Session
	Get(quizID string) (*Session, bool)
	All() []*Session
	DeleteIfEmpty(quizID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetQuizByCode(ctx context.Context, code string) (domain.Quiz, error)
}

// PhaseNotifier is fired after every committed phase transition. It is
// best-effort: failures or panics never roll back the transition.
type PhaseNotifier interface {
	NotifyPhaseChange(quizID string, phase domain.Phase, questionIndex int)
}

// GameService contains the quiz use cases: joining, host control, answer
// submission and the read projections.
type GameService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	timings  Timings
	notifier PhaseNotifier
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewGameService wires the service. notifier may be nil.
func NewGameService(store SessionRepository, quizzes QuizRepository, timings Timings, notifier PhaseNotifier) *GameService {
	return NewGameServiceWithClock(store, quizzes, timings, notifier, time.Now)
}

// NewGameServiceWithClock is test-only for deterministic phase timing.
func NewGameServiceWithClock(store SessionRepository, quizzes QuizRepository, timings Timings, notifier PhaseNotifier, now func() time.Time) *GameService {
	return &GameService{
		sessions: store,
		quizzes:  quizzes,
		timings:  timings,
		notifier: notifier,
		now:      now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *GameService) getOrCreateSession(ctx context.Context, quiz domain.Quiz) *Session {
	return g.sessions.GetOrCreate(quiz.ID, func() *Session {
		return newSession(quiz, g.timings, g.now)
	})
}

// JoinByCode registers a player in the quiz matching the 6-digit access
// code. An empty display name gets a suggested one.
func (g *GameService) JoinByCode(ctx context.Context, code, playerID, displayName string) (domain.StateView, error) {
	quiz, err := g.quizzes.GetQuizByCode(ctx, code)
	if err != nil {
		return domain.StateView{}, err
	}
	return g.join(ctx, quiz, playerID, displayName)
}

// Join registers a player by quiz ID.
func (g *GameService) Join(ctx context.Context, quizID, playerID, displayName string) (domain.StateView, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.StateView{}, err
	}
	return g.join(ctx, quiz, playerID, displayName)
}

func (g *GameService) join(ctx context.Context, quiz domain.Quiz, playerID, displayName string) (domain.StateView, error) {
	if displayName == "" {
		displayName = g.SuggestName()
	}
	session := g.getOrCreateSession(ctx, quiz)
	view, tr := session.Join(playerID, displayName)
	g.notify(tr)
	return view, nil
}

// Start is the host command that begins the quiz at question zero.
func (g *GameService) Start(ctx context.Context, quizID string) (domain.StateView, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.StateView{}, err
	}
	session := g.getOrCreateSession(ctx, quiz)
	view, tr, err := session.Start()
	if err != nil {
		return view, err
	}
	g.notify(tr)
	return view, nil
}

// Reset is the host command that returns the quiz to WAITING. Attempts and
// answers are kept.
func (g *GameService) Reset(ctx context.Context, quizID string) (domain.StateView, error) {
	session, ok := g.sessions.Get(quizID)
	if !ok {
		return domain.StateView{}, domain.ErrSessionNotFound
	}
	view, tr := session.Reset()
	g.notify(tr)
	return view, nil
}

// SubmitAnswer records a player's pick for the current question.
func (g *GameService) SubmitAnswer(ctx context.Context, quizID, playerID string, sub domain.AnswerSubmission) (domain.Answer, domain.StateView, error) {
	session, ok := g.sessions.Get(quizID)
	if !ok {
		return domain.Answer{}, domain.StateView{}, domain.ErrSessionNotFound
	}
	answer, view, tr, err := session.Submit(playerID, sub)
	g.notify(tr)
	return answer, view, err
}

// State ticks the quiz and returns a snapshot. It creates the session on
// demand so plain polling works before anyone has joined.
func (g *GameService) State(ctx context.Context, quizID, playerID string) (domain.StateView, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.StateView{}, err
	}
	session := g.getOrCreateSession(ctx, quiz)
	view, tr := session.State(playerID)
	g.notify(tr)
	return view, nil
}

// StateByCode is the polling entrypoint keyed by access code.
func (g *GameService) StateByCode(ctx context.Context, code, playerID string) (domain.StateView, error) {
	quiz, err := g.quizzes.GetQuizByCode(ctx, code)
	if err != nil {
		return domain.StateView{}, err
	}
	session := g.getOrCreateSession(ctx, quiz)
	view, tr := session.State(playerID)
	g.notify(tr)
	return view, nil
}

// Subscribe returns a channel that receives state snapshots for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *GameService) Subscribe(_ context.Context, quizID string) (<-chan domain.StateView, func(), error) {
	session, ok := g.sessions.Get(quizID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Leave removes a player from the session and drops the session if empty.
func (g *GameService) Leave(_ context.Context, quizID, playerID string) {
	session, ok := g.sessions.Get(quizID)
	if !ok {
		return
	}
	session.Leave(playerID)
	if session.IsEmpty() {
		g.sessions.DeleteIfEmpty(quizID)
	}
}

// SuggestName proposes a display name for players joining without one.
func (g *GameService) SuggestName() string {
	g.rndMu.Lock()
	defer g.rndMu.Unlock()
	return domain.GenerateSillyName(g.rnd)
}

// RecentFinished lists finished quizzes, most recent first, with winners and
// top score.
func (g *GameService) RecentFinished(limit int) []domain.RecentQuiz {
	recent := make([]domain.RecentQuiz, 0)
	for _, session := range g.sessions.All() {
		if summary, ok := session.FinishedSummary(); ok {
			recent = append(recent, summary)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].FinishedAt.After(recent[j].FinishedAt)
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

func (g *GameService) notify(tr *Transition) {
	if tr == nil || g.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("phase notifier panic for quiz %s: %v", tr.QuizID, r)
		}
	}()
	g.notifier.NotifyPhaseChange(tr.QuizID, tr.Phase, tr.QuestionIndex)
}
