package domain

import "time"

// Phase is the live state of a quiz.
type Phase string

const (
	PhaseWaiting  Phase = "WAITING"
	PhaseAnswer   Phase = "ANSWER"
	PhaseReveal   Phase = "REVEAL"
	PhaseFinished Phase = "FINISHED"
)

// OptionsPerQuestion is the fixed option count every question must carry.
const OptionsPerQuestion = 4

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option out of four.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	RoundID string   `json:"roundId,omitempty"` // empty means unassigned
	Order   int      `json:"order"`
	Options []Option `json:"options"`
}

// Round is a display grouping of questions. It is an ordering hint only and
// plays no part in phase progression.
type Round struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// Quiz is the static content of a trivia session: ordered questions plus
// optional round groupings. Live state (phase, index, timestamps) lives in
// the session aggregate, not here.
type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	AccessCode string     `json:"accessCode"`
	Rounds     []Round    `json:"rounds,omitempty"`
	Questions  []Question `json:"questions"`
}

// Attempt is one participant's run through a quiz.
type Attempt struct {
	ID          string
	DisplayName string
	Score       int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Answer records an attempt's choice for one question. Immutable once
// created; there is at most one per (attempt, question).
type Answer struct {
	AttemptID  string
	QuestionID string
	OptionID   string
	CreatedAt  time.Time
}

// AnswerSubmission is the inbound scoring signal from a player.
type AnswerSubmission struct {
	QuestionID string
	OptionID   string
}
