package domain

import "time"

// OptionView is an option stripped of its correct flag, safe to show while
// answering is still open.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView is the current question as seen by players.
type QuestionView struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	RoundName string       `json:"roundName,omitempty"`
	Options   []OptionView `json:"options"`
}

// RevealView shows the outcome of a question once answering has closed.
type RevealView struct {
	CorrectOptionID string   `json:"correctOptionId"`
	Right           []string `json:"right"` // display names that picked correctly
	Wrong           []string `json:"wrong"`
}

// LeaderboardEntry is one attempt's standing.
type LeaderboardEntry struct {
	AttemptID   string `json:"attemptId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Answered    int    `json:"answered"`
	Correct     int    `json:"correct"`
	Pct         int    `json:"pct"`
}

// FinishedView is the terminal leaderboard: full ranking plus every attempt
// tied at the top score.
type FinishedView struct {
	TopScore int                `json:"topScore"`
	Winners  []LeaderboardEntry `json:"winners"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// RoundSummary is a lobby line item: a round and how many questions it holds.
// Questions without a round are reported under a synthetic "Unassigned" entry
// with an empty RoundID.
type RoundSummary struct {
	RoundID       string `json:"roundId,omitempty"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

// RecentQuiz summarizes one finished quiz for the home listing.
type RecentQuiz struct {
	QuizID     string    `json:"quizId"`
	Title      string    `json:"title"`
	TopScore   int       `json:"topScore"`
	Winners    []string  `json:"winners"`
	FinishedAt time.Time `json:"finishedAt"`
}

// StateView is the full snapshot a client renders from. Question is set only
// during ANSWER and REVEAL; Reveal only during REVEAL; Finished only at
// FINISHED.
type StateView struct {
	QuizID         string         `json:"quizId"`
	Title          string         `json:"title"`
	Phase          Phase          `json:"phase"`
	QuestionIndex  int            `json:"questionIndex"`
	QuestionCount  int            `json:"questionCount"`
	Remaining      int            `json:"remaining"` // whole seconds left in phase
	Question       *QuestionView  `json:"question,omitempty"`
	AnsweredOption string         `json:"answeredOption,omitempty"` // caller's own pick, if any
	Reveal         *RevealView    `json:"reveal,omitempty"`
	Rounds         []RoundSummary `json:"rounds,omitempty"`
	Players        []string       `json:"players,omitempty"`
	Finished       *FinishedView  `json:"finished,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
