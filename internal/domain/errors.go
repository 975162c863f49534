package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrAttemptNotFound is returned when a player acts before joining.
	ErrAttemptNotFound = errors.New("attempt not found in quiz")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptyQuiz is returned when starting a quiz that has no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrPhaseClosed is returned when an answer arrives outside the ANSWER phase.
	ErrPhaseClosed = errors.New("not accepting answers in current phase")
	// ErrOptionMismatch is returned when an option does not belong to the
	// question it was submitted for.
	ErrOptionMismatch = errors.New("option does not belong to question")
	// ErrStaleQuestion is returned when an answer targets a question other
	// than the one currently open.
	ErrStaleQuestion = errors.New("question is not the current question")
	// ErrCorruptQuestion marks a question whose options violate the
	// exactly-one-correct invariant. Scoring skips such questions.
	ErrCorruptQuestion = errors.New("question does not have exactly one correct option")
)
