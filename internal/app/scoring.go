package app

import (
	"log"

	"partyquiz-service/internal/domain"
)

// soleCorrectOption returns the one option flagged correct, or
// ErrCorruptQuestion when the exactly-one invariant is violated.
func soleCorrectOption(q domain.Question) (string, error) {
	correct := ""
	count := 0
	for _, opt := range q.Options {
		if opt.Correct {
			correct = opt.ID
			count++
		}
	}
	if count != 1 {
		return "", domain.ErrCorruptQuestion
	}
	return correct, nil
}

// scoreCurrentQuestionLocked tallies the current question: +1 per attempt
// that picked the correct option. Runs exactly once per question; the scored
// set guards against a repeat even if two callers race the same transition.
// A question without exactly one correct option is logged and skipped rather
// than guessed at, since guessing would corrupt scores silently.
func (s *Session) scoreCurrentQuestionLocked() {
	question := s.currentQuestionLocked()
	if question == nil {
		return
	}
	if s.scored[question.ID] {
		return
	}
	s.scored[question.ID] = true

	correctID, err := soleCorrectOption(*question)
	if err != nil {
		log.Printf("quiz %s question %s: %v, skipping scoring", s.quiz.ID, question.ID, err)
		return
	}
	for attemptID, byQuestion := range s.answers {
		answer, ok := byQuestion[question.ID]
		if !ok || answer.OptionID != correctID {
			continue
		}
		if attempt, ok := s.attempts[attemptID]; ok {
			attempt.Score++
		}
	}
}

// answerStats counts answered and correct questions for one attempt,
// considering only questions that have already been scored. Corrupt
// questions count as answered but never as correct.
func (s *Session) answerStatsLocked(attemptID string) (answered, correct int) {
	byQuestion := s.answers[attemptID]
	for questionID, answer := range byQuestion {
		if !s.scored[questionID] {
			continue
		}
		answered++
		question := s.questionByIDLocked(questionID)
		if question == nil {
			continue
		}
		correctID, err := soleCorrectOption(*question)
		if err != nil {
			continue
		}
		if answer.OptionID == correctID {
			correct++
		}
	}
	return answered, correct
}

func (s *Session) questionByIDLocked(id string) *domain.Question {
	for i := range s.quiz.Questions {
		if s.quiz.Questions[i].ID == id {
			return &s.quiz.Questions[i]
		}
	}
	return nil
}
