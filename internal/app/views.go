package app

import (
	"math"
	"sort"

	"partyquiz-service/internal/domain"
)

// stateLocked builds the snapshot a client renders from. attemptID, when
// known, marks that player's own pick during ANSWER/REVEAL.
func (s *Session) stateLocked(attemptID string) domain.StateView {
	now := s.now()
	view := domain.StateView{
		QuizID:        s.quiz.ID,
		Title:         s.quiz.Title,
		Phase:         s.phase,
		QuestionIndex: s.currentIndex,
		QuestionCount: len(s.quiz.Questions),
		Remaining:     s.phaseRemainingLocked(now),
		UpdatedAt:     now,
	}

	switch s.phase {
	case domain.PhaseWaiting:
		view.Rounds = s.roundSummariesLocked()
		view.Players = s.playerNamesLocked()
	case domain.PhaseAnswer:
		if q := s.currentQuestionLocked(); q != nil {
			view.Question = questionView(*q, s.roundNameLocked(q.RoundID))
			if answer, ok := s.answers[attemptID][q.ID]; ok {
				view.AnsweredOption = answer.OptionID
			}
		}
	case domain.PhaseReveal:
		if q := s.currentQuestionLocked(); q != nil {
			view.Question = questionView(*q, s.roundNameLocked(q.RoundID))
			if answer, ok := s.answers[attemptID][q.ID]; ok {
				view.AnsweredOption = answer.OptionID
			}
			view.Reveal = s.revealViewLocked(*q)
		}
	case domain.PhaseFinished:
		finished := s.finishedViewLocked()
		view.Finished = &finished
	}
	return view
}

func questionView(q domain.Question, roundName string) *domain.QuestionView {
	options := make([]domain.OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, domain.OptionView{ID: opt.ID, Text: opt.Text})
	}
	return &domain.QuestionView{
		ID:        q.ID,
		Text:      q.Text,
		RoundName: roundName,
		Options:   options,
	}
}

func (s *Session) roundNameLocked(roundID string) string {
	if roundID == "" {
		return ""
	}
	for _, r := range s.quiz.Rounds {
		if r.ID == roundID {
			return r.Name
		}
	}
	return ""
}

// revealViewLocked splits answerers into right and wrong by display name.
// When the question is corrupt there is no correct option to reveal, so
// everyone lands in Wrong with an empty CorrectOptionID.
func (s *Session) revealViewLocked(q domain.Question) *domain.RevealView {
	correctID, err := soleCorrectOption(q)
	if err != nil {
		correctID = ""
	}
	reveal := &domain.RevealView{CorrectOptionID: correctID, Right: []string{}, Wrong: []string{}}
	for attemptID, byQuestion := range s.answers {
		answer, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		name := attemptID
		if attempt, ok := s.attempts[attemptID]; ok && attempt.DisplayName != "" {
			name = attempt.DisplayName
		}
		if correctID != "" && answer.OptionID == correctID {
			reveal.Right = append(reveal.Right, name)
		} else {
			reveal.Wrong = append(reveal.Wrong, name)
		}
	}
	sort.Strings(reveal.Right)
	sort.Strings(reveal.Wrong)
	return reveal
}

// finishedViewLocked ranks attempts by score descending with earlier
// starters winning ties. Winners are every attempt tied at the top score.
func (s *Session) finishedViewLocked() domain.FinishedView {
	entries := make([]domain.LeaderboardEntry, 0, len(s.attempts))
	starts := make(map[string]int64, len(s.attempts))
	for _, attempt := range s.attempts {
		answered, correct := s.answerStatsLocked(attempt.ID)
		pct := 0
		if answered > 0 {
			pct = int(math.Round(100 * float64(correct) / float64(answered)))
		}
		entries = append(entries, domain.LeaderboardEntry{
			AttemptID:   attempt.ID,
			DisplayName: attempt.DisplayName,
			Score:       attempt.Score,
			Answered:    answered,
			Correct:     correct,
			Pct:         pct,
		})
		starts[attempt.ID] = attempt.StartedAt.UnixNano()
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if starts[entries[i].AttemptID] != starts[entries[j].AttemptID] {
			return starts[entries[i].AttemptID] < starts[entries[j].AttemptID]
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	view := domain.FinishedView{Entries: entries, Winners: []domain.LeaderboardEntry{}}
	if len(entries) > 0 {
		view.TopScore = entries[0].Score
		for _, entry := range entries {
			if entry.Score == view.TopScore {
				view.Winners = append(view.Winners, entry)
			}
		}
	}
	return view
}

// roundSummariesLocked is the lobby listing: each round with its question
// count, plus a synthetic Unassigned bucket for questions without a round.
func (s *Session) roundSummariesLocked() []domain.RoundSummary {
	counts := make(map[string]int)
	for _, q := range s.quiz.Questions {
		counts[q.RoundID]++
	}
	summaries := make([]domain.RoundSummary, 0, len(s.quiz.Rounds)+1)
	for _, r := range s.quiz.Rounds {
		summaries = append(summaries, domain.RoundSummary{
			RoundID:       r.ID,
			Name:          r.Name,
			QuestionCount: counts[r.ID],
		})
	}
	if unassigned := counts[""]; unassigned > 0 {
		summaries = append(summaries, domain.RoundSummary{
			Name:          "Unassigned",
			QuestionCount: unassigned,
		})
	}
	return summaries
}

// playerNamesLocked lists connected players only; disconnected attempts keep
// their scores but drop out of the lobby listing.
func (s *Session) playerNamesLocked() []string {
	names := make([]string, 0, len(s.present))
	for attemptID := range s.present {
		if attempt, ok := s.attempts[attemptID]; ok {
			names = append(names, attempt.DisplayName)
		}
	}
	sort.Strings(names)
	return names
}
