// Package attempt records finished quiz attempts and quiz analytics events.
package attempt

import (
	"errors"
	"fmt"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// ErrNotFound is returned when no attempt has the requested id.
var ErrNotFound = errors.New("attempt not found")

// Item is the outcome of one question within an attempt.
type Item struct {
	QuestionID string `json:"question_id"`
	Position   int    `json:"position"`
	Prompt     string `json:"prompt"`
	Correct    []bool `json:"correct"`
	Selected   []bool `json:"selected"`
	Errors     int    `json:"errors"`
	// Choices is the redacted answer block. It is not stored; the attempt
	// API fills it from the loaded bank.
	Choices string `json:"choices,omitempty"`
}

// Attempt is a finished quiz.
type Attempt struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Expired    bool      `json:"expired"`
	Errors     int       `json:"errors"`
	Items      []Item    `json:"items,omitempty"`
}

// Passed reports whether the attempt has no wrong selections.
func (a Attempt) Passed() bool { return a.Errors == 0 }

// Duration is the time between start and finish.
func (a Attempt) Duration() time.Duration { return a.FinishedAt.Sub(a.StartedAt) }

// FromSession snapshots a scored session. FinishedAt is left for the caller
// to set.
func FromSession(title string, startedAt time.Time, s *quiz.Session) (Attempt, error) {
	total, err := s.Score()
	if err != nil {
		return Attempt{}, fmt.Errorf("score session: %w", err)
	}

	a := Attempt{
		Title:     title,
		StartedAt: startedAt,
		Errors:    total,
		Items:     make([]Item, 0, s.Len()),
	}
	for i, q := range s.Questions() {
		n, err := q.Errors()
		if err != nil {
			return Attempt{}, fmt.Errorf("score question %d: %w", i, err)
		}
		a.Items = append(a.Items, Item{
			QuestionID: q.ID(),
			Position:   i,
			Prompt:     q.Prompt(),
			Correct:    q.CorrectAnswers(),
			Selected:   q.UserAnswers(),
			Errors:     n,
		})
	}
	return a, nil
}
