package quiz

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the random source used to shuffle the bank. IntN returns a
// uniformly distributed value in [0, n).
type Rand interface {
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) IntN(n int) int { return rand.IntN(n) }

type sessionOptions struct {
	rng    Rand
	strict bool
}

// SessionOption configures NewSession.
type SessionOption func(*sessionOptions)

// WithRand sets the random source used for sampling.
func WithRand(r Rand) SessionOption {
	return func(o *sessionOptions) {
		o.rng = r
	}
}

// WithStrictCount makes NewSession fail with ErrInsufficientQuestions when
// more questions are requested than the bank holds, instead of clamping.
func WithStrictCount() SessionOption {
	return func(o *sessionOptions) {
		o.strict = true
	}
}

// Session is one quiz attempt: a fixed random subset of the bank and the
// position of the question currently shown.
//
// A Session is not safe for concurrent use. The driving layer serializes
// every call.
type Session struct {
	selected []*Question
	position int
}

// NewSession draws count distinct questions from bank, uniformly at random
// and in random order. The whole bank is Fisher-Yates shuffled and the first
// count questions are kept.
//
// When count exceeds the bank size the session holds the whole bank, unless
// WithStrictCount is given. A non-positive count or an empty bank yields
// ErrInsufficientQuestions.
func NewSession(bank *Bank, count int, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{rng: defaultRand{}}
	for _, opt := range opts {
		opt(&o)
	}

	n := bank.Len()
	switch {
	case count <= 0:
		return nil, fmt.Errorf("%w: requested %d questions", ErrInsufficientQuestions, count)
	case n == 0:
		return nil, fmt.Errorf("%w: question bank is empty", ErrInsufficientQuestions)
	case count > n && o.strict:
		return nil, fmt.Errorf("%w: requested %d questions, bank has %d", ErrInsufficientQuestions, count, n)
	case count > n:
		count = n
	}

	clone := append([]*Question(nil), bank.All()...)
	shuffle(clone, o.rng)

	return &Session{selected: clone[:count:count]}, nil
}

func shuffle(qs []*Question, rng Rand) {
	for i := len(qs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}

// Len returns the number of questions in the session.
func (s *Session) Len() int { return len(s.selected) }

// Position returns the index of the current question.
func (s *Session) Position() int { return s.position }

// Questions returns the selected questions in quiz order. The slice must not
// be modified.
func (s *Session) Questions() []*Question { return s.selected }

// Current returns the question at the current position.
func (s *Session) Current() *Question {
	return s.selected[s.position]
}

// At returns the question at index i.
func (s *Session) At(i int) (*Question, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}
	return s.selected[i], nil
}

// IsFirst reports whether the current question is the first one.
func (s *Session) IsFirst() bool { return s.position == 0 }

// IsLast reports whether the current question is the last one.
func (s *Session) IsLast() bool { return s.position == len(s.selected)-1 }

// Advance moves to the next question. Callers are expected to check IsLast
// first; advancing past the end returns ErrIndexOutOfRange and keeps the
// position.
func (s *Session) Advance() error {
	return s.JumpTo(s.position + 1)
}

// Retreat moves to the previous question. Callers are expected to check
// IsFirst first; retreating before the start returns ErrIndexOutOfRange and
// keeps the position.
func (s *Session) Retreat() error {
	return s.JumpTo(s.position - 1)
}

// JumpTo sets the current position to i.
func (s *Session) JumpTo(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.position = i
	return nil
}

// RecordAnswer stores the user's selections for the question at index i.
func (s *Session) RecordAnswer(i int, answers []bool) error {
	q, err := s.At(i)
	if err != nil {
		return err
	}
	if err := q.SetUserAnswers(answers); err != nil {
		return fmt.Errorf("record answer %d: %w", i, err)
	}
	return nil
}

// Score returns the total number of errors: every choice, over all selected
// questions, where the user's selection differs from the correct answer.
func (s *Session) Score() (int, error) {
	total := 0
	for i, q := range s.selected {
		n, err := q.Errors()
		if err != nil {
			return 0, fmt.Errorf("score question %d: %w", i, err)
		}
		total += n
	}
	return total, nil
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.selected) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(s.selected))
	}
	return nil
}
