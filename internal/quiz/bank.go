package quiz

import (
	"context"
	"fmt"
	"log/slog"
)

// Source retrieves the raw question document.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// Bank is the full, read-only collection of parsed questions.
type Bank struct {
	questions []*Question
	byID      map[string]*Question
}

// NewBank creates a bank over questions, keeping their order. Identical
// blocks share an ID; lookups by that ID return the first of them.
func NewBank(questions []*Question) *Bank {
	b := &Bank{
		questions: questions,
		byID:      make(map[string]*Question, len(questions)),
	}
	for _, q := range questions {
		if _, dup := b.byID[q.ID()]; dup {
			continue
		}
		b.byID[q.ID()] = q
	}
	return b
}

// LoadBank fetches the document from src and parses it. A retrieval failure
// is reported as ErrSourceUnavailable and no bank is returned. A document
// without any question blocks produces an empty bank.
func LoadBank(ctx context.Context, src Source) (*Bank, error) {
	doc, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	bank := NewBank(ParseQuestions(doc))
	slog.Info("question bank loaded", "questions", bank.Len())
	return bank, nil
}

// All returns the bank's questions in document order. The slice is shared
// with the bank and must not be modified.
func (b *Bank) All() []*Question {
	return b.questions
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Question looks up a question by its ID.
func (b *Bank) Question(id string) (*Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Clone returns a bank with fresh copies of every question and all user
// selections cleared. Concurrent quiz attempts each draw from their own
// clone so that selections never leak between them.
func (b *Bank) Clone() *Bank {
	questions := make([]*Question, len(b.questions))
	for i, q := range b.questions {
		questions[i] = q.clone()
	}
	return NewBank(questions)
}
