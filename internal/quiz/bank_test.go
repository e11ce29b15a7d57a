package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

type staticSource struct {
	doc string
	err error
}

func (s staticSource) Fetch(context.Context) (string, error) {
	return s.doc, s.err
}

func TestLoadBank(t *testing.T) {
	doc := block("one", "* [x] a\n") + block("two", "* [ ] a\n")

	bank, err := quiz.LoadBank(t.Context(), staticSource{doc: doc})
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}
	if bank.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bank.Len())
	}
	if bank.All()[0].Prompt() != "one" {
		t.Errorf("All()[0].Prompt() = %q, want one", bank.All()[0].Prompt())
	}

	q, ok := bank.Question(bank.All()[1].ID())
	if !ok || q != bank.All()[1] {
		t.Error("Question(id) did not return the matching question")
	}
}

func TestNewBank_DuplicateBlocks(t *testing.T) {
	first := quiz.NewQuestion("same", "* [x] a\n")
	second := quiz.NewQuestion("same", "* [x] a\n")
	bank := quiz.NewBank([]*quiz.Question{first, second})

	if bank.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bank.Len())
	}
	q, ok := bank.Question(first.ID())
	if !ok || q != first {
		t.Error("Question(id) should return the first of identical blocks")
	}
	if _, ok := bank.Question("missing"); ok {
		t.Error("Question(missing) reported a match")
	}
}

func TestLoadBank_SourceUnavailable(t *testing.T) {
	bank, err := quiz.LoadBank(t.Context(), staticSource{err: errors.New("connection refused")})
	if !errors.Is(err, quiz.ErrSourceUnavailable) {
		t.Fatalf("LoadBank() error = %v, want ErrSourceUnavailable", err)
	}
	if bank != nil {
		t.Error("LoadBank() returned a bank on failure")
	}
}

func TestLoadBank_MalformedDocument(t *testing.T) {
	bank, err := quiz.LoadBank(t.Context(), staticSource{doc: "nothing to see"})
	if err != nil {
		t.Fatalf("LoadBank() error = %v", err)
	}
	if bank.Len() != 0 {
		t.Errorf("Len() = %d, want 0", bank.Len())
	}
}

func TestBank_Clone(t *testing.T) {
	bank := quiz.NewBank(quiz.ParseQuestions(oneQuestionDoc))
	_ = bank.All()[0].SetUserAnswers([]bool{true, true, true})

	clone := bank.Clone()
	if clone.Len() != bank.Len() {
		t.Fatalf("Clone().Len() = %d, want %d", clone.Len(), bank.Len())
	}

	orig, cp := bank.All()[0], clone.All()[0]
	if orig == cp {
		t.Fatal("Clone() shares question pointers")
	}
	if cp.ID() != orig.ID() || cp.Prompt() != orig.Prompt() || cp.Choices() != orig.Choices() {
		t.Error("Clone() changed question content")
	}
	for i, v := range cp.UserAnswers() {
		if v {
			t.Errorf("clone UserAnswers()[%d] = true, want cleared", i)
		}
	}

	_ = cp.SetUserAnswers([]bool{false, true, false})
	if got := orig.UserAnswers(); !got[0] {
		t.Error("setting answers on the clone changed the original")
	}
}
