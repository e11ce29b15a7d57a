package quiz

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/blake2b"
)

const (
	checkboxPrefix = "* ["
	checkedPrefix  = "* [x]"
	checkedMarker  = "* [x] "
	uncheckedMark  = "* [ ] "
)

// Question is a single multiple-choice question.
//
// Prompt, correct answers and choices are fixed at construction. Only the
// user's selections change afterwards, and they always have one entry per
// answer choice.
type Question struct {
	id          string
	prompt      string
	correct     []bool
	choices     string
	userAnswers []bool
}

// NewQuestion builds a question from a raw prompt and answer block.
//
// Every answer block line that starts with "* [" (after trimming) is a choice;
// it is correct when its marker is "[x]". The stored choice text has every
// "* [x] " rewritten to "* [ ] ", and the marker of every line counted as
// correct cleared, so it never reveals the solution.
func NewQuestion(prompt, answers string) *Question {
	var correct []bool
	for _, line := range strings.Split(answers, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, checkboxPrefix) {
			continue
		}
		correct = append(correct, strings.HasPrefix(line, checkedPrefix))
	}

	return &Question{
		id:          fingerprint(prompt, answers),
		prompt:      prompt,
		correct:     correct,
		choices:     redact(answers),
		userAnswers: make([]bool, len(correct)),
	}
}

// ID returns a stable content fingerprint of the question.
func (q *Question) ID() string { return q.id }

// Prompt returns the question text.
func (q *Question) Prompt() string { return q.prompt }

// Choices returns the redacted answer block.
func (q *Question) Choices() string { return q.choices }

// CorrectAnswers returns a copy of the correct answer vector.
func (q *Question) CorrectAnswers() []bool {
	return append([]bool(nil), q.correct...)
}

// UserAnswers returns a copy of the user's current selections.
func (q *Question) UserAnswers() []bool {
	return append([]bool(nil), q.userAnswers...)
}

// SetUserAnswers replaces the user's selections. The vector must have exactly
// one entry per choice; otherwise ErrInvalidState is returned and the stored
// selections are left untouched.
func (q *Question) SetUserAnswers(answers []bool) error {
	if len(answers) != len(q.correct) {
		return fmt.Errorf("%w: got %d answers for %d choices", ErrInvalidState, len(answers), len(q.correct))
	}
	q.userAnswers = append(q.userAnswers[:0], answers...)
	return nil
}

// Errors counts the choices where the user's selection differs from the
// correct answer.
func (q *Question) Errors() (int, error) {
	if len(q.userAnswers) != len(q.correct) {
		return 0, fmt.Errorf("%w: question %s has %d answers for %d choices",
			ErrInvalidState, q.id, len(q.userAnswers), len(q.correct))
	}

	n := 0
	for i, want := range q.correct {
		if q.userAnswers[i] != want {
			n++
		}
	}
	return n, nil
}

// redact clears the checked marker on every line that NewQuestion counts as
// a correct choice, including "* [x]" at end of line or before a tab.
func redact(answers string) string {
	lines := strings.Split(strings.ReplaceAll(answers, checkedMarker, uncheckedMark), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if !strings.HasPrefix(trimmed, checkedPrefix) {
			continue
		}
		x := len(line) - len(trimmed) + len(checkboxPrefix)
		lines[i] = line[:x] + " " + line[x+1:]
	}
	return strings.Join(lines, "\n")
}

func fingerprint(prompt, answers string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(answers))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// clone copies q with cleared selections. The correct answer vector is
// never mutated after construction and is shared.
func (q *Question) clone() *Question {
	return &Question{
		id:          q.id,
		prompt:      q.prompt,
		correct:     q.correct,
		choices:     q.choices,
		userAnswers: make([]bool, len(q.correct)),
	}
}
