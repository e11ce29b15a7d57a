// Package quiz holds the question corpus and quiz session core: parsing
// question/answer blocks out of an AsciiDoc document, the question entity,
// the bank and the randomized session with its navigation and scoring.
package quiz

import (
	"regexp"
	"strings"
)

// blockPattern matches a [TIP] prompt block immediately followed by an
// [IMPORTANT] answer block. Both bodies are non-greedy, so the first "===="
// line after the opening delimiter closes the block.
var blockPattern = regexp.MustCompile(`(?m)^\[TIP\]\s^====\s([\s\S]+?)\s^====\s*^\[IMPORTANT\]\s^====\s([\s\S]+?)^====`)

// Block is one raw prompt/answer pair extracted from a document.
type Block struct {
	Prompt  string
	Answers string
}

// Parse extracts every prompt/answer block pair from doc, in document order.
// Content that does not match the paired block layout is ignored; a document
// without any pair yields an empty slice.
func Parse(doc string) []Block {
	doc = normalizeNewlines(doc)

	matches := blockPattern.FindAllStringSubmatch(doc, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, Block{Prompt: m[1], Answers: m[2]})
	}
	return blocks
}

// ParseQuestions parses doc and builds a Question for every block pair.
func ParseQuestions(doc string) []*Question {
	blocks := Parse(doc)
	questions := make([]*Question, 0, len(blocks))
	for _, b := range blocks {
		questions = append(questions, NewQuestion(b.Prompt, b.Answers))
	}
	return questions
}

// normalizeNewlines rewrites CRLF and bare CR line endings to LF. The
// pattern anchors on "^" after a single whitespace rune, which a "\r\n"
// pair would break.
func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
