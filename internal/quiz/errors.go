package quiz

import "errors"

var (
	// ErrSourceUnavailable means the question document could not be retrieved.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrInsufficientQuestions means a session cannot be drawn from the bank.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrIndexOutOfRange means an index outside [0, len(selected)).
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrInvalidState means an answer vector does not match its question.
	ErrInvalidState = errors.New("invalid answer state")
)
