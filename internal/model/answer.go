package model

import "strings"

// Answer is the normalized terminal output of the pipeline. Callers may
// pattern-match on the sentinel values below, so they are fixed constants
// and already in normalized (trimmed, lower-case) form.
type Answer string

const (
	// AnswerDontKnow is returned when the retrieved data holds no answer,
	// including when no catalog record clears the relevance threshold.
	AnswerDontKnow Answer = "не знаю"

	// AnswerUnknownCategory is returned when the question could not be
	// classified into a known category.
	AnswerUnknownCategory Answer = "не удалось определить категорию"

	// AnswerUnavailable is returned when a backend stays down after all
	// retry attempts are spent.
	AnswerUnavailable Answer = "сервис временно недоступен"
)

// NormalizeAnswer trims and lower-cases a raw completion. Normalization is
// idempotent: applying it twice yields the same string.
func NormalizeAnswer(raw string) Answer {
	return Answer(strings.ToLower(strings.TrimSpace(raw)))
}

// IsSentinel reports whether the answer is one of the fixed fallback values
// rather than generated text.
func (a Answer) IsSentinel() bool {
	switch a {
	case AnswerDontKnow, AnswerUnknownCategory, AnswerUnavailable:
		return true
	default:
		return false
	}
}
