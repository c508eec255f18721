// Package answers persists a user's answer per question. A Service picks, per call,
// between the server-backed RemoteStore and the LocalStore and always hands back the
// same Answer shape, so callers never branch on where an answer came from.
package answers

import "time"

// Answer is the normalized record every store produces.
type Answer struct {
	AnswerIndex int       `json:"answerIndex"`
	IsCorrect   bool      `json:"isCorrect"`
	AnsweredAt  time.Time `json:"answeredAt"`
}

func (a Answer) same(b Answer) bool {
	return a.AnswerIndex == b.AnswerIndex && a.IsCorrect == b.IsCorrect && a.AnsweredAt.Equal(b.AnsweredAt)
}

// Answers maps a question id ("<year>-<index>") to its answer.
type Answers map[string]Answer

type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// SyncResult counts what the server did with a batch of local answers. Skipped covers
// both entries older than the stored ones and malformed ones; Invalid names the latter.
type SyncResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Invalid  []string `json:"invalid,omitempty"`
}
