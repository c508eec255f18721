package history

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusAll       Status = "all"
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
)

// ParseStatus accepts the English names and the Portuguese labels of the web app.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todas":
		return StatusAll, nil
	case "correct", "corretas", "correta":
		return StatusCorrect, nil
	case "incorrect", "incorretas", "incorreta":
		return StatusIncorrect, nil
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

type Filter struct {
	Status     Status `json:"status"`
	Discipline string `json:"discipline,omitempty"`
}

func (f Filter) Match(e Entry) bool {
	switch f.Status {
	case StatusCorrect:
		if !e.Answer.IsCorrect {
			return false
		}
	case StatusIncorrect:
		if e.Answer.IsCorrect {
			return false
		}
	}
	if f.Discipline != "" && !strings.EqualFold(f.Discipline, e.Question.Discipline) {
		return false
	}
	return true
}

// Apply keeps the order of entries.
func Apply(entries []Entry, f Filter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
