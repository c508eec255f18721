// Package practice holds the per-question interaction state: picking an alternative,
// checking it and showing whether it was right.
package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
)

type State int

const (
	Unanswered State = iota
	Submitting
	Answered
)

func (s State) String() string {
	switch s {
	case Unanswered:
		return "unanswered"
	case Submitting:
		return "submitting"
	case Answered:
		return "answered"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoSelection  = errors.New("no alternative selected")
	ErrOutOfRange   = errors.New("alternative out of range")
	ErrSubmitting   = errors.New("answer is being submitted")
	ErrNotAnswered  = errors.New("question has not been answered")
	ErrLocked       = errors.New("question already answered, retry first")
	ErrNoQuestionID = errors.New("question has no year/index")
)

// Saver persists a checked answer. *answers.Service satisfies it.
type Saver interface {
	SaveAnswer(ctx context.Context, questionID string, answerIndex int, isCorrect bool) (answers.Answer, error)
}

type Card struct {
	question enemapi.Question

	mu       sync.Mutex
	state    State
	selected int
	answer   *answers.Answer
}

// NewCard starts Answered when a stored answer is supplied, otherwise Unanswered.
func NewCard(q enemapi.Question, stored *answers.Answer) *Card {
	c := &Card{question: q, state: Unanswered, selected: -1}
	if stored != nil {
		a := *stored
		c.answer = &a
		c.selected = a.AnswerIndex
		c.state = Answered
	}
	return c
}

func (c *Card) Question() enemapi.Question { return c.question }

func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the chosen alternative index, or -1.
func (c *Card) Selected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Card) Answer() (answers.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.answer == nil {
		return answers.Answer{}, false
	}
	return *c.answer, true
}

func (c *Card) Select(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Submitting:
		return ErrSubmitting
	case Answered:
		return ErrLocked
	}
	if index < 0 || index >= len(c.question.Alternatives) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	c.selected = index
	return nil
}

// Check submits the current selection. Correctness is decided here, from the
// alternative chosen, and stored with the answer. If the saver fails the card goes back
// to Unanswered with the selection kept.
func (c *Card) Check(ctx context.Context, saver Saver) (answers.Answer, error) {
	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return answers.Answer{}, ErrSubmitting
	case Answered:
		c.mu.Unlock()
		return answers.Answer{}, ErrLocked
	}
	if c.selected < 0 {
		c.mu.Unlock()
		return answers.Answer{}, ErrNoSelection
	}
	if c.question.Year == 0 || c.question.Index == 0 {
		c.mu.Unlock()
		return answers.Answer{}, ErrNoQuestionID
	}
	index := c.selected
	correct := c.question.Alternatives[index].IsCorrect
	c.state = Submitting
	c.mu.Unlock()

	answer, err := saver.SaveAnswer(ctx, c.question.ID(), index, correct)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Unanswered
		return answers.Answer{}, err
	}
	c.answer = &answer
	c.state = Answered
	return answer, nil
}

// Retry clears the selection so the question can be answered again. The stored answer
// stays until the next Check overwrites it.
func (c *Card) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Answered {
		return ErrNotAnswered
	}
	c.state = Unanswered
	c.selected = -1
	c.answer = nil
	return nil
}

type AlternativeFeedback struct {
	Letter    string
	Text      string
	Chosen    bool
	IsCorrect bool
}

// Feedback describes every alternative relative to the recorded answer. Chosen marks the
// stored answerIndex; IsCorrect is the question's own flag, so a chosen alternative that
// is not correct is the one to show as wrong.
func (c *Card) Feedback() ([]AlternativeFeedback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Answered || c.answer == nil {
		return nil, ErrNotAnswered
	}
	out := make([]AlternativeFeedback, len(c.question.Alternatives))
	for i, alt := range c.question.Alternatives {
		letter := alt.Letter
		if letter == "" {
			letter = Letter(i)
		}
		out[i] = AlternativeFeedback{
			Letter:    letter,
			Text:      alt.Text,
			Chosen:    i == c.answer.AnswerIndex,
			IsCorrect: alt.IsCorrect,
		}
	}
	return out, nil
}

// Letter maps a zero-based alternative index to A, B, C...
func Letter(index int) string {
	if index < 0 || index >= 26 {
		return "?"
	}
	return string(rune('A' + index))
}

// IndexOfLetter is the inverse of Letter, accepting either case.
func IndexOfLetter(letter string) (int, bool) {
	if len(letter) != 1 {
		return 0, false
	}
	ch := letter[0]
	if ch >= 'a' && ch <= 'z' {
		ch -= 'a' - 'A'
	}
	if ch < 'A' || ch > 'Z' {
		return 0, false
	}
	return int(ch - 'A'), true
}
