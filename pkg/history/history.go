// Package history builds the answered-questions history: it joins a user's persisted
// answers with the question bodies from the exam API, then filters and pages the result.
package history

import (
	"context"
	"errors"
	"sort"
	"sync"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrSessionRequired = errors.New("history requires an authenticated session")

type Entry struct {
	QuestionID string           `json:"questionId"`
	Question   enemapi.Question `json:"question"`
	Answer     answers.Answer   `json:"userAnswer"`
}

// ChosenLetter is the display letter of the alternative the user picked.
func (e Entry) ChosenLetter() string {
	i := e.Answer.AnswerIndex
	if i >= 0 && i < len(e.Question.Alternatives) && e.Question.Alternatives[i].Letter != "" {
		return e.Question.Alternatives[i].Letter
	}
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

// AnswerSource returns the server-backed answers of the current user.
type AnswerSource interface {
	RemoteAnswers(ctx context.Context) (answers.Answers, error)
}

type AnswerSourceFunc func(ctx context.Context) (answers.Answers, error)

func (f AnswerSourceFunc) RemoteAnswers(ctx context.Context) (answers.Answers, error) { return f(ctx) }

// QuestionSource is satisfied by *enemapi.Client and by the cached exam service.
type QuestionSource interface {
	GetQuestionsBatch(ctx context.Context, year int, indices []int) ([]enemapi.Question, error)
	GetQuestion(ctx context.Context, year, index int) (*enemapi.Question, error)
}

type Loader struct {
	Answers   AnswerSource
	Questions QuestionSource
	// Concurrency bounds the number of years fetched at once. Defaults to 4.
	Concurrency int
}

// Load returns the merged history sorted by answeredAt, most recent first. Questions
// that cannot be loaded are dropped instead of failing the whole history.
func (l *Loader) Load(ctx context.Context) ([]Entry, error) {
	all, err := l.Answers.RemoteAnswers(ctx)
	if errors.Is(err, answers.ErrNotLoggedIn) {
		return nil, ErrSessionRequired
	}
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return []Entry{}, nil
	}

	questions := FetchQuestions(ctx, l.Questions, keys(all), l.Concurrency)
	return Merge(all, questions), nil
}

func keys(all answers.Answers) []string {
	out := make([]string, 0, len(all))
	for id := range all {
		out = append(out, id)
	}
	return out
}

// FetchQuestions groups ids by year and fetches each year with one batch call. When a
// batch fails, or leaves some questions out, those are fetched one by one. Ids that are
// malformed or keep failing are absent from the result.
func FetchQuestions(ctx context.Context, src QuestionSource, ids []string, concurrency int) map[string]enemapi.Question {
	byYear := make(map[int][]int)
	for _, id := range ids {
		year, index, err := enemapi.ParseQuestionID(id)
		if err != nil {
			logger.Log.Warn("skipping malformed question id", zap.String("questionId", id))
			continue
		}
		byYear[year] = append(byYear[year], index)
	}

	if concurrency <= 0 {
		concurrency = 4
	}

	var mu sync.Mutex
	out := make(map[string]enemapi.Question, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for year, indices := range byYear {
		sort.Ints(indices)
		g.Go(func() error {
			found := fetchYear(gctx, src, year, indices)
			mu.Lock()
			for id, q := range found {
				out[id] = q
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return out
}

func fetchYear(ctx context.Context, src QuestionSource, year int, indices []int) map[string]enemapi.Question {
	found := make(map[string]enemapi.Question, len(indices))
	wanted := make(map[int]bool, len(indices))
	for _, i := range indices {
		wanted[i] = true
	}

	batch, err := src.GetQuestionsBatch(ctx, year, indices)
	if err != nil {
		logger.Log.Warn("batch question fetch failed, fetching one by one",
			zap.Int("year", year), zap.Error(err))
	}
	for _, q := range batch {
		if q.Year == 0 {
			q.Year = year
		}
		if wanted[q.Index] && q.Year == year {
			found[q.ID()] = q
		}
	}

	for _, index := range indices {
		id := enemapi.QuestionID(year, index)
		if _, ok := found[id]; ok {
			continue
		}
		q, err := src.GetQuestion(ctx, year, index)
		if err != nil {
			logger.Log.Warn("failed to load question", zap.String("questionId", id), zap.Error(err))
			continue
		}
		found[id] = *q
	}
	return found
}

// Merge pairs answers with their questions, dropping answers without a question, and
// sorts by answeredAt descending.
func Merge(all answers.Answers, questions map[string]enemapi.Question) []Entry {
	entries := make([]Entry, 0, len(all))
	for id, a := range all {
		q, ok := questions[id]
		if !ok {
			continue
		}
		entries = append(entries, Entry{QuestionID: id, Question: q, Answer: a})
	}
	SortByAnsweredAt(entries)
	return entries
}

func SortByAnsweredAt(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ai, aj := entries[i].Answer.AnsweredAt, entries[j].Answer.AnsweredAt
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return entries[i].QuestionID < entries[j].QuestionID
	})
}
