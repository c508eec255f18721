package enemapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Discipline struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Language struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Exam struct {
	Title       string       `json:"title"`
	Year        int          `json:"year"`
	Disciplines []Discipline `json:"disciplines"`
	Languages   []Language   `json:"languages"`
}

// Alternative is one choice of a question. Letter is a display label and is not
// guaranteed to match the position in Question.Alternatives.
type Alternative struct {
	Letter    string `json:"letter"`
	Text      string `json:"text"`
	File      string `json:"file,omitempty"`
	IsCorrect bool   `json:"isCorrect"`
}

// QuestionFilter narrows a question listing. Empty fields, or "all", mean no filter.
// Language only matters for the "linguagens" discipline upstream.
type QuestionFilter struct {
	Discipline string
	Language   string
}

func (f QuestionFilter) normalized() QuestionFilter {
	clean := func(v string) string {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "all" {
			return ""
		}
		return v
	}
	return QuestionFilter{Discipline: clean(f.Discipline), Language: clean(f.Language)}
}

// Key is a stable form of the filter for cache keys, "-" standing for no filter.
func (f QuestionFilter) Key() string {
	n := f.normalized()
	d, l := n.Discipline, n.Language
	if d == "" {
		d = "-"
	}
	if l == "" {
		l = "-"
	}
	return d + ":" + l
}

type Question struct {
	Title                    string        `json:"title"`
	Index                    int           `json:"index"`
	Discipline               string        `json:"discipline"`
	Language                 string        `json:"language,omitempty"`
	Year                     int           `json:"year"`
	Context                  string        `json:"context,omitempty"`
	Files                    []string      `json:"files,omitempty"`
	CorrectAlternative       string        `json:"correctAlternative"`
	AlternativesIntroduction string        `json:"alternativesIntroduction,omitempty"`
	Alternatives             []Alternative `json:"alternatives"`
}

// ID returns the composite natural key used by answer stores.
func (q Question) ID() string {
	return QuestionID(q.Year, q.Index)
}

// CorrectIndex is the position of the first alternative flagged correct, or -1.
func (q Question) CorrectIndex() int {
	for i, a := range q.Alternatives {
		if a.IsCorrect {
			return i
		}
	}
	return -1
}

type Metadata struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type QuestionPage struct {
	Metadata  Metadata   `json:"metadata"`
	Questions []Question `json:"questions"`
}

var ErrInvalidQuestionID = errors.New("invalid question id")

func QuestionID(year, index int) string {
	return fmt.Sprintf("%d-%d", year, index)
}

// ParseQuestionID splits "2023-5" into its year and index.
func ParseQuestionID(id string) (year, index int, err error) {
	y, i, ok := strings.Cut(id, "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidQuestionID, id)
	}
	year, err = strconv.Atoi(y)
	if err != nil || year <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidQuestionID, id)
	}
	index, err = strconv.Atoi(i)
	if err != nil || index <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidQuestionID, id)
	}
	return year, index, nil
}
