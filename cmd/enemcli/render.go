package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/history"
	"enem_quiz_backend/pkg/practice"

	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q (text, json, yaml)", format)
}

// writeStructured prints v as json or yaml. yaml goes through the json form so both
// outputs use the same field names.
func writeStructured(w io.Writer, format string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == formatJSON {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func mark(correct bool) string {
	if correct {
		return "certa"
	}
	return "errada"
}

func printExams(w io.Writer, exams []enemapi.Exam) {
	for _, e := range exams {
		fmt.Fprintf(w, "%d  %s  (%d disciplinas)\n", e.Year, e.Title, len(e.Disciplines))
	}
}

func printQuestionPage(w io.Writer, page *enemapi.QuestionPage, answered answers.Answers) {
	if len(page.Questions) == 0 {
		fmt.Fprintln(w, "Nenhuma questão encontrada.")
		return
	}
	for _, q := range page.Questions {
		status := ""
		if a, ok := answered[q.ID()]; ok {
			status = "  [" + mark(a.IsCorrect) + "]"
		}
		fmt.Fprintf(w, "%3d  %-12s %s%s\n", q.Index, q.Discipline, q.Title, status)
	}
	m := page.Metadata
	fmt.Fprintf(w, "-- %d-%d de %d\n", m.Offset+1, m.Offset+len(page.Questions), m.Total)
}

func printQuestion(w io.Writer, q enemapi.Question) {
	fmt.Fprintf(w, "%s\n", q.Title)
	if q.Context != "" {
		fmt.Fprintf(w, "\n%s\n", q.Context)
	}
	if q.AlternativesIntroduction != "" {
		fmt.Fprintf(w, "\n%s\n", q.AlternativesIntroduction)
	}
	fmt.Fprintln(w)
	for i, alt := range q.Alternatives {
		letter := alt.Letter
		if letter == "" {
			letter = practice.Letter(i)
		}
		fmt.Fprintf(w, "  %s) %s\n", letter, alt.Text)
	}
}

func printFeedback(w io.Writer, fb []practice.AlternativeFeedback) {
	for _, f := range fb {
		tag := "   "
		switch {
		case f.IsCorrect:
			tag = "[+]"
		case f.Chosen:
			tag = "[x]"
		}
		fmt.Fprintf(w, "%s %s) %s\n", tag, f.Letter, f.Text)
	}
}

func printAnswers(w io.Writer, all answers.Answers, source answers.Source) {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := all[id]
		fmt.Fprintf(w, "%-10s %s  %-6s %s\n", id, practice.Letter(a.AnswerIndex), mark(a.IsCorrect),
			a.AnsweredAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "-- %d respostas (%s)\n", len(all), source)
}

func printHistoryPage(w io.Writer, p history.Page, f history.Filter) {
	label := string(f.Status)
	if f.Discipline != "" {
		label += ", " + f.Discipline
	}
	if p.Total == 0 {
		fmt.Fprintf(w, "Histórico (%s): nenhuma questão\n", label)
		return
	}
	fmt.Fprintf(w, "Histórico (%s), página %d de %d, %d questões\n", label, p.Page, p.TotalPages, p.Total)
	for _, e := range p.Items {
		fmt.Fprintf(w, "  %-10s %-12s %s  %-6s %s\n", e.QuestionID, e.Question.Discipline,
			e.ChosenLetter(), mark(e.Answer.IsCorrect), e.Answer.AnsweredAt.Local().Format("2006-01-02 15:04"))
	}
}

func printStats(w io.Writer, s history.Stats) {
	fmt.Fprintf(w, "Respondidas: %d  Certas: %d  Aproveitamento: %.1f%%\n", s.Answered, s.Correct, s.Accuracy)
	names := make([]string, 0, len(s.ByDiscipline))
	for name := range s.ByDiscipline {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := s.ByDiscipline[name]
		fmt.Fprintf(w, "  %-12s %3d/%-3d %5.1f%%\n", name, d.Correct, d.Answered, d.Accuracy)
	}
}
