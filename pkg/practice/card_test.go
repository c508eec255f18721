package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
)

func sampleQuestion() enemapi.Question {
	return enemapi.Question{
		Title: "Questão 5 - ENEM 2023",
		Index: 5,
		Year:  2023,
		Alternatives: []enemapi.Alternative{
			{Letter: "A", Text: "um"},
			{Letter: "B", Text: "dois", IsCorrect: true},
			{Letter: "C", Text: "três"},
		},
	}
}

type blockingSaver struct {
	release chan struct{}
	started chan struct{}
}

func (b *blockingSaver) SaveAnswer(_ context.Context, _ string, idx int, correct bool) (answers.Answer, error) {
	close(b.started)
	<-b.release
	return answers.Answer{AnswerIndex: idx, IsCorrect: correct, AnsweredAt: time.Now()}, nil
}

type failingSaver struct{}

func (failingSaver) SaveAnswer(context.Context, string, int, bool) (answers.Answer, error) {
	return answers.Answer{}, errors.New("unexpected")
}

func TestCardCheckAndRetry(t *testing.T) {
	svc := answers.NewService(nil, nil, answers.NewLocalStore(answers.NewMemoryKV()))
	card := NewCard(sampleQuestion(), nil)
	ctx := context.Background()

	if card.State() != Unanswered {
		t.Fatalf("expected unanswered, got %s", card.State())
	}
	if _, err := card.Check(ctx, svc); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if err := card.Select(7); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := card.Select(2); err != nil {
		t.Fatalf("select: %v", err)
	}

	a, err := card.Check(ctx, svc)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if a.AnswerIndex != 2 || a.IsCorrect {
		t.Fatalf("unexpected answer %+v", a)
	}
	if card.State() != Answered {
		t.Fatalf("expected answered, got %s", card.State())
	}
	if err := card.Select(1); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	fb, err := card.Feedback()
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !fb[2].Chosen || fb[2].IsCorrect || !fb[1].IsCorrect || fb[1].Chosen {
		t.Fatalf("unexpected feedback %+v", fb)
	}

	if err := card.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if card.State() != Unanswered || card.Selected() != -1 {
		t.Fatalf("retry should reset selection, state=%s selected=%d", card.State(), card.Selected())
	}
	if _, ok := svc.Local().Get("2023-5"); !ok {
		t.Fatal("retry must not delete the persisted answer")
	}

	card.Select(1)
	a, err = card.Check(ctx, svc)
	if err != nil || !a.IsCorrect {
		t.Fatalf("second check: %+v %v", a, err)
	}
	if stored, _ := svc.Local().Get("2023-5"); stored.AnswerIndex != 1 {
		t.Fatalf("second check should overwrite, got %+v", stored)
	}
}

func TestCardStartsAnsweredWithStoredAnswer(t *testing.T) {
	stored := &answers.Answer{AnswerIndex: 1, IsCorrect: true}
	card := NewCard(sampleQuestion(), stored)
	if card.State() != Answered || card.Selected() != 1 {
		t.Fatalf("expected answered with selection 1, got %s %d", card.State(), card.Selected())
	}
	if err := card.Retry(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := card.Retry(); !errors.Is(err, ErrNotAnswered) {
		t.Fatalf("expected ErrNotAnswered, got %v", err)
	}
}

func TestCardRejectsConcurrentCheck(t *testing.T) {
	card := NewCard(sampleQuestion(), nil)
	card.Select(0)
	saver := &blockingSaver{release: make(chan struct{}), started: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := card.Check(context.Background(), saver)
		done <- err
	}()
	<-saver.started

	if card.State() != Submitting {
		t.Fatalf("expected submitting, got %s", card.State())
	}
	if _, err := card.Check(context.Background(), saver); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", err)
	}
	if err := card.Select(1); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("selection must be disabled while submitting, got %v", err)
	}

	close(saver.release)
	if err := <-done; err != nil {
		t.Fatalf("check: %v", err)
	}
	if card.State() != Answered {
		t.Fatalf("expected answered, got %s", card.State())
	}
}

func TestCardSaverErrorKeepsSelection(t *testing.T) {
	card := NewCard(sampleQuestion(), nil)
	card.Select(1)
	if _, err := card.Check(context.Background(), failingSaver{}); err == nil {
		t.Fatal("expected error")
	}
	if card.State() != Unanswered || card.Selected() != 1 {
		t.Fatalf("expected unanswered with selection kept, got %s %d", card.State(), card.Selected())
	}
}

func TestLetters(t *testing.T) {
	if Letter(0) != "A" || Letter(4) != "E" || Letter(-1) != "?" {
		t.Fatal("unexpected letters")
	}
	if i, ok := IndexOfLetter("c"); !ok || i != 2 {
		t.Fatalf("IndexOfLetter(c) = %d %v", i, ok)
	}
	if _, ok := IndexOfLetter("1"); ok {
		t.Fatal("digits are not letters")
	}
}
