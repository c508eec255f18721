package model

import (
	"time"

	"enem_quiz_backend/pkg/answers"
)

// UserAnswer is a user's last submitted choice for one question. AnswerIndex is the
// position in the question's alternatives, not its letter. IsCorrect is decided when
// the answer is submitted and never recomputed.
// swagger:model
type UserAnswer struct {
	UUIDBase
	UserID      string `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_question" json:"userId"`
	QuestionID  string `gorm:"size:32;not null;uniqueIndex:idx_user_question" json:"questionId"`
	AnswerIndex int    `gorm:"not null" json:"answerIndex"`
	IsCorrect   bool   `gorm:"not null" json:"isCorrect"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}

// View is the shape handed to clients; UpdatedAt is exposed as answeredAt.
func (a *UserAnswer) View() answers.Answer {
	return answers.Answer{
		AnswerIndex: a.AnswerIndex,
		IsCorrect:   a.IsCorrect,
		AnsweredAt:  a.UpdatedAt.UTC(),
	}
}

// AnswerInput is the upsert payload. Pointers tell a missing field apart from a zero
// value, so answerIndex 0 and isCorrect false are accepted.
type AnswerInput struct {
	QuestionID  *string `json:"questionId"`
	AnswerIndex *int    `json:"answerIndex"`
	IsCorrect   *bool   `json:"isCorrect"`
}

// SyncInput carries answers recorded offline, keyed by question id.
type SyncInput struct {
	Answers answers.Answers `json:"answers"`
}

type ImportRecord struct {
	QuestionID  string
	AnswerIndex int
	IsCorrect   bool
	AnsweredAt  time.Time
}
