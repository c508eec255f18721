package service

import (
	"context"
	"enem_quiz_backend/internal/model"
	"enem_quiz_backend/internal/repository"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/logger"
	"enem_quiz_backend/pkg/monitoring"
	"sort"
	"strings"

	"go.uber.org/zap"
)

type UserAnswerService struct {
	Repo *repository.UserAnswerRepository
}

func NewUserAnswerService(repo *repository.UserAnswerRepository) *UserAnswerService {
	return &UserAnswerService{Repo: repo}
}

// Save upserts the caller's answer for one question. Every field must be present;
// answerIndex 0 and isCorrect false are valid values.
func (s *UserAnswerService) Save(ctx context.Context, userID string, in model.AnswerInput) (*model.UserAnswer, error) {
	if userID == "" {
		return nil, util.ErrUnauthorized
	}
	if in.QuestionID == nil || strings.TrimSpace(*in.QuestionID) == "" || in.AnswerIndex == nil || in.IsCorrect == nil {
		return nil, util.ErrMissingFields
	}

	rec, err := s.Repo.Upsert(ctx, userID, strings.TrimSpace(*in.QuestionID), *in.AnswerIndex, *in.IsCorrect)
	if err != nil {
		return nil, err
	}

	result := "incorrect"
	if rec.IsCorrect {
		result = "correct"
	}
	monitoring.AnswersSaved.WithLabelValues(result).Inc()
	return rec, nil
}

// ListMap returns every answer of userID keyed by question id. Never nil.
func (s *UserAnswerService) ListMap(ctx context.Context, userID string) (answers.Answers, error) {
	if userID == "" {
		return nil, util.ErrUnauthorized
	}
	list, err := s.Repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(answers.Answers, len(list))
	for i := range list {
		out[list[i].QuestionID] = list[i].View()
	}
	return out, nil
}

// Sync imports answers recorded while signed out. An entry is written only when the
// server has none for that question or the local one is strictly newer. Entries with a
// malformed question id, a negative index or no timestamp are skipped.
func (s *UserAnswerService) Sync(ctx context.Context, userID string, local answers.Answers) (answers.SyncResult, error) {
	if userID == "" {
		return answers.SyncResult{}, util.ErrUnauthorized
	}

	var res answers.SyncResult
	records := make([]model.ImportRecord, 0, len(local))
	for id, a := range local {
		if _, _, err := enemapi.ParseQuestionID(id); err != nil || a.AnswerIndex < 0 || a.AnsweredAt.IsZero() {
			res.Skipped++
			res.Invalid = append(res.Invalid, id)
			continue
		}
		records = append(records, model.ImportRecord{
			QuestionID:  id,
			AnswerIndex: a.AnswerIndex,
			IsCorrect:   a.IsCorrect,
			AnsweredAt:  a.AnsweredAt.UTC(),
		})
	}

	sort.Strings(res.Invalid)

	imported, skipped, err := s.Repo.ImportNewer(ctx, userID, records)
	if err != nil {
		return answers.SyncResult{}, err
	}
	res.Imported += imported
	res.Skipped += skipped

	monitoring.AnswersSaved.WithLabelValues("imported").Add(float64(res.Imported))
	monitoring.AnswersSaved.WithLabelValues("skipped").Add(float64(res.Skipped))
	logger.Log.Info("Local answers synced",
		zap.String("userId", userID),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// ForUser adapts the service to history.AnswerSource for one user.
func (s *UserAnswerService) ForUser(userID string) func(ctx context.Context) (answers.Answers, error) {
	return func(ctx context.Context) (answers.Answers, error) {
		if userID == "" {
			return nil, answers.ErrNotLoggedIn
		}
		return s.ListMap(ctx, userID)
	}
}
