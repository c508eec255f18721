package repository

import (
	"context"
	"enem_quiz_backend/internal/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserAnswerRepository struct {
	DB *gorm.DB
}

func NewUserAnswerRepository(db *gorm.DB) *UserAnswerRepository {
	return &UserAnswerRepository{DB: db}
}

// Upsert creates the (userID, questionID) answer or overwrites it in place, refreshing
// updated_at. The unique index serializes concurrent writes to the same pair.
func (r *UserAnswerRepository) Upsert(ctx context.Context, userID, questionID string, answerIndex int, isCorrect bool) (*model.UserAnswer, error) {
	db := r.DB.WithContext(ctx)
	rec := &model.UserAnswer{
		UserID:      userID,
		QuestionID:  questionID,
		AnswerIndex: answerIndex,
		IsCorrect:   isCorrect,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_index", "is_correct", "updated_at"}),
	}).Create(rec).Error
	if err != nil {
		return nil, err
	}

	return r.Find(ctx, userID, questionID)
}

func (r *UserAnswerRepository) Find(ctx context.Context, userID, questionID string) (*model.UserAnswer, error) {
	var out model.UserAnswer
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&out).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserAnswerRepository) FindByUser(ctx context.Context, userID string) ([]model.UserAnswer, error) {
	var list []model.UserAnswer
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&list).Error
	return list, err
}

func (r *UserAnswerRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.UserAnswer{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

// ImportNewer writes each record unless the stored answer is at least as recent.
// Imported records keep their original answeredAt as updated_at.
func (r *UserAnswerRepository) ImportNewer(ctx context.Context, userID string, records []model.ImportRecord) (imported, skipped int, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			var existing model.UserAnswer
			findErr := tx.Where("user_id = ? AND question_id = ?", userID, rec.QuestionID).First(&existing).Error

			switch {
			case errors.Is(findErr, gorm.ErrRecordNotFound):
				row := &model.UserAnswer{
					UserID:      userID,
					QuestionID:  rec.QuestionID,
					AnswerIndex: rec.AnswerIndex,
					IsCorrect:   rec.IsCorrect,
				}
				row.CreatedAt = rec.AnsweredAt
				row.UpdatedAt = rec.AnsweredAt
				if err := tx.Create(row).Error; err != nil {
					return err
				}
				imported++
			case findErr != nil:
				return findErr
			case existing.UpdatedAt.Before(rec.AnsweredAt):
				if err := tx.Model(&existing).UpdateColumns(map[string]interface{}{
					"answer_index": rec.AnswerIndex,
					"is_correct":   rec.IsCorrect,
					"updated_at":   rec.AnsweredAt,
				}).Error; err != nil {
					return err
				}
				imported++
			default:
				skipped++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}
