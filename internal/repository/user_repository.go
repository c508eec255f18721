package repository

import (
	"context"
	"enem_quiz_backend/internal/model"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	return &user, err
}

// FindOrCreateByEmail returns the user owning email, creating a verified account on
// first sign-in, and stamps the login time.
func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now()

	var user model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = model.User{
				Email:         email,
				Name:          strings.SplitN(email, "@", 2)[0],
				EmailVerified: true,
				LastLogin:     &now,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.LastLogin = &now
		user.EmailVerified = true
		return tx.Model(&user).Updates(map[string]interface{}{
			"last_login":     now,
			"email_verified": true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
