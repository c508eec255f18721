package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/model"
	"enem_quiz_backend/pkg/database"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "repo.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserAnswerUpsertOverwrites(t *testing.T) {
	repo := NewUserAnswerRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "u1", "2023-5", 0, false)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, "u1", "2023-5", 3, true)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same row, got %s and %s", first.ID, second.ID)
	}
	if second.AnswerIndex != 3 || !second.IsCorrect {
		t.Fatalf("expected overwritten values, got %+v", second)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Fatalf("updatedAt moved backwards: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}

	if _, err := repo.Upsert(ctx, "u2", "2023-5", 1, false); err != nil {
		t.Fatalf("other user: %v", err)
	}
	list, err := repo.FindByUser(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one row for u1, got %d (%v)", len(list), err)
	}
	if n, _ := repo.CountByUser(ctx, "u2"); n != 1 {
		t.Fatalf("expected one row for u2, got %d", n)
	}
}

func TestImportNewer(t *testing.T) {
	repo := NewUserAnswerRepository(newTestDB(t))
	ctx := context.Background()

	existing, err := repo.Upsert(ctx, "u1", "2022-1", 1, true)
	if err != nil {
		t.Fatal(err)
	}

	older := existing.UpdatedAt.Add(-time.Hour)
	newer := existing.UpdatedAt.Add(time.Hour)
	imported, skipped, err := repo.ImportNewer(ctx, "u1", []model.ImportRecord{
		{QuestionID: "2022-1", AnswerIndex: 4, IsCorrect: false, AnsweredAt: older},
		{QuestionID: "2022-2", AnswerIndex: 2, IsCorrect: true, AnsweredAt: older},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported != 1 || skipped != 1 {
		t.Fatalf("expected 1 imported 1 skipped, got %d %d", imported, skipped)
	}
	kept, _ := repo.Find(ctx, "u1", "2022-1")
	if kept.AnswerIndex != 1 {
		t.Fatalf("older local answer must not overwrite, got %+v", kept)
	}
	added, _ := repo.Find(ctx, "u1", "2022-2")
	if !added.UpdatedAt.Equal(older) {
		t.Fatalf("imported answer should keep its timestamp, got %v want %v", added.UpdatedAt, older)
	}

	imported, _, err = repo.ImportNewer(ctx, "u1", []model.ImportRecord{
		{QuestionID: "2022-1", AnswerIndex: 4, IsCorrect: false, AnsweredAt: newer},
	})
	if err != nil || imported != 1 {
		t.Fatalf("newer import: %d %v", imported, err)
	}
	replaced, _ := repo.Find(ctx, "u1", "2022-1")
	if replaced.AnswerIndex != 4 || replaced.IsCorrect {
		t.Fatalf("newer local answer should win, got %+v", replaced)
	}
}

func TestFindOrCreateByEmail(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	u, err := repo.FindOrCreateByEmail(ctx, " Aluno@Example.com ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "aluno@example.com" || u.Name != "aluno" || !u.EmailVerified || u.LastLogin == nil {
		t.Fatalf("unexpected user %+v", u)
	}

	again, err := repo.FindOrCreateByEmail(ctx, "aluno@example.com")
	if err != nil || again.ID != u.ID {
		t.Fatalf("expected same user, got %+v %v", again, err)
	}
	byID, err := repo.FindByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Fatalf("find by id: %+v %v", byID, err)
	}
}
