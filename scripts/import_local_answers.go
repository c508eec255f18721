// Imports answers saved by the terminal client (or exported as yaml) into a user account.
// The merge follows the sync rules: an answer only replaces the server one when it is newer.
//
// Usage: go run scripts/import_local_answers.go -email ana@example.com -file ~/.config/enemcli/answers.json

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/repository"
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/database"
	"enem_quiz_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func readAnswers(path string) (answers.Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		// yaml goes through json so the field names match the json tags
		var generic map[string]interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		if data, err = json.Marshal(generic); err != nil {
			return nil, err
		}
	}
	var all answers.Answers
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func main() {
	configDir := flag.String("config", "configs", "config directory")
	email := flag.String("email", "", "account e-mail")
	file := flag.String("file", "", "answers file (json or yaml)")
	flag.Parse()

	if *email == "" || *file == "" {
		log.Fatal("-email and -file are required")
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	local, err := readAnswers(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	user, err := repository.NewUserRepository(db).FindOrCreateByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("user: %v", err)
	}
	svc := service.NewUserAnswerService(repository.NewUserAnswerRepository(db))
	res, err := svc.Sync(ctx, user.ID, local)
	if err != nil {
		log.Fatalf("import: %v", err)
	}

	logger.Log.Info("answers imported",
		zap.String("userId", user.ID),
		zap.Int("read", len(local)),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	logger.Log.Sync()
}
