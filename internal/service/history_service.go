package service

import (
	"context"
	"encoding/json"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/history"
	"fmt"
	"time"
)

// HistoryService runs the history loader for a signed-in user on the server, with the
// cached exam service as question source.
type HistoryService struct {
	Answers     *UserAnswerService
	Questions   history.QuestionSource
	Storage     *StorageService
	PageSize    int
	Concurrency int
}

func NewHistoryService(answers *UserAnswerService, questions history.QuestionSource, storage *StorageService, pageSize, concurrency int) *HistoryService {
	if pageSize <= 0 {
		pageSize = history.DefaultPageSize
	}
	return &HistoryService{
		Answers:     answers,
		Questions:   questions,
		Storage:     storage,
		PageSize:    pageSize,
		Concurrency: concurrency,
	}
}

func (s *HistoryService) Load(ctx context.Context, userID string) ([]history.Entry, error) {
	loader := history.Loader{
		Answers:     history.AnswerSourceFunc(s.Answers.ForUser(userID)),
		Questions:   s.Questions,
		Concurrency: s.Concurrency,
	}
	return loader.Load(ctx)
}

func (s *HistoryService) List(ctx context.Context, userID string, f history.Filter, page, pageSize int) (history.Page, error) {
	entries, err := s.Load(ctx, userID)
	if err != nil {
		return history.Page{}, err
	}
	if pageSize <= 0 {
		pageSize = s.PageSize
	}
	return history.Paginate(history.Apply(entries, f), page, pageSize), nil
}

func (s *HistoryService) Stats(ctx context.Context, userID string) (history.Stats, error) {
	entries, err := s.Load(ctx, userID)
	if err != nil {
		return history.Stats{}, err
	}
	return history.ComputeStats(entries), nil
}

type HistoryExport struct {
	UserID     string          `json:"userId"`
	ExportedAt time.Time       `json:"exportedAt"`
	Stats      history.Stats   `json:"stats"`
	Entries    []history.Entry `json:"entries"`
}

type ExportResult struct {
	URL     string    `json:"url"`
	Key     string    `json:"key"`
	Count   int       `json:"count"`
	Created time.Time `json:"createdAt"`
}

// Export writes the whole merged history as JSON to object storage.
func (s *HistoryService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	if s.Storage == nil {
		return nil, util.ErrExportDisabled
	}
	entries, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	data, err := json.MarshalIndent(HistoryExport{
		UserID:     userID,
		ExportedAt: now,
		Stats:      history.ComputeStats(entries),
		Entries:    entries,
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/history/%s/%s.json", userID, now.Format("20060102T150405Z"))
	url, err := s.Storage.UploadBytes(ctx, key, data, util.MimeJSON)
	if err != nil {
		return nil, fmt.Errorf("upload history export: %w", err)
	}
	return &ExportResult{URL: url, Key: key, Count: len(entries), Created: now}, nil
}
