package service

import (
	"context"
	"encoding/json"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/logger"
	"enem_quiz_backend/pkg/monitoring"
	"enem_quiz_backend/pkg/tracing"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ExamService serves exam content from the upstream API with a redis read-through
// cache. Exam content never changes once published, so only the TTL bounds staleness.
// A nil Redis disables caching; cache failures fall through to upstream.
type ExamService struct {
	Client *enemapi.Client
	Redis  *redis.Client
	ttl    atomic.Int64
}

func NewExamService(client *enemapi.Client, rdb *redis.Client, ttl time.Duration) *ExamService {
	s := &ExamService{Client: client, Redis: rdb}
	s.SetCacheTTL(ttl)
	return s
}

// SetCacheTTL applies to entries written from now on.
func (s *ExamService) SetCacheTTL(ttl time.Duration) {
	s.ttl.Store(int64(ttl))
}

func (s *ExamService) CacheTTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

func questionKey(year, index int) string {
	return fmt.Sprintf("%sq:%d:%d", util.KeyExamCache, year, index)
}

func (s *ExamService) cacheGet(ctx context.Context, op, key string, out interface{}) bool {
	if s.Redis == nil {
		return false
	}
	raw, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Exam cache read failed", zap.String("key", key), zap.Error(err))
		}
		monitoring.ExamCache.WithLabelValues(op, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Log.Warn("Exam cache entry corrupt", zap.String("key", key), zap.Error(err))
		monitoring.ExamCache.WithLabelValues(op, "miss").Inc()
		return false
	}
	monitoring.ExamCache.WithLabelValues(op, "hit").Inc()
	return true
}

func (s *ExamService) cacheSet(ctx context.Context, key string, v interface{}) {
	ttl := s.CacheTTL()
	if s.Redis == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.Log.Warn("Exam cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// upstream wraps a call to the exam API in a span and records its latency.
func upstream[T any](ctx context.Context, op string, call func(context.Context) (T, error), attrs ...attribute.KeyValue) (T, error) {
	ctx, span := tracing.Start(ctx, "examapi."+op, attrs...)
	start := time.Now()
	v, err := call(ctx)
	monitoring.ExamUpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	tracing.End(span, err)
	return v, err
}

func (s *ExamService) ListExams(ctx context.Context) ([]enemapi.Exam, error) {
	key := util.KeyExamCache + "exams"
	var exams []enemapi.Exam
	if s.cacheGet(ctx, "list_exams", key, &exams) {
		return exams, nil
	}
	exams, err := upstream(ctx, "list_exams", s.Client.ListExams)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, exams)
	return exams, nil
}

func (s *ExamService) GetExam(ctx context.Context, year int) (*enemapi.Exam, error) {
	key := fmt.Sprintf("%sexam:%d", util.KeyExamCache, year)
	var exam enemapi.Exam
	if s.cacheGet(ctx, "get_exam", key, &exam) {
		return &exam, nil
	}
	got, err := upstream(ctx, "get_exam", func(ctx context.Context) (*enemapi.Exam, error) {
		return s.Client.GetExam(ctx, year)
	}, attribute.Int("exam.year", year))
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, got)
	return got, nil
}

func (s *ExamService) ListQuestions(ctx context.Context, year, limit, offset int, filter enemapi.QuestionFilter) (*enemapi.QuestionPage, error) {
	key := fmt.Sprintf("%spage:%d:%d:%d:%s", util.KeyExamCache, year, limit, offset, filter.Key())
	var page enemapi.QuestionPage
	if s.cacheGet(ctx, "list_questions", key, &page) {
		return &page, nil
	}
	got, err := upstream(ctx, "list_questions", func(ctx context.Context) (*enemapi.QuestionPage, error) {
		return s.Client.ListQuestions(ctx, year, limit, offset, filter)
	}, attribute.Int("exam.year", year), attribute.String("exam.filter", filter.Key()))
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, got)
	for _, q := range got.Questions {
		s.cacheSet(ctx, questionKey(year, q.Index), q)
	}
	return got, nil
}

func (s *ExamService) GetQuestion(ctx context.Context, year, index int) (*enemapi.Question, error) {
	key := questionKey(year, index)
	var q enemapi.Question
	if s.cacheGet(ctx, "get_question", key, &q) {
		return &q, nil
	}
	got, err := upstream(ctx, "get_question", func(ctx context.Context) (*enemapi.Question, error) {
		return s.Client.GetQuestion(ctx, year, index)
	}, attribute.Int("exam.year", year), attribute.Int("question.index", index))
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, got)
	return got, nil
}

// GetQuestionsBatch serves cached questions individually and asks upstream only for the
// rest, in one batch call. Results are ordered by index.
func (s *ExamService) GetQuestionsBatch(ctx context.Context, year int, indices []int) ([]enemapi.Question, error) {
	out := make([]enemapi.Question, 0, len(indices))
	missing := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		var q enemapi.Question
		if s.cacheGet(ctx, "batch", questionKey(year, idx), &q) {
			out = append(out, q)
			continue
		}
		missing = append(missing, idx)
	}

	if len(missing) > 0 {
		fetched, err := upstream(ctx, "batch", func(ctx context.Context) ([]enemapi.Question, error) {
			return s.Client.GetQuestionsBatch(ctx, year, missing)
		}, attribute.Int("exam.year", year), attribute.Int("batch.size", len(missing)))
		if err != nil {
			return nil, err
		}
		for _, q := range fetched {
			s.cacheSet(ctx, questionKey(year, q.Index), q)
		}
		out = append(out, fetched...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
