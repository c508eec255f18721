package answers

import (
	"context"

	"enem_quiz_backend/pkg/logger"

	"go.uber.org/zap"
)

// Service is the single entry point for reading and writing answers. With a session
// it goes to the remote store first and falls back to the local store on any remote
// failure; without one it only uses the local store.
type Service struct {
	sessions SessionProvider
	remote   Remote
	local    *LocalStore
}

func NewService(sessions SessionProvider, remote Remote, local *LocalStore) *Service {
	if sessions == nil {
		sessions = StaticSession(nil)
	}
	if local == nil {
		local = NewLocalStore(nil)
	}
	return &Service{sessions: sessions, remote: remote, local: local}
}

func (s *Service) Local() *LocalStore { return s.local }

// SaveAnswer always returns a well-formed answer. The error is non-nil only when the
// local write itself failed, i.e. the answer could not be kept anywhere.
func (s *Service) SaveAnswer(ctx context.Context, questionID string, answerIndex int, isCorrect bool) (Answer, error) {
	answer, _, err := s.SaveAnswerFrom(ctx, questionID, answerIndex, isCorrect)
	return answer, err
}

// SaveAnswerFrom is SaveAnswer that also reports which store kept the answer.
func (s *Service) SaveAnswerFrom(ctx context.Context, questionID string, answerIndex int, isCorrect bool) (Answer, Source, error) {
	sess := s.sessions.Session(ctx)
	if sess.LoggedIn() && s.remote != nil {
		answer, err := s.remote.Save(ctx, sess, questionID, answerIndex, isCorrect)
		if err == nil {
			return answer, SourceRemote, nil
		}
		logger.Log.Warn("remote answer save failed, keeping it locally",
			zap.String("questionId", questionID), zap.Error(err))
	}

	answer, err := s.local.Save(questionID, answerIndex, isCorrect)
	if err != nil {
		logger.Log.Error("local answer save failed", zap.String("questionId", questionID), zap.Error(err))
	}
	return answer, SourceLocal, err
}

// GetAllAnswers never fails; the worst case is an empty map.
func (s *Service) GetAllAnswers(ctx context.Context) Answers {
	all, _ := s.GetAllAnswersFrom(ctx)
	return all
}

func (s *Service) GetAllAnswersFrom(ctx context.Context) (Answers, Source) {
	sess := s.sessions.Session(ctx)
	if sess.LoggedIn() && s.remote != nil {
		all, err := s.remote.All(ctx, sess)
		if err == nil {
			return all, SourceRemote
		}
		logger.Log.Warn("remote answers fetch failed, using local answers", zap.Error(err))
	}
	return s.local.GetAll(), SourceLocal
}

// RemoteAnswers reads only the server-backed store. History uses it because it is not
// offered to anonymous users.
func (s *Service) RemoteAnswers(ctx context.Context) (Answers, error) {
	sess := s.sessions.Session(ctx)
	if !sess.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	if s.remote == nil {
		return nil, ErrNotLoggedIn
	}
	return s.remote.All(ctx, sess)
}

// SyncLocal pushes every local answer to the server and, once the server has answered,
// removes the entries it was sent. Answers saved locally while the request was in
// flight stay for the next sync. Nothing is removed on failure.
func (s *Service) SyncLocal(ctx context.Context) (SyncResult, error) {
	sess := s.sessions.Session(ctx)
	if !sess.LoggedIn() || s.remote == nil {
		return SyncResult{}, ErrNotLoggedIn
	}
	local := s.local.GetAll()
	if len(local) == 0 {
		return SyncResult{}, nil
	}
	res, err := s.remote.Sync(ctx, sess, local)
	if err != nil {
		return SyncResult{}, err
	}
	if len(res.Invalid) > 0 {
		logger.Log.Warn("server rejected malformed local answers", zap.Strings("questionIds", res.Invalid))
	}
	if _, err := s.local.Remove(local); err != nil {
		logger.Log.Warn("removing synced local answers failed", zap.Error(err))
	}
	return res, nil
}
