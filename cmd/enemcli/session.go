package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"enem_quiz_backend/pkg/answers"
)

const sessionKey = "session"

// sessionStore keeps the signed-in session next to the local answers. It is the
// SessionProvider of the answer service; an expired session counts as signed out.
type sessionStore struct {
	kv  answers.KV
	now func() time.Time
}

func newSessionStore(kv answers.KV) *sessionStore {
	return &sessionStore{kv: kv, now: time.Now}
}

func (s *sessionStore) Session(context.Context) *answers.Session {
	sess, err := s.Load()
	if err != nil || sess == nil {
		return nil
	}
	if !sess.ExpiresAt.IsZero() && s.now().After(sess.ExpiresAt) {
		return nil
	}
	return sess
}

func (s *sessionStore) Load() (*answers.Session, error) {
	raw, err := s.kv.Get(sessionKey)
	if errors.Is(err, answers.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess answers.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *sessionStore) Save(sess *answers.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Set(sessionKey, raw)
}

func (s *sessionStore) Clear() error {
	return s.kv.Delete(sessionKey)
}
