package answers

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// DefaultLocalKey is the namespace the whole answer map is stored under.
const DefaultLocalKey = "local_user_answers"

var ErrNoStorage = errors.New("local storage unavailable")

// LocalStore keeps answers when there is no authenticated session, and acts as the
// fallback when the remote store fails. Reads never fail: missing, unreadable or
// corrupt data reads as an empty map.
type LocalStore struct {
	kv  KV
	key string
	now func() time.Time

	mu sync.Mutex
}

type LocalOption func(*LocalStore)

func WithKey(key string) LocalOption {
	return func(s *LocalStore) { s.key = key }
}

func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalStore) { s.now = now }
}

// NewLocalStore accepts a nil kv, which behaves like running without any storage.
func NewLocalStore(kv KV, opts ...LocalOption) *LocalStore {
	s := &LocalStore{kv: kv, key: DefaultLocalKey, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LocalStore) GetAll() Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *LocalStore) load() Answers {
	out := Answers{}
	if s.kv == nil {
		return out
	}
	raw, err := s.kv.Get(s.key)
	if err != nil || len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return Answers{}
	}
	return out
}

func (s *LocalStore) Get(questionID string) (Answer, bool) {
	a, ok := s.GetAll()[questionID]
	return a, ok
}

// Save overwrites the entry for questionID with a fresh timestamp and writes the whole
// map back. The answer is returned even if it could not be persisted.
func (s *LocalStore) Save(questionID string, answerIndex int, isCorrect bool) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer := Answer{
		AnswerIndex: answerIndex,
		IsCorrect:   isCorrect,
		AnsweredAt:  s.now().UTC(),
	}
	if s.kv == nil {
		return answer, ErrNoStorage
	}

	all := s.load()
	all[questionID] = answer
	raw, err := json.Marshal(all)
	if err != nil {
		return answer, err
	}
	if err := s.kv.Set(s.key, raw); err != nil {
		return answer, err
	}
	return answer, nil
}

// Remove deletes the given entries, but only where the stored answer is still the one
// passed in. An entry saved again in the meantime is kept. It returns how many were
// removed.
func (s *LocalStore) Remove(entries Answers) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil || len(entries) == 0 {
		return 0, nil
	}

	all := s.load()
	removed := 0
	for id, want := range entries {
		got, ok := all[id]
		if !ok || !got.same(want) {
			continue
		}
		delete(all, id)
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if len(all) == 0 {
		if err := s.kv.Delete(s.key); err != nil && !errors.Is(err, ErrKeyNotFound) {
			return 0, err
		}
		return removed, nil
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return 0, err
	}
	if err := s.kv.Set(s.key, raw); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *LocalStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	if err := s.kv.Delete(s.key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}
