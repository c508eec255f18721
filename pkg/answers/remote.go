package answers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrNotLoggedIn = errors.New("no authenticated session")

// Remote is the server-backed half of the facade.
type Remote interface {
	Save(ctx context.Context, sess *Session, questionID string, answerIndex int, isCorrect bool) (Answer, error)
	All(ctx context.Context, sess *Session) (Answers, error)
	Sync(ctx context.Context, sess *Session, local Answers) (SyncResult, error)
}

// RemoteError carries the status and message of a failed call.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("user answers api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("user answers api: status %d: %s", e.StatusCode, e.Message)
}

// RemoteStore talks to the /api/user-answers routes of the server.
type RemoteStore struct {
	baseURL string
	http    *http.Client
}

func NewRemoteStore(baseURL string, hc *http.Client) *RemoteStore {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteStore{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type saveRequest struct {
	QuestionID  string `json:"questionId"`
	AnswerIndex int    `json:"answerIndex"`
	IsCorrect   bool   `json:"isCorrect"`
}

type savedRecord struct {
	QuestionID  string    `json:"questionId"`
	AnswerIndex int       `json:"answerIndex"`
	IsCorrect   bool      `json:"isCorrect"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *RemoteStore) Save(ctx context.Context, sess *Session, questionID string, answerIndex int, isCorrect bool) (Answer, error) {
	var rec savedRecord
	body := saveRequest{QuestionID: questionID, AnswerIndex: answerIndex, IsCorrect: isCorrect}
	if err := r.do(ctx, sess, http.MethodPost, "/api/user-answers", body, &rec); err != nil {
		return Answer{}, err
	}
	return Answer{AnswerIndex: rec.AnswerIndex, IsCorrect: rec.IsCorrect, AnsweredAt: rec.UpdatedAt}, nil
}

func (r *RemoteStore) All(ctx context.Context, sess *Session) (Answers, error) {
	out := Answers{}
	if err := r.do(ctx, sess, http.MethodGet, "/api/user-answers", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = Answers{}
	}
	return out, nil
}

type syncRequest struct {
	Answers Answers `json:"answers"`
}

func (r *RemoteStore) Sync(ctx context.Context, sess *Session, local Answers) (SyncResult, error) {
	var res SyncResult
	err := r.do(ctx, sess, http.MethodPost, "/api/user-answers/sync", syncRequest{Answers: local}, &res)
	return res, err
}

func (r *RemoteStore) do(ctx context.Context, sess *Session, method, path string, body, out interface{}) error {
	if !sess.LoggedIn() {
		return ErrNotLoggedIn
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.Token)

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
