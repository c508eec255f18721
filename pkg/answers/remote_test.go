package answers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteStore(t *testing.T) {
	answeredAt := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"code": 401, "message": "Não autorizado"})
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/user-answers":
			var req saveRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 200, "message": "success",
				"data": savedRecord{QuestionID: req.QuestionID, AnswerIndex: req.AnswerIndex, IsCorrect: req.IsCorrect, UpdatedAt: answeredAt},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/user-answers":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 200, "message": "success",
				"data": Answers{"2023-5": {AnswerIndex: 1, IsCorrect: true, AnsweredAt: answeredAt}},
			})
		case r.URL.Path == "/api/user-answers/sync":
			var req syncRequest
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 200, "message": "success", "data": SyncResult{Imported: len(req.Answers)},
			})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{"code": 500, "message": "Erro interno do servidor"})
		}
	}))
	defer srv.Close()

	store := NewRemoteStore(srv.URL, srv.Client())
	ctx := context.Background()
	sess := &Session{UserID: "u1", Token: "tok"}

	a, err := store.Save(ctx, sess, "2023-5", 0, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a.AnswerIndex != 0 || a.IsCorrect || !a.AnsweredAt.Equal(answeredAt) {
		t.Fatalf("unexpected saved answer %+v", a)
	}

	all, err := store.All(ctx, sess)
	if err != nil || all["2023-5"].AnswerIndex != 1 {
		t.Fatalf("all: %v %v", all, err)
	}

	res, err := store.Sync(ctx, sess, Answers{"2023-1": {}, "2023-2": {}})
	if err != nil || res.Imported != 2 {
		t.Fatalf("sync: %+v %v", res, err)
	}

	_, err = store.All(ctx, &Session{UserID: "u1", Token: "wrong"})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.StatusCode != http.StatusUnauthorized || remoteErr.Message != "Não autorizado" {
		t.Fatalf("expected 401 remote error, got %v", err)
	}

	if _, err := store.All(ctx, nil); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestRemoteStoreNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	store := NewRemoteStore(url, nil)
	if _, err := store.Save(context.Background(), &Session{UserID: "u", Token: "t"}, "2023-1", 0, false); err == nil {
		t.Fatal("expected network error")
	}
}
