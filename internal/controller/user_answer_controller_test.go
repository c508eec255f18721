package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"enem_quiz_backend/internal/config"
	"enem_quiz_backend/internal/middleware"
	"enem_quiz_backend/internal/model"
	"enem_quiz_backend/internal/repository"
	"enem_quiz_backend/internal/service"
	"enem_quiz_backend/internal/util"
	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/database"

	"github.com/gin-gonic/gin"
)

const testSecret = "controller-test-secret"

func newAnswersRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "controller.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	ctrl := NewUserAnswerController(service.NewUserAnswerService(repository.NewUserAnswerRepository(db)))

	r := gin.New()
	api := r.Group("/api", middleware.AuthMiddleware(cfg, nil))
	api.POST("/user-answers", ctrl.Save)
	api.GET("/user-answers", ctrl.List)
	api.POST("/user-answers/sync", ctrl.Sync)
	return r
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	u := &model.User{Email: userID + "@example.com"}
	u.ID = userID
	tok, _, err := util.GenerateJWT(u, testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func do(r *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, util.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp util.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSaveAnswerRequiresSession(t *testing.T) {
	r := newAnswersRouter(t)
	w, resp := do(r, http.MethodPost, "/api/user-answers", "", `{"questionId":"2023-1","answerIndex":1,"isCorrect":true}`)
	if w.Code != http.StatusUnauthorized || resp.Message != "Não autorizado" {
		t.Fatalf("expected 401 Não autorizado, got %d %q", w.Code, resp.Message)
	}
}

func TestSaveAnswerMissingFields(t *testing.T) {
	r := newAnswersRouter(t)
	tok := signedToken(t, "u1")
	for _, body := range []string{
		`{"answerIndex":1,"isCorrect":true}`,
		`{"questionId":"2023-1","isCorrect":true}`,
		`{"questionId":"2023-1","answerIndex":1}`,
		`not json`,
	} {
		w, resp := do(r, http.MethodPost, "/api/user-answers", tok, body)
		if w.Code != http.StatusBadRequest || resp.Message != "Campos obrigatórios ausentes" {
			t.Errorf("%s: expected 400, got %d %q", body, w.Code, resp.Message)
		}
	}
}

func TestSaveAnswerAcceptsZeroValues(t *testing.T) {
	r := newAnswersRouter(t)
	tok := signedToken(t, "u1")

	w, _ := do(r, http.MethodPost, "/api/user-answers", tok, `{"questionId":"2023-1","answerIndex":0,"isCorrect":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w, _ = do(r, http.MethodGet, "/api/user-answers", tok, "")
	var body struct {
		Data answers.Answers `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	got, ok := body.Data["2023-1"]
	if !ok || got.AnswerIndex != 0 || got.IsCorrect {
		t.Fatalf("unexpected answers %s", w.Body.String())
	}
}

func TestListAnswers(t *testing.T) {
	r := newAnswersRouter(t)

	if w, _ := do(r, http.MethodGet, "/api/user-answers", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	w, _ := do(r, http.MethodGet, "/api/user-answers", signedToken(t, "fresh"), "")
	var raw map[string]json.RawMessage
	json.Unmarshal(w.Body.Bytes(), &raw)
	if w.Code != http.StatusOK || string(raw["data"]) != "{}" {
		t.Fatalf("expected empty object, got %d %s", w.Code, w.Body.String())
	}
}

func TestAnswersAreScopedToUser(t *testing.T) {
	r := newAnswersRouter(t)
	do(r, http.MethodPost, "/api/user-answers", signedToken(t, "u1"), `{"questionId":"2023-1","answerIndex":2,"isCorrect":true}`)

	w, _ := do(r, http.MethodGet, "/api/user-answers", signedToken(t, "u2"), "")
	var raw map[string]json.RawMessage
	json.Unmarshal(w.Body.Bytes(), &raw)
	if string(raw["data"]) != "{}" {
		t.Fatalf("u2 must not see u1 answers, got %s", w.Body.String())
	}
}

// The client store used by the CLI must round-trip through these routes.
func TestRemoteStoreAgainstRoutes(t *testing.T) {
	srv := httptest.NewServer(newAnswersRouter(t))
	defer srv.Close()

	store := answers.NewRemoteStore(srv.URL, srv.Client())
	sess := &answers.Session{UserID: "u1", Token: signedToken(t, "u1")}
	ctx := context.Background()

	saved, err := store.Save(ctx, sess, "2021-9", 3, false)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.AnswerIndex != 3 || saved.AnsweredAt.IsZero() {
		t.Fatalf("unexpected saved answer %+v", saved)
	}

	res, err := store.Sync(ctx, sess, answers.Answers{
		"2021-9":  {AnswerIndex: 1, AnsweredAt: saved.AnsweredAt.Add(-time.Hour)},
		"2021-10": {AnswerIndex: 0, IsCorrect: true, AnsweredAt: time.Now().UTC()},
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected sync result %+v", res)
	}

	all, err := store.All(ctx, sess)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || all["2021-9"].AnswerIndex != 3 || !all["2021-10"].IsCorrect {
		t.Fatalf("unexpected answers %+v", all)
	}

	_, err = store.All(ctx, &answers.Session{UserID: "u1", Token: "bad"})
	if remoteErr, ok := err.(*answers.RemoteError); !ok || remoteErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 remote error, got %v", err)
	}
}
