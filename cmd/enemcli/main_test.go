package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"

	"gopkg.in/yaml.v3"
)

const testToken = "tok-1"

// fakeServer mimics the routes the client uses with in-memory state.
type fakeServer struct {
	mu        sync.Mutex
	answers   answers.Answers
	signedOut bool
	otpSent   string
	listQuery url.Values
}

func (f *fakeServer) answer(id string) (answers.Answer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.answers[id]
	return a, ok
}

func (f *fakeServer) setAnswer(id string, a answers.Answer) {
	f.mu.Lock()
	f.answers[id] = a
	f.mu.Unlock()
}

func (f *fakeServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers)
}

func (f *fakeServer) lastListQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listQuery
}

func (f *fakeServer) isSignedOut() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signedOut
}

func question(index int) enemapi.Question {
	return enemapi.Question{
		Title:      "Questão " + strconv.Itoa(index) + " - ENEM 2023",
		Index:      index,
		Year:       2023,
		Discipline: "matematica",
		Alternatives: []enemapi.Alternative{
			{Letter: "A", Text: "um"},
			{Letter: "B", Text: "dois", IsCorrect: true},
			{Letter: "C", Text: "três"},
		},
	}
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	msg := "success"
	if status >= 400 {
		msg = "Não autorizado"
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"code": status, "message": msg, "data": data})
}

func (f *fakeServer) authorized(w http.ResponseWriter, r *http.Request) bool {
	f.mu.Lock()
	out := f.signedOut
	f.mu.Unlock()
	if out || r.Header.Get("Authorization") != "Bearer "+testToken {
		writeEnvelope(w, http.StatusUnauthorized, nil)
		return false
	}
	return true
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{answers: answers.Answers{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/otp/send", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.otpSent = req["email"]
		f.mu.Unlock()
		writeEnvelope(w, http.StatusOK, map[string]bool{"sent": true})
	})
	mux.HandleFunc("POST /api/auth/otp/verify", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["otp"] != "123456" {
			writeEnvelope(w, http.StatusUnauthorized, nil)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"token": testToken,
			"session": answers.Session{
				UserID: "u1", Email: req["email"], ExpiresAt: time.Now().Add(time.Hour),
			},
		})
	})
	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if f.authorized(w, r) {
			writeEnvelope(w, http.StatusOK, answers.Session{UserID: "u1", Email: "ana@example.com"})
		}
	})
	mux.HandleFunc("POST /api/auth/sign-out", func(w http.ResponseWriter, r *http.Request) {
		if f.authorized(w, r) {
			f.mu.Lock()
			f.signedOut = true
			f.mu.Unlock()
			writeEnvelope(w, http.StatusOK, nil)
		}
	})

	mux.HandleFunc("GET /api/user-answers", func(w http.ResponseWriter, r *http.Request) {
		if f.authorized(w, r) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeEnvelope(w, http.StatusOK, f.answers)
		}
	})
	mux.HandleFunc("POST /api/user-answers", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		var req struct {
			QuestionID  string `json:"questionId"`
			AnswerIndex int    `json:"answerIndex"`
			IsCorrect   bool   `json:"isCorrect"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		now := time.Now()
		f.mu.Lock()
		f.answers[req.QuestionID] = answers.Answer{AnswerIndex: req.AnswerIndex, IsCorrect: req.IsCorrect, AnsweredAt: now}
		f.mu.Unlock()
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"questionId": req.QuestionID, "answerIndex": req.AnswerIndex, "isCorrect": req.IsCorrect, "updatedAt": now,
		})
	})
	mux.HandleFunc("POST /api/user-answers/sync", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		var req struct {
			Answers answers.Answers `json:"answers"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		for id, a := range req.Answers {
			f.answers[id] = a
		}
		f.mu.Unlock()
		writeEnvelope(w, http.StatusOK, answers.SyncResult{Imported: len(req.Answers)})
	})

	mux.HandleFunc("GET /api/exams", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]enemapi.Exam{{Title: "ENEM 2023", Year: 2023}})
	})
	mux.HandleFunc("GET /api/exams/2023/questions/{index}", func(w http.ResponseWriter, r *http.Request) {
		i, _ := strconv.Atoi(r.PathValue("index"))
		if i < 1 || i > 3 {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(question(i))
	})
	mux.HandleFunc("GET /api/exams/2023/questions", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		f.mu.Lock()
		f.listQuery = query
		f.mu.Unlock()
		if d := query.Get("discipline"); d != "" && d != "matematica" {
			json.NewEncoder(w).Encode(enemapi.QuestionPage{Metadata: enemapi.Metadata{Limit: 10}})
			return
		}
		json.NewEncoder(w).Encode(enemapi.QuestionPage{
			Metadata:  enemapi.Metadata{Limit: 10, Total: 3},
			Questions: []enemapi.Question{question(1), question(2), question(3)},
		})
	})
	mux.HandleFunc("POST /api/exams/2023/questions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Indices []int `json:"indices"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		var page enemapi.QuestionPage
		for _, i := range req.Indices {
			page.Questions = append(page.Questions, question(i))
		}
		json.NewEncoder(w).Encode(page)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func setupEnv(t *testing.T, serverURL string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENEMCLI_SERVER", serverURL)
	t.Setenv("ENEMCLI_DATA_DIR", dir)
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func login(t *testing.T) {
	t.Helper()
	if _, err := runCLI(t, "", "login", "-email", "ana@example.com"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := runCLI(t, "", "verify", "-email", "ana@example.com", "-code", "123456"); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestAnonymousPracticeSavesLocally(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)

	out, err := runCLI(t, "b\ncheck\nquit\n", "practice", "-year", "2023", "-index", "1")
	if err != nil {
		t.Fatalf("practice: %v", err)
	}
	if !strings.Contains(out, "Resposta certa!") || !strings.Contains(out, "salva neste computador") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if n := f.count(); n != 0 {
		t.Fatalf("anonymous answers must not reach the server, got %d", n)
	}

	out, err = runCLI(t, "", "answers", "-format", "json")
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	var got struct {
		Source  answers.Source  `json:"source"`
		Answers answers.Answers `json:"answers"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Source != answers.SourceLocal || got.Answers["2023-1"].AnswerIndex != 1 || !got.Answers["2023-1"].IsCorrect {
		t.Fatalf("unexpected answers %+v", got)
	}
}

func TestPracticeRetryAndMessages(t *testing.T) {
	_, srv := newFakeServer(t)
	setupEnv(t, srv.URL)

	out, err := runCLI(t, "check\nz\na\ncheck\nb\nretry\nc\ncheck\nquit\n", "practice", "-year", "2023")
	if err != nil {
		t.Fatalf("practice: %v", err)
	}
	for _, want := range []string{
		"Selecione uma alternativa",
		"Essa alternativa não existe",
		"Resposta errada.",
		"Questão já respondida",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}

	out, _ = runCLI(t, "", "answers")
	if !strings.Contains(out, "2023-1") || !strings.Contains(out, "C  errada") {
		t.Fatalf("retry should overwrite the stored answer:\n%s", out)
	}
}

func TestVerifySyncsLocalAnswers(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)

	if _, err := runCLI(t, "a\ncheck\n", "practice", "-year", "2023", "-index", "2"); err != nil {
		t.Fatalf("practice: %v", err)
	}
	if _, err := runCLI(t, "", "verify", "-email", "ana@example.com", "-code", "000000"); err == nil {
		t.Fatal("wrong code should fail")
	}

	out, err := runCLI(t, "", "verify", "-email", "ana@example.com", "-code", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out, "1 importadas") {
		t.Fatalf("expected sync report, got:\n%s", out)
	}
	if a, ok := f.answer("2023-2"); !ok || a.AnswerIndex != 0 {
		t.Fatalf("local answer not synced: %+v", a)
	}

	out, _ = runCLI(t, "", "answers", "-format", "json")
	if !strings.Contains(out, `"source": "remote"`) {
		t.Fatalf("signed-in answers should come from the server:\n%s", out)
	}
	out, _ = runCLI(t, "", "sync")
	if !strings.Contains(out, "Nenhuma resposta local") {
		t.Fatalf("local store should be empty after sync:\n%s", out)
	}
}

func TestSignedInPracticeSavesRemotely(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)
	login(t)

	out, err := runCLI(t, "b\ncheck\n", "practice", "-year", "2023", "-index", "3")
	if err != nil {
		t.Fatalf("practice: %v", err)
	}
	if !strings.Contains(out, "salva na sua conta") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, ok := f.answer("2023-3"); !ok {
		t.Fatal("answer should be stored on the server")
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	_, srv := newFakeServer(t)
	setupEnv(t, srv.URL)

	if _, err := runCLI(t, "", "history"); err == nil || !strings.Contains(err.Error(), "login") {
		t.Fatalf("expected login error, got %v", err)
	}
}

func TestHistoryFiltersAsYAML(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)
	login(t)

	now := time.Now()
	f.setAnswer("2023-1", answers.Answer{AnswerIndex: 1, IsCorrect: true, AnsweredAt: now})
	f.setAnswer("2023-2", answers.Answer{AnswerIndex: 0, IsCorrect: false, AnsweredAt: now.Add(-time.Minute)})

	out, err := runCLI(t, "", "history", "-status", "incorrect", "-format", "yaml")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var got struct {
		Filter struct {
			Status string `yaml:"status"`
		} `yaml:"filter"`
		Page struct {
			Total int `yaml:"total"`
			Items []struct {
				QuestionID string `yaml:"questionId"`
			} `yaml:"items"`
		} `yaml:"page"`
		Stats struct {
			Answered int `yaml:"answered"`
		} `yaml:"stats"`
	}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode yaml %q: %v", out, err)
	}
	if got.Filter.Status != "incorrect" || got.Page.Total != 1 || got.Page.Items[0].QuestionID != "2023-2" {
		t.Fatalf("unexpected history %+v", got)
	}
	if got.Stats.Answered != 1 {
		t.Fatalf("stats should follow the filter, got %+v", got.Stats)
	}
}

func TestHistoryInteractive(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)
	login(t)
	f.setAnswer("2023-1", answers.Answer{AnswerIndex: 1, IsCorrect: true, AnsweredAt: time.Now()})
	f.setAnswer("2023-2", answers.Answer{AnswerIndex: 0, AnsweredAt: time.Now()})

	out, err := runCLI(t, "status corretas\nstats\nbogus\nquit\n", "history", "-i")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "Histórico (all), página 1 de 1, 2 questões") {
		t.Fatalf("missing first page:\n%s", out)
	}
	if !strings.Contains(out, "Histórico (correct), página 1 de 1, 1 questões") {
		t.Fatalf("filter change should print the new first page:\n%s", out)
	}
	if !strings.Contains(out, `Comando desconhecido "bogus"`) {
		t.Fatalf("missing unknown command message:\n%s", out)
	}
}

func TestLogoutSignsOutOnServer(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)
	login(t)

	out, err := runCLI(t, "", "whoami", "-check")
	if err != nil || !strings.Contains(out, "ana@example.com (u1)") {
		t.Fatalf("whoami: %q %v", out, err)
	}
	if _, err := runCLI(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !f.isSignedOut() {
		t.Fatal("logout should revoke the token on the server")
	}
	out, _ = runCLI(t, "", "whoami")
	if !strings.Contains(out, "Anônimo") {
		t.Fatalf("expected anonymous after logout, got %q", out)
	}
}

func TestLogoutPushesAndClearsLocalAnswers(t *testing.T) {
	f, srv := newFakeServer(t)
	dir := setupEnv(t, srv.URL)
	login(t)

	// An answer left behind by a failed remote write.
	kv, err := answers.NewFileKV(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := answers.NewLocalStore(kv).Save("2023-7", 2, false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := runCLI(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if a, ok := f.answer("2023-7"); !ok || a.AnswerIndex != 2 {
		t.Fatalf("local answer should reach the server before sign-out: %+v", a)
	}
	if !f.isSignedOut() {
		t.Fatal("logout should revoke the token on the server")
	}

	out, err := runCLI(t, "", "answers", "-format", "json")
	if err != nil {
		t.Fatalf("answers: %v", err)
	}
	if strings.Contains(out, "2023-7") {
		t.Fatalf("local answers of the previous user must not survive logout:\n%s", out)
	}
}

func TestExpiredSessionIsAnonymous(t *testing.T) {
	store := newSessionStore(answers.NewMemoryKV())
	if store.Session(context.Background()) != nil {
		t.Fatal("empty store should have no session")
	}
	sess := &answers.Session{UserID: "u1", Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Session(context.Background()) != nil {
		t.Fatal("expired session must count as signed out")
	}
	if loaded, _ := store.Load(); loaded == nil || loaded.Token != "t" {
		t.Fatalf("load should still return the stored session, got %+v", loaded)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestExamsAndQuestions(t *testing.T) {
	f, srv := newFakeServer(t)
	setupEnv(t, srv.URL)

	out, err := runCLI(t, "", "exams")
	if err != nil || !strings.Contains(out, "2023  ENEM 2023") {
		t.Fatalf("exams: %q %v", out, err)
	}
	out, err = runCLI(t, "", "questions", "-year", "2023")
	if err != nil || !strings.Contains(out, "-- 1-3 de 3") {
		t.Fatalf("questions: %q %v", out, err)
	}
	out, err = runCLI(t, "", "questions", "-year", "2023", "-discipline", "linguagens", "-language", "ingles")
	if err != nil || !strings.Contains(out, "Nenhuma questão encontrada") {
		t.Fatalf("filtered questions: %q %v", out, err)
	}
	if q := f.lastListQuery(); q.Get("discipline") != "linguagens" || q.Get("language") != "ingles" {
		t.Fatalf("filters not sent: %v", q)
	}

	if _, err := runCLI(t, "", "questions", "-year", "2023", "-page", "9223372036854775807"); err != nil {
		t.Fatalf("huge page: %v", err)
	}
	if off, err := strconv.Atoi(f.lastListQuery().Get("offset")); err != nil || off < 0 {
		t.Fatalf("offset must stay non-negative, got %q", f.lastListQuery().Get("offset"))
	}
	if _, err := runCLI(t, "", "questions"); !errors.Is(err, errMissingFlag) {
		t.Fatalf("expected errMissingFlag, got %v", err)
	}
	if _, err := runCLI(t, "", "exams", "-format", "xml"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestClearLocalAndUnknownCommand(t *testing.T) {
	_, srv := newFakeServer(t)
	setupEnv(t, srv.URL)

	runCLI(t, "a\ncheck\n", "practice", "-year", "2023")
	out, err := runCLI(t, "", "clear-local")
	if err != nil || !strings.Contains(out, "1 respostas locais apagadas") {
		t.Fatalf("clear-local: %q %v", out, err)
	}
	if _, err := runCLI(t, ""); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage, got %v", err)
	}
	if _, err := runCLI(t, "", "dance"); err == nil {
		t.Fatal("unknown command should fail")
	}
}
