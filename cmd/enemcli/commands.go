package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/history"
	"enem_quiz_backend/pkg/logger"
	"enem_quiz_backend/pkg/practice"

	"go.uber.org/zap"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

func commands() []command {
	return []command{
		{"login", "envia o código de acesso para o e-mail", runLogin},
		{"verify", "confirma o código e sincroniza as respostas locais", runVerify},
		{"logout", "encerra a sessão", runLogout},
		{"whoami", "mostra a sessão atual", runWhoami},
		{"exams", "lista as provas", runExams},
		{"questions", "lista as questões de uma prova", runQuestions},
		{"practice", "responde questões de uma prova", runPractice},
		{"answers", "mostra as respostas salvas", runAnswers},
		{"sync", "envia as respostas locais para a conta", runSync},
		{"history", "histórico de respostas com filtros", runHistory},
		{"clear-local", "apaga as respostas salvas neste computador", runClearLocal},
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands() {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func newFlags(c *cli, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

var errMissingFlag = errors.New("parâmetro obrigatório ausente")

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "login")
	email := fs.String("email", "", "e-mail da conta")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: -email", errMissingFlag)
	}
	if err := c.auth.SendOTP(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Código enviado para %s.\nConfirme com: enemcli verify -email %s -code <código>\n", *email, *email)
	return nil
}

func runVerify(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "verify")
	email := fs.String("email", "", "e-mail da conta")
	code := fs.String("code", "", "código recebido por e-mail")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *code == "" {
		return fmt.Errorf("%w: -email e -code", errMissingFlag)
	}

	sess, err := c.auth.Verify(ctx, *email, *code)
	if err != nil {
		return err
	}
	if err := c.sessions.Save(sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(c.out, "Conectado como %s.\n", sess.Email)
	return syncLocal(ctx, c)
}

// syncLocal reports a failed sync without failing the command; local answers are kept
// and the next sync retries them.
func syncLocal(ctx context.Context, c *cli) error {
	res, err := c.answers.SyncLocal(ctx)
	if errors.Is(err, answers.ErrNotLoggedIn) {
		return err
	}
	if err != nil {
		logger.Log.Warn("sync of local answers failed", zap.Error(err))
		fmt.Fprintln(c.out, "Não foi possível sincronizar agora; as respostas locais foram mantidas.")
		return nil
	}
	if res.Imported+res.Skipped > 0 {
		fmt.Fprintf(c.out, "Respostas sincronizadas: %d importadas, %d ignoradas.\n", res.Imported, res.Skipped)
	}
	return nil
}

func runSync(ctx context.Context, c *cli, args []string) error {
	if err := newFlags(c, "sync").Parse(args); err != nil {
		return err
	}
	if len(c.answers.Local().GetAll()) == 0 {
		fmt.Fprintln(c.out, "Nenhuma resposta local para sincronizar.")
		return nil
	}
	return syncLocal(ctx, c)
}

func runLogout(ctx context.Context, c *cli, args []string) error {
	if err := newFlags(c, "logout").Parse(args); err != nil {
		return err
	}
	sess, err := c.sessions.Load()
	if err != nil {
		return err
	}
	if sess != nil && sess.Token != "" {
		// Local answers belong to this user; push them while the token is still valid.
		if len(c.answers.Local().GetAll()) > 0 {
			if _, err := c.answers.SyncLocal(ctx); err != nil {
				logger.Log.Warn("sync before sign-out failed", zap.Error(err))
			}
		}
		if err := c.auth.SignOut(ctx, sess.Token); err != nil {
			logger.Log.Warn("server sign-out failed", zap.Error(err))
		}
	}
	if err := c.sessions.Clear(); err != nil {
		return err
	}
	if err := c.answers.Local().Clear(); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Sessão encerrada.")
	return nil
}

func runWhoami(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "whoami")
	check := fs.Bool("check", false, "confirma a sessão com o servidor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess := c.sessions.Session(ctx)
	if !sess.LoggedIn() {
		fmt.Fprintln(c.out, "Anônimo: as respostas ficam salvas neste computador.")
		return nil
	}
	if *check {
		remote, err := c.auth.Session(ctx, sess.Token)
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			fmt.Fprintln(c.out, "Sessão expirada ou encerrada; faça login novamente.")
			return nil
		}
		if err != nil {
			return err
		}
		sess = remote
	}
	fmt.Fprintf(c.out, "%s (%s)\n", sess.Email, sess.UserID)
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(c.out, "Sessão válida até %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func formatFlag(fs *flag.FlagSet) *string {
	return fs.String("format", formatText, "saída: text, json ou yaml")
}

func runExams(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "exams")
	format := formatFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format); err != nil {
		return err
	}
	exams, err := c.exams.ListExams(ctx)
	if err != nil {
		return err
	}
	if *format != formatText {
		return writeStructured(c.out, *format, exams)
	}
	printExams(c.out, exams)
	return nil
}

func runQuestions(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "questions")
	year := fs.Int("year", 0, "ano da prova")
	page := fs.Int("page", 1, "página")
	size := fs.Int("size", 10, "questões por página")
	discipline := fs.String("discipline", "", "filtra por disciplina, ex. matematica")
	language := fs.String("language", "", "língua estrangeira, ex. ingles")
	format := formatFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *year == 0 {
		return fmt.Errorf("%w: -year", errMissingFlag)
	}
	if err := checkFormat(*format); err != nil {
		return err
	}
	if *size < 1 || *size > 50 {
		*size = 10
	}
	if *page < 1 {
		*page = 1
	}
	// Keeps the offset within an int32 for upstream.
	if last := math.MaxInt32 / *size; *page > last {
		*page = last
	}

	offset := (*page - 1) * *size
	filter := enemapi.QuestionFilter{Discipline: *discipline, Language: *language}
	qp, err := c.exams.ListQuestions(ctx, *year, *size, offset, filter)
	if err != nil {
		return err
	}
	if *format != formatText {
		return writeStructured(c.out, *format, qp)
	}
	printQuestionPage(c.out, qp, c.answers.GetAllAnswers(ctx))
	return nil
}

// sourceSaver remembers which store kept the last answer so practice can tell the user.
type sourceSaver struct {
	svc    *answers.Service
	source answers.Source
}

func (s *sourceSaver) SaveAnswer(ctx context.Context, questionID string, answerIndex int, isCorrect bool) (answers.Answer, error) {
	a, src, err := s.svc.SaveAnswerFrom(ctx, questionID, answerIndex, isCorrect)
	s.source = src
	return a, err
}

func runPractice(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "practice")
	year := fs.Int("year", 0, "ano da prova")
	index := fs.Int("index", 1, "número da questão")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *year == 0 {
		return fmt.Errorf("%w: -year", errMissingFlag)
	}

	saver := &sourceSaver{svc: c.answers}
	var card *practice.Card
	load := func(i int) error {
		q, err := c.exams.GetQuestion(ctx, *year, i)
		if err != nil {
			return err
		}
		var stored *answers.Answer
		if a, ok := c.answers.GetAllAnswers(ctx)[q.ID()]; ok {
			stored = &a
		}
		card = practice.NewCard(*q, stored)
		*index = i
		printQuestion(c.out, *q)
		if stored != nil {
			fmt.Fprintln(c.out, "\nJá respondida:")
			showFeedback(c.out, card)
		}
		return nil
	}
	if err := load(*index); err != nil {
		return err
	}

	fmt.Fprintln(c.out, "\nDigite a letra da alternativa, check, retry, next, prev ou quit.")
	for {
		line, ok := c.prompt("> ")
		if !ok {
			return nil
		}
		cmd := strings.ToLower(strings.TrimSpace(line))
		switch cmd {
		case "":
		case "quit", "sair":
			return nil
		case "check", "verificar":
			a, err := card.Check(ctx, saver)
			if err != nil {
				fmt.Fprintln(c.out, practiceMessage(err))
				continue
			}
			if a.IsCorrect {
				fmt.Fprint(c.out, "Resposta certa!")
			} else {
				fmt.Fprint(c.out, "Resposta errada.")
			}
			if saver.source == answers.SourceRemote {
				fmt.Fprintln(c.out, " (salva na sua conta)")
			} else {
				fmt.Fprintln(c.out, " (salva neste computador)")
			}
			showFeedback(c.out, card)
		case "retry", "refazer":
			if err := card.Retry(); err != nil {
				fmt.Fprintln(c.out, practiceMessage(err))
			}
		case "next", "prev":
			next := *index + 1
			if cmd == "prev" {
				next = *index - 1
			}
			if next < 1 {
				continue
			}
			if err := load(next); err != nil {
				if errors.Is(err, enemapi.ErrNotFound) {
					fmt.Fprintln(c.out, "Não há mais questões nessa direção.")
					continue
				}
				return err
			}
		default:
			i, ok := practice.IndexOfLetter(cmd)
			if !ok {
				fmt.Fprintf(c.out, "Comando desconhecido %q.\n", cmd)
				continue
			}
			if err := card.Select(i); err != nil {
				fmt.Fprintln(c.out, practiceMessage(err))
				continue
			}
			fmt.Fprintf(c.out, "Alternativa %s selecionada.\n", practice.Letter(i))
		}
	}
}

func showFeedback(w io.Writer, card *practice.Card) {
	fb, err := card.Feedback()
	if err != nil {
		return
	}
	printFeedback(w, fb)
}

func practiceMessage(err error) string {
	switch {
	case errors.Is(err, practice.ErrNoSelection):
		return "Selecione uma alternativa antes de verificar."
	case errors.Is(err, practice.ErrOutOfRange):
		return "Essa alternativa não existe."
	case errors.Is(err, practice.ErrLocked):
		return "Questão já respondida; use retry para tentar de novo."
	case errors.Is(err, practice.ErrNotAnswered):
		return "A questão ainda não foi respondida."
	case errors.Is(err, practice.ErrSubmitting):
		return "Aguarde, a resposta está sendo enviada."
	}
	return "Não foi possível salvar a resposta: " + err.Error()
}

func runAnswers(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "answers")
	format := formatFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format); err != nil {
		return err
	}
	all, source := c.answers.GetAllAnswersFrom(ctx)
	if *format != formatText {
		return writeStructured(c.out, *format, struct {
			Source  answers.Source  `json:"source"`
			Answers answers.Answers `json:"answers"`
		}{source, all})
	}
	printAnswers(c.out, all, source)
	return nil
}

type historyOutput struct {
	Filter history.Filter `json:"filter"`
	Page   history.Page   `json:"page"`
	Stats  history.Stats  `json:"stats"`
}

func runHistory(ctx context.Context, c *cli, args []string) error {
	fs := newFlags(c, "history")
	statusFlag := fs.String("status", "all", "all, correct ou incorrect")
	discipline := fs.String("discipline", "", "filtra por disciplina")
	page := fs.Int("page", 1, "página")
	size := fs.Int("size", history.DefaultPageSize, "itens por página")
	interactive := fs.Bool("i", false, "navegação interativa")
	format := formatFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	status, err := history.ParseStatus(*statusFlag)
	if err != nil {
		return err
	}
	if err := checkFormat(*format); err != nil {
		return err
	}

	loader := history.Loader{Answers: c.answers, Questions: c.exams}
	entries, err := loader.Load(ctx)
	if errors.Is(err, history.ErrSessionRequired) {
		return errors.New("o histórico exige login (enemcli login -email ...)")
	}
	if err != nil {
		return err
	}

	var (
		view *history.View
		live bool
	)
	view = history.NewView(entries, *size, history.DefaultFilterDelay, func(p history.Page) {
		if live {
			printHistoryPage(c.out, p, view.Filter())
		}
	})
	defer view.Close()
	view.SetStatus(status)
	view.SetDiscipline(*discipline)
	view.Flush()
	current := view.Goto(*page)

	if !*interactive {
		out := historyOutput{
			Filter: view.Filter(),
			Page:   current,
			Stats:  history.ComputeStats(history.Apply(entries, view.Filter())),
		}
		if *format != formatText {
			return writeStructured(c.out, *format, out)
		}
		printHistoryPage(c.out, out.Page, out.Filter)
		printStats(c.out, out.Stats)
		return nil
	}

	live = true
	printHistoryPage(c.out, current, view.Filter())
	fmt.Fprintln(c.out, "Comandos: status <all|correct|incorrect>, discipline [nome], next, prev, page <n>, stats, quit.")
	for {
		line, ok := c.prompt("> ")
		if !ok {
			view.Flush()
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		arg := strings.Join(fields[1:], " ")
		switch strings.ToLower(fields[0]) {
		case "quit", "sair":
			view.Flush()
			return nil
		case "status":
			s, err := history.ParseStatus(arg)
			if err != nil {
				fmt.Fprintln(c.out, "Filtro de status inválido.")
				continue
			}
			view.SetStatus(s)
		case "discipline", "disciplina":
			view.SetDiscipline(arg)
		case "next":
			printHistoryPage(c.out, view.Next(), view.Filter())
		case "prev":
			printHistoryPage(c.out, view.Prev(), view.Filter())
		case "page":
			n, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintln(c.out, "Página inválida.")
				continue
			}
			printHistoryPage(c.out, view.Goto(n), view.Filter())
		case "stats":
			printStats(c.out, history.ComputeStats(history.Apply(entries, view.Filter())))
		default:
			fmt.Fprintf(c.out, "Comando desconhecido %q.\n", fields[0])
		}
	}
}

func runClearLocal(_ context.Context, c *cli, args []string) error {
	if err := newFlags(c, "clear-local").Parse(args); err != nil {
		return err
	}
	n := len(c.answers.Local().GetAll())
	if err := c.answers.Local().Clear(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d respostas locais apagadas.\n", n)
	return nil
}
