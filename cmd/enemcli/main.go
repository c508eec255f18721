// Command enemcli is the terminal client of the quiz: it browses exams, practices
// questions and keeps answers locally until the user signs in.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"enem_quiz_backend/pkg/answers"
	"enem_quiz_backend/pkg/enemapi"
	"enem_quiz_backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("comando não informado")

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("enemcli", flag.ContinueOnError)
	fs.SetOutput(stdout)
	configFile := fs.String("config", "", "arquivo de configuração (enemcli.yaml)")
	debug := fs.Bool("debug", false, "log detalhado")
	fs.Usage = func() { usage(stdout, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		usage(stdout, fs)
		return errUsage
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *debug {
		cfg.Debug = true
	}
	logger.InitConsole(cfg.Debug)
	defer logger.Log.Sync()

	cmd, ok := lookup(fs.Arg(0))
	if !ok {
		usage(stdout, fs)
		return fmt.Errorf("comando desconhecido %q", fs.Arg(0))
	}
	c, err := newCLI(cfg, stdin, stdout)
	if err != nil {
		return err
	}
	return cmd.run(ctx, c, fs.Args()[1:])
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "uso: enemcli [-config arquivo] [-debug] <comando> [opções]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "comandos:")
	for _, cmd := range commands() {
		fmt.Fprintf(w, "  %-12s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fs.PrintDefaults()
}

// cli carries everything a command needs. Output goes through a locked writer because
// the history screen prints from the debounce goroutine too.
type cli struct {
	cfg      cliConfig
	in       *bufio.Scanner
	out      io.Writer
	sessions *sessionStore
	answers  *answers.Service
	exams    *enemapi.Client
	auth     *authClient
}

func newCLI(cfg cliConfig, stdin io.Reader, stdout io.Writer) (*cli, error) {
	kv, err := answers.NewFileKV(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	hc := &http.Client{Timeout: cfg.Timeout}
	sessions := newSessionStore(kv)

	return &cli{
		cfg:      cfg,
		in:       bufio.NewScanner(stdin),
		out:      &lockedWriter{w: stdout},
		sessions: sessions,
		answers:  answers.NewService(sessions, answers.NewRemoteStore(cfg.Server, hc), answers.NewLocalStore(kv)),
		exams:    enemapi.NewClient(cfg.ExamAPI, enemapi.WithHTTPClient(hc)),
		auth:     newAuthClient(cfg.Server, hc),
	}, nil
}

// prompt prints p and reads one line. ok is false at end of input.
func (c *cli) prompt(p string) (string, bool) {
	fmt.Fprint(c.out, p)
	if !c.in.Scan() {
		fmt.Fprintln(c.out)
		return "", false
	}
	return c.in.Text(), true
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
