// Command quiz runs a timed quiz in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/platform/logging"
	"github.com/p-n-ai/pai-quiz/internal/play"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/report"
	"github.com/p-n-ai/pai-quiz/internal/source"
	"github.com/p-n-ai/pai-quiz/internal/tui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}

	flags := flag.NewFlagSet("quiz", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cfg.Quiz.Source, "source", cfg.Quiz.Source, "question document: file, directory or http(s) URL")
	flags.IntVar(&cfg.Quiz.QuestionCount, "n", cfg.Quiz.QuestionCount, "number of questions")
	flags.DurationVar(&cfg.Quiz.Duration, "duration", cfg.Quiz.Duration, "time limit, 0 for none")
	reportPath := flags.String("report", "", "write an .xlsx report of the attempt to this path")
	logPath := flags.String("log", "", "write logs to this file instead of discarding them")
	noColor := flags.Bool("no-color", false, "disable colors")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	logOut := io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(logging.New(logOut, cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	bank, err := quiz.LoadBank(ctx, source.New(cfg.Quiz.Source))
	if err != nil {
		fmt.Fprintf(stderr, "quiz source unavailable: %v\n", err)
		return 1
	}

	var opts []quiz.SessionOption
	if cfg.Quiz.StrictCount {
		opts = append(opts, quiz.WithStrictCount())
	}
	session, err := quiz.NewSession(bank, cfg.Quiz.QuestionCount, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "start quiz: %v\n", err)
		return 1
	}

	store := attempt.NewMemoryStore()
	driver := play.NewDriver(session, play.DriverConfig{
		Title:    cfg.Quiz.Title,
		Duration: cfg.Quiz.Duration,
		Store:    store,
	})
	driver.Start()

	model := tui.NewModel(ctx, driver, tui.Options{NoColor: *noColor})
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(stdout), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(stderr, "run quiz: %v\n", err)
		return 1
	}

	st := driver.State()
	if m, ok := final.(tui.Model); ok {
		st = m.State()
	}
	if !st.Finished {
		fmt.Fprintln(stdout, "Quiz abandoned.")
		return 0
	}
	if st.Passed {
		fmt.Fprintln(stdout, "Passed!")
	} else {
		fmt.Fprintf(stdout, "You made %d errors.\n", st.Errors)
	}

	if *reportPath != "" {
		if err := writeReport(ctx, store, driver.ID(), *reportPath); err != nil {
			fmt.Fprintf(stderr, "write report: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Report written to %s\n", *reportPath)
	}
	return 0
}

func writeReport(ctx context.Context, store attempt.Store, id, path string) error {
	a, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Write(f, *a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
