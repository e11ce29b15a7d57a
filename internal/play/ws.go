package play

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

//go:embed command.schema.json
var commandSchema []byte

// Command is a client message.
type Command struct {
	Type     string `json:"type"`
	Page     int    `json:"page,omitempty"`
	Selected []bool `json:"selected,omitempty"`
}

// Message is a server message: either a state update or an error.
type Message struct {
	Type  string `json:"type"`
	State *State `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Title         string
	QuestionCount int
	Duration      time.Duration
	StrictCount   bool
	Store         attempt.Store
	Events        attempt.EventLogger
	Now           func() time.Time
	// SessionOptions are passed to quiz.NewSession, e.g. quiz.WithRand in tests.
	SessionOptions []quiz.SessionOption
}

// Handler serves one quiz per websocket connection, sampled from a shared bank.
type Handler struct {
	bank   *quiz.Bank
	cfg    HandlerConfig
	schema *gojsonschema.Schema
}

// NewHandler compiles the command schema and returns a websocket handler.
func NewHandler(bank *quiz.Bank, cfg HandlerConfig) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(commandSchema))
	if err != nil {
		return nil, fmt.Errorf("compile command schema: %w", err)
	}
	if cfg.Store == nil {
		cfg.Store = attempt.NewMemoryStore()
	}
	return &Handler{bank: bank, cfg: cfg, schema: schema}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := h.cfg.SessionOptions
	if h.cfg.StrictCount {
		opts = append(opts[:len(opts):len(opts)], quiz.WithStrictCount())
	}
	session, err := quiz.NewSession(h.bank.Clone(), h.cfg.QuestionCount, opts...)
	if err != nil {
		slog.Error("failed to start quiz session", "error", err)
		http.Error(w, "quiz unavailable", http.StatusServiceUnavailable)
		return
	}

	// A quiz outlives the server's read and write timeouts.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	driver := NewDriver(session, DriverConfig{
		Title:    h.cfg.Title,
		Duration: h.cfg.Duration,
		Store:    h.cfg.Store,
		Events:   h.cfg.Events,
		Now:      h.cfg.Now,
		Listener: func(st State) {
			h.send(ctx, conn, Message{Type: "state", State: &st})
		},
	})
	slog.Info("quiz connection opened", "attempt_id", driver.ID(), "remote", r.RemoteAddr)

	if err := h.run(ctx, conn, driver); err != nil {
		slog.Info("quiz connection closed", "attempt_id", driver.ID(), "reason", err)
		return
	}
	conn.Close(websocket.StatusNormalClosure, "quiz finished")
}

// run owns the driver: commands and the deadline are handled on this
// goroutine only. It returns nil once the quiz is submitted.
func (h *Handler) run(ctx context.Context, conn *websocket.Conn, driver *Driver) error {
	var expire <-chan time.Time
	if !driver.Deadline().IsZero() {
		timer := time.NewTimer(driver.Remaining())
		defer timer.Stop()
		expire = timer.C
	}

	incoming := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case incoming <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	driver.Start()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-expire:
			if err := driver.Expire(ctx); err != nil {
				return err
			}
			return nil
		case data := <-incoming:
			cmd, err := h.decode(data)
			if err != nil {
				h.send(ctx, conn, Message{Type: "error", Error: err.Error()})
				continue
			}
			if err := h.dispatch(ctx, driver, cmd); err != nil {
				h.send(ctx, conn, Message{Type: "error", Error: err.Error()})
				continue
			}
			if cmd.Type == "finish" {
				return nil
			}
		}
	}
}

func (h *Handler) decode(data []byte) (Command, error) {
	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Command{}, fmt.Errorf("invalid command: %s", strings.Join(msgs, "; "))
	}

	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	return cmd, nil
}

func (h *Handler) dispatch(ctx context.Context, d *Driver, cmd Command) error {
	switch cmd.Type {
	case "next":
		return d.Next(cmd.Selected)
	case "prev":
		return d.Prev(cmd.Selected)
	case "goto":
		return d.Goto(cmd.Page, cmd.Selected)
	case "select":
		return d.Select(cmd.Selected)
	case "finish":
		return d.Finish(ctx, cmd.Selected)
	default:
		return fmt.Errorf("unknown command: %s", cmd.Type)
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg Message) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		slog.Warn("websocket write failed", "type", msg.Type, "error", err)
	}
}
