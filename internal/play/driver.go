// Package play drives a quiz session for a user interface: navigation with
// answer saving, the countdown and final submission.
package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/attempt"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// ErrFinished is returned for commands issued after the quiz was submitted.
var ErrFinished = errors.New("quiz already finished")

// State is what a view needs to render the quiz.
type State struct {
	AttemptID string        `json:"attempt_id"`
	Title     string        `json:"title"`
	Position  int           `json:"position"`
	Page      int           `json:"page"`
	Total     int           `json:"total"`
	IsFirst   bool          `json:"is_first"`
	IsLast    bool          `json:"is_last"`
	Prompt    string        `json:"prompt"`
	Choices   string        `json:"choices"`
	Selected  []bool        `json:"selected"`
	Remaining time.Duration `json:"-"`
	Timer     string        `json:"timer,omitempty"`
	Finished  bool          `json:"finished"`
	Expired   bool          `json:"expired,omitempty"`
	Errors    int           `json:"errors"`
	Passed    bool          `json:"passed"`
}

// DriverConfig configures a Driver.
type DriverConfig struct {
	Title    string
	Duration time.Duration // zero disables the countdown
	Store    attempt.Store
	Events   attempt.EventLogger
	Now      func() time.Time
	Listener func(State)
}

// Driver owns one session and applies UI commands to it. Every command runs
// synchronously and then notifies the listener.
//
// A Driver is not safe for concurrent use.
type Driver struct {
	id        string
	title     string
	session   *quiz.Session
	store     attempt.Store
	events    attempt.EventLogger
	now       func() time.Time
	listener  func(State)
	startedAt time.Time
	deadline  time.Time

	finished bool
	expired  bool
	errors   int
}

// NewDriver creates a driver for s. The countdown starts now.
func NewDriver(s *quiz.Session, cfg DriverConfig) *Driver {
	store := cfg.Store
	if store == nil {
		store = attempt.NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = attempt.NopEventLogger{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	listener := cfg.Listener
	if listener == nil {
		listener = func(State) {}
	}

	d := &Driver{
		id:        uuid.NewString(),
		title:     cfg.Title,
		session:   s,
		store:     store,
		events:    events,
		now:       now,
		listener:  listener,
		startedAt: now(),
	}
	if cfg.Duration > 0 {
		d.deadline = d.startedAt.Add(cfg.Duration)
	}
	return d
}

// ID identifies the attempt. The saved attempt and all events carry it.
func (d *Driver) ID() string { return d.id }

// Deadline returns when the quiz expires; zero when untimed.
func (d *Driver) Deadline() time.Time { return d.deadline }

// Start announces the quiz and publishes the first state.
func (d *Driver) Start() {
	d.logEvent(attempt.EventQuizStarted, map[string]any{
		"questions": d.session.Len(),
		"title":     d.title,
	})
	d.notify()
}

// State returns the current view state.
func (d *Driver) State() State {
	q := d.session.Current()
	st := State{
		AttemptID: d.id,
		Title:     d.title,
		Position:  d.session.Position(),
		Page:      d.session.Position() + 1,
		Total:     d.session.Len(),
		IsFirst:   d.session.IsFirst(),
		IsLast:    d.session.IsLast(),
		Prompt:    q.Prompt(),
		Choices:   q.Choices(),
		Selected:  q.UserAnswers(),
		Finished:  d.finished,
		Expired:   d.expired,
	}
	if !d.deadline.IsZero() {
		st.Remaining = d.Remaining()
		st.Timer = FormatRemaining(st.Remaining)
	}
	if d.finished {
		st.Errors = d.errors
		st.Passed = d.errors == 0
	}
	return st
}

// Next saves sel for the current question and moves forward. On the last
// question it only saves.
func (d *Driver) Next(sel []bool) error {
	return d.navigate(sel, func() error {
		if d.session.IsLast() {
			return nil
		}
		return d.session.Advance()
	})
}

// Prev saves sel for the current question and moves back. On the first
// question it only saves.
func (d *Driver) Prev(sel []bool) error {
	return d.navigate(sel, func() error {
		if d.session.IsFirst() {
			return nil
		}
		return d.session.Retreat()
	})
}

// Goto saves sel for the current question and jumps to the 1-based page.
func (d *Driver) Goto(page int, sel []bool) error {
	return d.navigate(sel, func() error {
		return d.session.JumpTo(page - 1)
	})
}

// Select saves sel for the current question without moving.
func (d *Driver) Select(sel []bool) error {
	return d.navigate(sel, func() error { return nil })
}

// Finish saves sel, scores the session and stores the attempt.
func (d *Driver) Finish(ctx context.Context, sel []bool) error {
	if d.finished {
		return ErrFinished
	}
	if err := d.save(sel); err != nil {
		return err
	}
	return d.submit(ctx, false)
}

// Expire submits the quiz when the countdown ran out. Unsaved selections of
// the view are lost.
func (d *Driver) Expire(ctx context.Context) error {
	if d.finished {
		return ErrFinished
	}
	return d.submit(ctx, true)
}

func (d *Driver) navigate(sel []bool, move func() error) error {
	if d.finished {
		return ErrFinished
	}
	if err := d.save(sel); err != nil {
		return err
	}
	if err := move(); err != nil {
		return err
	}
	d.notify()
	return nil
}

// save records sel for the current question. A nil selection keeps the
// recorded answer.
func (d *Driver) save(sel []bool) error {
	if sel == nil {
		return nil
	}
	pos := d.session.Position()
	if err := d.session.RecordAnswer(pos, sel); err != nil {
		return err
	}
	d.logEvent(attempt.EventAnswerRecorded, map[string]any{
		"position":    pos,
		"question_id": d.session.Current().ID(),
	})
	return nil
}

func (d *Driver) submit(ctx context.Context, expired bool) error {
	a, err := attempt.FromSession(d.title, d.startedAt, d.session)
	if err != nil {
		return err
	}
	a.ID = d.id
	a.FinishedAt = d.now()
	a.Expired = expired

	if _, err := d.store.Save(ctx, a); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}

	d.finished = true
	d.expired = expired
	d.errors = a.Errors

	eventType := attempt.EventQuizFinished
	if expired {
		eventType = attempt.EventQuizExpired
	}
	d.logEvent(eventType, map[string]any{
		"errors":   a.Errors,
		"passed":   a.Passed(),
		"duration": a.Duration().Seconds(),
	})
	slog.Info("quiz finished",
		"attempt_id", d.id,
		"errors", a.Errors,
		"expired", expired,
	)

	d.notify()
	return nil
}

// Remaining returns the time left before the deadline; zero when untimed or
// expired.
func (d *Driver) Remaining() time.Duration {
	if d.deadline.IsZero() {
		return 0
	}
	r := d.deadline.Sub(d.now())
	if r < 0 {
		return 0
	}
	return r
}

func (d *Driver) notify() {
	d.listener(d.State())
}

func (d *Driver) logEvent(eventType string, data map[string]any) {
	if err := d.events.LogEvent(attempt.Event{
		AttemptID: d.id,
		EventType: eventType,
		Data:      data,
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "attempt_id", d.id, "error", err)
	}
}

// FormatRemaining renders d as MM:SS, rounding down to whole seconds.
// Negative durations render as 00:00.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
