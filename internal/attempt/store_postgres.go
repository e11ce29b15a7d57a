package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-quiz/internal/platform/database"
)

const dbTimeout = 5 * time.Second

// Schema creates the tables used by PostgresStore and PostgresEventLogger.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id          UUID PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		expired     BOOLEAN NOT NULL DEFAULT FALSE,
		errors      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempt_items (
		attempt_id  UUID NOT NULL REFERENCES quiz_attempts(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		question_id TEXT NOT NULL,
		prompt      TEXT NOT NULL,
		correct     JSONB NOT NULL,
		selected    JSONB NOT NULL,
		errors      INTEGER NOT NULL,
		PRIMARY KEY (attempt_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS quiz_attempts_finished_at_idx ON quiz_attempts (finished_at DESC)`,
	`CREATE TABLE IF NOT EXISTS quiz_events (
		id         BIGSERIAL PRIMARY KEY,
		attempt_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		data       JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema applies Schema to the database.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := database.Migrate(ctx, pool, Schema); err != nil {
		return fmt.Errorf("ensure attempt schema: %w", err)
	}
	return nil
}

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed attempt store. The schema must
// already exist; see EnsureSchema.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, a Attempt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now()
	}

	err := database.WithinTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quiz_attempts (id, title, started_at, finished_at, expired, errors)
			 VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
			a.ID,
			a.Title,
			a.StartedAt,
			a.FinishedAt,
			a.Expired,
			a.Errors,
		); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}

		batch := &pgx.Batch{}
		for _, item := range a.Items {
			correct, err := json.Marshal(item.Correct)
			if err != nil {
				return fmt.Errorf("marshal correct answers: %w", err)
			}
			selected, err := json.Marshal(nonNil(item.Selected))
			if err != nil {
				return fmt.Errorf("marshal selected answers: %w", err)
			}
			batch.Queue(
				`INSERT INTO quiz_attempt_items (attempt_id, position, question_id, prompt, correct, selected, errors)
				 VALUES ($1::uuid, $2, $3, $4, $5::jsonb, $6::jsonb, $7)`,
				a.ID,
				item.Position,
				item.QuestionID,
				item.Prompt,
				string(correct),
				string(selected),
				item.Errors,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert attempt items: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return a.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	a := &Attempt{}
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, title, started_at, finished_at, expired, errors
		 FROM quiz_attempts
		 WHERE id = $1::uuid`,
		id,
	).Scan(&a.ID, &a.Title, &a.StartedAt, &a.FinishedAt, &a.Expired, &a.Errors)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT question_id, position, prompt, correct, selected, errors
		 FROM quiz_attempt_items
		 WHERE attempt_id = $1::uuid
		 ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempt items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		var correct, selected []byte
		if err := rows.Scan(
			&item.QuestionID,
			&item.Position,
			&item.Prompt,
			&correct,
			&selected,
			&item.Errors,
		); err != nil {
			return nil, fmt.Errorf("scan attempt item: %w", err)
		}
		if err := json.Unmarshal(correct, &item.Correct); err != nil {
			return nil, fmt.Errorf("decode correct answers: %w", err)
		}
		if err := json.Unmarshal(selected, &item.Selected); err != nil {
			return nil, fmt.Errorf("decode selected answers: %w", err)
		}
		a.Items = append(a.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt items: %w", err)
	}

	return a, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Attempt, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, title, started_at, finished_at, expired, errors
		 FROM quiz_attempts
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.Title, &a.StartedAt, &a.FinishedAt, &a.Expired, &a.Errors); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}

	return out, nil
}

func nonNil(v []bool) []bool {
	if v == nil {
		return []bool{}
	}
	return v
}
