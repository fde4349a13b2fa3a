package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/interlingua/internal/db"
	"github.com/ziadkadry99/interlingua/internal/pipeline"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("history: entry not found")

// Store provides persistence for answered questions. It implements
// pipeline.Recorder.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

var _ pipeline.Recorder = (*Store)(nil)

// Record inserts a finished pipeline result under a new UUID.
func (s *Store) Record(ctx context.Context, r *pipeline.Result) error {
	if r == nil {
		return fmt.Errorf("recording answer: nil result")
	}

	intentJSON, err := json.Marshal(r.Intent)
	if err != nil {
		return fmt.Errorf("marshalling intent: %w", err)
	}
	docIDs, err := json.Marshal(orEmpty(r.DocumentIDs))
	if err != nil {
		return fmt.Errorf("marshalling document ids: %w", err)
	}
	sources, err := json.Marshal(orEmpty(r.Sources))
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO answers (
			id, request_id, question, markdown, article, intent,
			primary_discipline, query_type, document_ids, sources, mode,
			intent_fallback, repaired, audited, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		r.RequestID,
		r.Question,
		r.Markdown,
		r.Article.JSON(),
		string(intentJSON),
		string(r.Intent.PrimaryDiscipline),
		string(r.Intent.QueryType),
		string(docIDs),
		string(sources),
		string(r.Mode),
		r.IntentFallback,
		r.Repaired,
		r.Audited,
		r.Duration.Milliseconds(),
		createdAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting answer: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, request_id, question, markdown, article, intent,
	primary_discipline, query_type, document_ids, sources, mode,
	intent_fallback, repaired, audited, duration_ms, created_at FROM answers`

// Get retrieves a single entry by ID.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// List returns entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	where, args := filter.clauses()

	query := selectColumns + where + " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying answers: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Count returns the number of entries matching the filter. Limit and
// Offset are ignored.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int, error) {
	where, args := filter.clauses()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM answers"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting answers: %w", err)
	}
	return n, nil
}

// DeleteBefore removes all entries older than the given time and returns
// the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM answers WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old answers: %w", err)
	}
	return res.RowsAffected()
}

func (f QueryFilter) clauses() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Discipline != "" {
		clauses = append(clauses, "primary_discipline = ?")
		args = append(args, f.Discipline)
	}
	if f.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, f.Mode)
	}
	if f.Contains != "" {
		clauses = append(clauses, "question LIKE ?")
		args = append(args, "%"+f.Contains+"%")
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(time.DateTime))
	}
	if f.Until != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.Until.UTC().Format(time.DateTime))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e                                        Entry
		articleJSON, intentJSON, docIDs, sources string
		durationMS                               int64
		ts                                       string
	)

	err := sc.Scan(
		&e.ID, &e.RequestID, &e.Question, &e.Markdown, &articleJSON, &intentJSON,
		&e.PrimaryDiscipline, &e.QueryType, &docIDs, &sources, &e.Mode,
		&e.IntentFallback, &e.Repaired, &e.Audited, &durationMS, &ts,
	)
	if err != nil {
		return nil, err
	}

	e.Duration = time.Duration(durationMS) * time.Millisecond
	e.CreatedAt = parseTimestamp(ts)

	if err := json.Unmarshal([]byte(articleJSON), &e.Article); err != nil {
		return nil, fmt.Errorf("decoding article of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(intentJSON), &e.Intent); err != nil {
		return nil, fmt.Errorf("decoding intent of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(docIDs), &e.DocumentIDs); err != nil {
		e.DocumentIDs = nil
	}
	if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
		e.Sources = nil
	}
	return &e, nil
}

// parseTimestamp accepts both the format written by Record and the RFC 3339
// form the driver may return for DATETIME columns.
func parseTimestamp(ts string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
