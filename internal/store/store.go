package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/hotdigest/pkg/trend"
)

// ErrNoRun is returned when no digest run has been saved yet.
var ErrNoRun = errors.New("no run saved")

// Run is one completed digest: its metadata, highlights, report and ranked items.
type Run struct {
	ID             string             `db:"id" json:"id"`
	GeneratedAt    time.Time          `db:"generated_at" json:"generated_at"`
	Keyword        string             `db:"keyword" json:"keyword,omitempty"`
	ItemCount      int                `db:"item_count" json:"item_count"`
	HighlightsJSON string             `db:"highlights" json:"-"`
	Highlights     []string           `db:"-" json:"highlights"`
	Report         string             `db:"report" json:"-"`
	Items          []trend.RankedItem `db:"-" json:"-"`
}

// ListOpts controls item listing.
type ListOpts struct {
	Category trend.Category
	Source   string
	Limit    int
}

// Store is the persistence interface. Only the latest run is kept.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	LatestRun(ctx context.Context) (*Run, error)
	ListItems(ctx context.Context, opts ListOpts) ([]trend.RankedItem, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations. ":memory:" opens a private
// in-memory database.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun replaces the stored run and its items in a single transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	highlights := run.Highlights
	if highlights == nil {
		highlights = []string{}
	}
	highlightsJSON, err := json.Marshal(highlights)
	if err != nil {
		return fmt.Errorf("encode highlights: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_items"); err != nil {
		return fmt.Errorf("clear run items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, generated_at, keyword, item_count, highlights, report)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.GeneratedAt.UTC(), run.Keyword, len(run.Items), string(highlightsJSON), run.Report)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO run_items (run_id, rank, source, title, url, heat, time, content, score, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range run.Items {
		_, err := stmt.ExecContext(ctx, run.ID, i+1, item.Source, item.Title, item.URL,
			item.Heat, item.Time, item.Content, item.Score, string(item.Category))
		if err != nil {
			return fmt.Errorf("insert item %d of run %s: %w", i+1, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	run.ItemCount = len(run.Items)
	return nil
}

// LatestRun returns the stored run without its items. It returns ErrNoRun
// when nothing has been saved.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, `
		SELECT id, generated_at, keyword, item_count, highlights, report
		FROM runs ORDER BY generated_at DESC LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	if err := json.Unmarshal([]byte(run.HighlightsJSON), &run.Highlights); err != nil {
		return nil, fmt.Errorf("decode highlights of run %s: %w", run.ID, err)
	}
	return &run, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ListItems returns the stored items in rank order. Source matches any
// component of a composite origin label.
func (s *SQLiteStore) ListItems(ctx context.Context, opts ListOpts) ([]trend.RankedItem, error) {
	query := "SELECT source, title, url, heat, time, content, score, category FROM run_items WHERE 1=1"
	var args []any

	if opts.Category != "" {
		query += " AND category = ?"
		args = append(args, string(opts.Category))
	}
	if opts.Source != "" {
		query += ` AND ('|' || REPLACE(source, ' | ', '|') || '|') LIKE ? ESCAPE '\'`
		args = append(args, "%|"+likeEscaper.Replace(opts.Source)+"|%")
	}

	query += " ORDER BY rank"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var items []trend.RankedItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}
