package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/use-agent/ratewalk/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	award TEXT NOT NULL,
	classification TEXT NOT NULL,
	age TEXT NOT NULL,
	hourly_rate TEXT NOT NULL,
	choices TEXT NOT NULL,
	rates_markdown TEXT NOT NULL DEFAULT '',
	captured_at INTEGER NOT NULL,
	UNIQUE (award, classification, age)
);

CREATE TABLE IF NOT EXISTS penalties (
	entry_id INTEGER NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	rate TEXT NOT NULL,
	PRIMARY KEY (entry_id, position)
);
`

// SQLite stores entries in a SQLite database. Capturing the same
// combination again replaces the earlier row.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Write(ctx context.Context, entry *models.Entry) error {
	choices, err := json.Marshal(entry.Choices)
	if err != nil {
		return fmt.Errorf("dataset: encode choices: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries WHERE award = ? AND classification = ? AND age = ?",
		entry.Award, entry.Classification, entry.Age,
	); err != nil {
		return fmt.Errorf("dataset: replace entry: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (award, classification, age, hourly_rate, choices, rates_markdown, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Award, entry.Classification, entry.Age, entry.HourlyRate,
		string(choices), entry.RatesMarkdown, entry.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("dataset: insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, p := range entry.Penalties {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO penalties (entry_id, position, name, rate) VALUES (?, ?, ?, ?)",
			id, i, p.Name, p.Rate,
		); err != nil {
			return fmt.Errorf("dataset: insert penalty: %w", err)
		}
	}
	return tx.Commit()
}

// Entries reads back every entry of award, ordered by insertion.
func (s *SQLite) Entries(ctx context.Context, award string) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, award, classification, age, hourly_rate, choices, rates_markdown, captured_at
		FROM entries WHERE award = ? ORDER BY id`, award)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		entries []*models.Entry
		ids     []int64
	)
	for rows.Next() {
		var (
			e       models.Entry
			id      int64
			choices string
		)
		if err := rows.Scan(&id, &e.Award, &e.Classification, &e.Age, &e.HourlyRate, &choices, &e.RatesMarkdown, &e.CapturedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(choices), &e.Choices); err != nil {
			return nil, fmt.Errorf("dataset: decode choices: %w", err)
		}
		e.Penalties = []models.Penalty{}
		entries = append(entries, &e)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		prows, err := s.db.QueryContext(ctx,
			"SELECT name, rate FROM penalties WHERE entry_id = ? ORDER BY position", id)
		if err != nil {
			return nil, err
		}
		for prows.Next() {
			var p models.Penalty
			if err := prows.Scan(&p.Name, &p.Rate); err != nil {
				prows.Close()
				return nil, err
			}
			entries[i].Penalties = append(entries[i].Penalties, p)
		}
		err = prows.Err()
		prows.Close()
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
