package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

const defaultHistoryLimit = 50

// RecordArchive implements imagery.Archive on SQLite (pure Go driver modernc.org/sqlite).
type RecordArchive struct {
	db *sql.DB
}

// NewRecordArchive opens (or creates) the database at path and applies the schema.
func NewRecordArchive(path string) (*RecordArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL keeps readers from blocking the occasional insert.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Println("warning: could not set WAL mode:", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS records (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        lat REAL NOT NULL,
        lon REAL NOT NULL,
        date TEXT NOT NULL,
        url TEXT,
        metadata TEXT NOT NULL,
        fetched_at TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id, id);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &RecordArchive{db: db}, nil
}

func (a *RecordArchive) SaveRecord(ctx context.Context, sessionID string, rec imagery.Record) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = a.db.ExecContext(ctx,
		`INSERT INTO records(session_id, lat, lon, date, url, metadata, fetched_at) VALUES(?,?,?,?,?,?,?)`,
		sessionID, rec.Coordinate.Lat, rec.Coordinate.Lon, common.FormatDate(rec.Date), rec.URL,
		string(meta), rec.FetchedAt.UTC().Format(time.RFC3339))
	return err
}

// ListRecords returns the session's records, newest first.
func (a *RecordArchive) ListRecords(ctx context.Context, sessionID string, limit int) ([]imagery.Record, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT lat, lon, date, url, metadata, fetched_at FROM records WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]imagery.Record, 0)
	for rows.Next() {
		var (
			rec           imagery.Record
			date, fetched string
			rawURL        sql.NullString
			meta          string
		)
		if err := rows.Scan(&rec.Coordinate.Lat, &rec.Coordinate.Lon, &date, &rawURL, &meta, &fetched); err != nil {
			return nil, err
		}
		rec.URL = rawURL.String
		if d, err := common.ParseDate(date); err == nil {
			rec.Date = d
		}
		if t, err := time.Parse(time.RFC3339, fetched); err == nil {
			rec.FetchedAt = t
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(meta)))
		dec.UseNumber()
		if err := dec.Decode(&rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (a *RecordArchive) Close() error {
	return a.db.Close()
}
