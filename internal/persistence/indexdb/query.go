package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// OpenQuery opens an existing index file for queries without starting a
// writer.
func OpenQuery(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

type EventCount struct {
	Type  string
	Count int
}

// EventCounts groups indexed controller events by type, most frequent first.
func EventCounts(ctx context.Context, db *sql.DB) ([]EventCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT type, COUNT(*) FROM events GROUP BY type ORDER BY COUNT(*) DESC, type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EventCount
	for rows.Next() {
		var c EventCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type AuditRow struct {
	Tick   uint64
	Actor  string
	Line   string
	Code   string
	Reason string
}

// Failures lists commands that did not return OK, newest first.
func Failures(ctx context.Context, db *sql.DB, limit int) ([]AuditRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT tick, actor, line, code, COALESCE(reason,'') FROM audits WHERE code <> 'OK' ORDER BY tick DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditRow
	for rows.Next() {
		var r AuditRow
		var tick int64
		if err := rows.Scan(&tick, &r.Actor, &r.Line, &r.Code, &r.Reason); err != nil {
			return nil, err
		}
		r.Tick = uint64(tick)
		out = append(out, r)
	}
	return out, rows.Err()
}
