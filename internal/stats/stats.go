// Package stats provides SQLite-backed session and message logging with
// usage aggregates for the operator dashboard.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	start_time DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	timestamp  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	query_text TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
`

// Recorder is the interface the API layer depends on. Consumers should use
// this rather than *DB so tests can substitute a fake.
type Recorder interface {
	EnsureSession(id string, startedAt time.Time) error
	LogMessage(sessionID, queryText string, ts time.Time) error
	Aggregates(now time.Time) (*Payload, error)
	Close() error
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)

// DB wraps a sql.DB with stats-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("stats: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stats: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stats: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSession records a session id if it has not been seen before.
func (db *DB) EnsureSession(id string, startedAt time.Time) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO sessions (session_id, start_time) VALUES (?, ?)`,
		id, startedAt)
	if err != nil {
		return fmt.Errorf("stats: ensure session: %w", err)
	}
	return nil
}

// LogMessage stores one incoming query under its session.
func (db *DB) LogMessage(sessionID, queryText string, ts time.Time) error {
	_, err := db.conn.Exec(
		`INSERT INTO messages (session_id, timestamp, query_text) VALUES (?, ?, ?)`,
		sessionID, ts, queryText)
	if err != nil {
		return fmt.Errorf("stats: log message: %w", err)
	}
	return nil
}

// PeriodStats counts requests and sessions inside one reporting window.
type PeriodStats struct {
	Period   string `json:"period"`
	Requests int    `json:"requests"`
	Sessions int    `json:"sessions"`
}

// SessionMessages is the per-session message count.
type SessionMessages struct {
	SessionID string `json:"session_id"`
	Messages  int    `json:"messages_count"`
}

// Payload is the aggregate report served by the stats endpoint.
type Payload struct {
	Aggregates                  []PeriodStats     `json:"aggregates"`
	MessagesPerSession          []SessionMessages `json:"messages_per_session"`
	PercentSessionsWithMessages float64           `json:"percent_sessions_with_messages"`
}

// Aggregates builds the usage report relative to now.
func (db *DB) Aggregates(now time.Time) (*Payload, error) {
	windows := []struct {
		label string
		delta time.Duration
	}{
		{"day", 24 * time.Hour},
		{"week", 7 * 24 * time.Hour},
		{"month", 30 * 24 * time.Hour},
		{"all_time", 0},
	}

	p := &Payload{}
	for _, w := range windows {
		from := time.Unix(0, 0)
		if w.delta > 0 {
			from = now.Add(-w.delta)
		}
		var requests, sessions int
		if err := db.conn.QueryRow(
			`SELECT COUNT(*) FROM messages WHERE timestamp >= ?`, from).Scan(&requests); err != nil {
			return nil, fmt.Errorf("stats: count messages: %w", err)
		}
		if err := db.conn.QueryRow(
			`SELECT COUNT(*) FROM sessions WHERE start_time >= ?`, from).Scan(&sessions); err != nil {
			return nil, fmt.Errorf("stats: count sessions: %w", err)
		}
		p.Aggregates = append(p.Aggregates, PeriodStats{Period: w.label, Requests: requests, Sessions: sessions})
	}

	rows, err := db.conn.Query(`
		SELECT s.session_id, COUNT(m.id)
		FROM sessions s
		LEFT JOIN messages m ON s.session_id = m.session_id
		GROUP BY s.session_id
		ORDER BY s.session_id`)
	if err != nil {
		return nil, fmt.Errorf("stats: messages per session: %w", err)
	}
	defer rows.Close()

	totalSessions := 0
	withMessages := 0
	for rows.Next() {
		var sm SessionMessages
		if err := rows.Scan(&sm.SessionID, &sm.Messages); err != nil {
			return nil, fmt.Errorf("stats: scan session row: %w", err)
		}
		totalSessions++
		if sm.Messages > 0 {
			withMessages++
		}
		p.MessagesPerSession = append(p.MessagesPerSession, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterate sessions: %w", err)
	}

	if totalSessions > 0 {
		p.PercentSessionsWithMessages = 100 * float64(withMessages) / float64(totalSessions)
	}
	return p, nil
}
