package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/policydesk/policydesk/internal/policy"
)

// MemoryPath keeps the registry in memory for the life of the process.
const MemoryPath = ":memory:"

// Store provides SQLite-backed storage for policy sessions.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS policy_sessions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		last_updated TEXT NOT NULL DEFAULT '',
		document_id TEXT NOT NULL DEFAULT '',
		compliant_items INTEGER NOT NULL DEFAULT 0,
		compliance_total INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES policy_sessions(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Seed inserts sessions when the registry is empty. Seeded sessions keep
// their display label for "last updated".
func (s *Store) Seed(ctx context.Context, sessions []policy.Session) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM policy_sessions`).Scan(&count); err != nil {
		return fmt.Errorf("count sessions: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	base := s.now()
	for i, sess := range sessions {
		id := sess.ID
		if id == "" {
			id = uuid.New().String()
		}
		// Earlier entries sort first in the listing.
		created := base.Add(-time.Duration(i) * time.Second)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO policy_sessions (id, type, title, status, last_updated, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, sess.Type, sess.Title, string(sess.Status), sess.LastUpdated, created,
		); err != nil {
			return fmt.Errorf("insert seed session: %w", err)
		}
	}
	return tx.Commit()
}

// RecordPolicy registers a finalized policy as a completed session.
// Existing sessions are never modified.
func (s *Store) RecordPolicy(ctx context.Context, rec Record, transcript []policy.Message) (*policy.Session, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO policy_sessions (id, type, title, status, document_id, compliant_items, compliance_total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Type, rec.Title, string(policy.StatusCompleted), rec.DocumentID,
		rec.CompliantItems, rec.ComplianceTotal, now,
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	for _, m := range transcript {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, sender, content, timestamp) VALUES (?, ?, ?, ?)`,
			rec.ID, string(m.Sender), m.Content, m.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record: %w", err)
	}

	return &policy.Session{
		ID:          rec.ID,
		Type:        rec.Type,
		Title:       rec.Title,
		Status:      policy.StatusCompleted,
		LastUpdated: relativeTime(now, now),
	}, nil
}

// ListSessions returns up to limit sessions, newest first. A limit of zero
// or less returns all sessions.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]policy.Session, error) {
	query := `SELECT id, type, title, status, last_updated, created_at
		FROM policy_sessions
		ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	now := s.now()
	var sessions []policy.Session
	for rows.Next() {
		var (
			sess    policy.Session
			status  string
			created time.Time
		)
		if err := rows.Scan(&sess.ID, &sess.Type, &sess.Title, &status, &sess.LastUpdated, &created); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.Status = policy.SessionStatus(status)
		if sess.LastUpdated == "" {
			sess.LastUpdated = relativeTime(created, now)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// GetMessages returns the transcript recorded for a session in order.
func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]policy.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender, content, timestamp FROM messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []policy.Message
	for rows.Next() {
		var (
			id     int64
			sender string
			m      policy.Message
		)
		if err := rows.Scan(&id, &sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = fmt.Sprint(id)
		m.Sender = policy.Sender(sender)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// Stats computes the dashboard summary.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(compliant_items), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		 FROM policy_sessions`,
		string(policy.StatusReviewing),
	).Scan(&st.TotalPolicies, &st.CompliancePassed, &st.PendingReviews)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}
