// Package archive keeps a local history of every notification the
// client has seen, so the "history" view can page through old entries
// offline. It is fed from the in-memory store and is never the source
// of truth: unread counts and the live list always come from the
// notify package, and the server owns retention of the real records.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ducpham/marketdesk/internal/model"
)

// Filter controls history queries.
type Filter struct {
	Kind   *model.NotificationKind
	Limit  int
	Offset int
}

// row is the sqlite shape of an archived notification.
type row struct {
	ID         string    `db:"id"`
	Kind       string    `db:"kind"`
	Title      string    `db:"title"`
	Message    string    `db:"message"`
	Payload    string    `db:"payload"`
	Read       bool      `db:"read"`
	CreatedAt  time.Time `db:"created_at"`
	ArchivedAt time.Time `db:"archived_at"`
}

// Archive is a SQLite-backed notification history.
type Archive struct {
	db     *sqlx.DB
	userID string
}

// Open opens (or creates) the archive database at dbPath for the
// given user, enables WAL mode, and runs any pending migrations.
func Open(dbPath, userID string) (*Archive, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	a := &Archive{db: db, userID: userID}
	if err := a.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return a, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (a *Archive) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := a.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = a.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := a.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := a.db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Record inserts or replaces a batch of notifications. Idempotent on
// id, matching the in-memory store's dedup semantics. A record that
// is read locally stays read in the archive even if a stale unread
// copy is re-archived later.
func (a *Archive) Record(ctx context.Context, recs []model.Notification) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO notifications (
			id, kind, title, message, payload, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind    = excluded.kind,
			title   = excluded.title,
			message = excluded.message,
			payload = excluded.payload,
			read    = MAX(notifications.read, excluded.read)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range recs {
		payload, err := json.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("marshaling payload for %s: %w", n.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			n.ID, string(n.Kind), n.Title, n.Message,
			string(payload), n.ReadByUser(a.userID), n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("archiving notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// MarkRead flips an archived entry to read. Called alongside the
// reconciler's optimistic update so history stays consistent.
func (a *Archive) MarkRead(ctx context.Context, id string) error {
	if _, err := a.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("marking archived notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead flips every archived entry to read.
func (a *Archive) MarkAllRead(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE read = 0"); err != nil {
		return fmt.Errorf("marking archive read: %w", err)
	}
	return nil
}

// List returns archived notifications, newest first.
func (a *Archive) List(ctx context.Context, f Filter) ([]model.Notification, error) {
	query := "SELECT * FROM notifications"
	var args []interface{}

	if f.Kind != nil {
		query += " WHERE kind = ?"
		args = append(args, string(*f.Kind))
	}

	query += " ORDER BY created_at DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}

	var rows []row
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing archived notifications: %w", err)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toNotification(a.userID))
	}
	return out, nil
}

// Count returns the number of archived entries matching the filter.
func (a *Archive) Count(ctx context.Context, f Filter) (int, error) {
	query := "SELECT COUNT(*) FROM notifications"
	var args []interface{}
	if f.Kind != nil {
		query += " WHERE kind = ?"
		args = append(args, string(*f.Kind))
	}

	var count int
	if err := a.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting archived notifications: %w", err)
	}
	return count, nil
}

func (r row) toNotification(userID string) model.Notification {
	n := model.Notification{
		ID:        r.ID,
		Kind:      model.NotificationKind(r.Kind),
		Title:     r.Title,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
	if r.Payload != "" && r.Payload != "{}" {
		_ = json.Unmarshal([]byte(r.Payload), &n.Payload)
	}
	if r.Read {
		n.ReadBy = []string{userID}
	}
	return n
}
