package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/hashan1998-it/unichat-tui/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// postRow is the database representation of a cached post.
type postRow struct {
	ID        string    `db:"id"`
	Author    string    `db:"author"`
	Content   string    `db:"content"`
	Image     string    `db:"image"`
	PostType  string    `db:"post_type"`
	Likes     string    `db:"likes"`
	Comments  string    `db:"comments"`
	CreatedAt time.Time `db:"created_at"`
	FetchedAt time.Time `db:"fetched_at"`
}

// UpsertPosts inserts or replaces a batch of cached posts.
func (s *SQLiteStore) UpsertPosts(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO posts (
			id, author, content, image, post_type,
			likes, comments, created_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range posts {
		author, err := json.Marshal(p.Author)
		if err != nil {
			return fmt.Errorf("marshaling author for post %s: %w", p.ID, err)
		}
		likes, err := json.Marshal(p.Likes)
		if err != nil {
			return fmt.Errorf("marshaling likes for post %s: %w", p.ID, err)
		}
		comments, err := json.Marshal(p.Comments)
		if err != nil {
			return fmt.Errorf("marshaling comments for post %s: %w", p.ID, err)
		}

		_, err = stmt.ExecContext(ctx,
			p.ID, string(author), p.Content, p.Image, p.PostType,
			string(likes), string(comments), p.CreatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("upserting post %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetPosts retrieves cached posts, newest first.
func (s *SQLiteStore) GetPosts(ctx context.Context, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []postRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM posts ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying cached posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for _, r := range rows {
		p := model.Post{
			ID:        r.ID,
			Content:   r.Content,
			Image:     r.Image,
			PostType:  r.PostType,
			CreatedAt: r.CreatedAt,
		}
		if err := json.Unmarshal([]byte(r.Author), &p.Author); err != nil {
			return nil, fmt.Errorf("unmarshaling author for post %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Likes), &p.Likes); err != nil {
			return nil, fmt.Errorf("unmarshaling likes for post %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.Comments), &p.Comments); err != nil {
			return nil, fmt.Errorf("unmarshaling comments for post %s: %w", r.ID, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// notificationRow is the database representation of a cached notification.
type notificationRow struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	Content   string    `db:"content"`
	Link      string    `db:"link"`
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

// UpsertNotifications inserts or replaces a batch of cached
// notifications. A notification that arrived without a server id is
// assigned a local one so the primary key holds.
func (s *SQLiteStore) UpsertNotifications(
	ctx context.Context,
	notifications []model.Notification,
) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, type, content, link, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range notifications {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err = stmt.ExecContext(ctx,
			id, string(n.Type), n.Content, n.Link, n.Read, n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting notification %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// GetNotifications retrieves cached notifications, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	limit int,
) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM notifications ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, model.Notification{
			ID:        r.ID,
			Type:      model.NotificationType(r.Type),
			Content:   r.Content,
			Link:      r.Link,
			Read:      r.Read,
			CreatedAt: r.CreatedAt,
		})
	}
	return notifications, nil
}
