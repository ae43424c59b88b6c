package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
  id INTEGER PRIMARY KEY,
  key TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL DEFAULT '',
  blob_url TEXT NOT NULL DEFAULT '',
  size_bytes INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
  id INTEGER PRIMARY KEY,
  document_key TEXT NOT NULL,
  user_id INTEGER NOT NULL,
  client_id TEXT NOT NULL,
  x REAL NOT NULL,
  y REAL NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_annotations_document_key ON annotations(document_key);
CREATE UNIQUE INDEX IF NOT EXISTS idx_annotations_doc_user_client
  ON annotations(document_key, user_id, client_id);

CREATE TABLE IF NOT EXISTS annotation_text_items (
  id INTEGER PRIMARY KEY,
  annotation_id INTEGER NOT NULL,
  x REAL NOT NULL,
  y REAL NOT NULL,
  text TEXT NOT NULL DEFAULT '',
  font_family TEXT NOT NULL DEFAULT '',
  font_size TEXT NOT NULL DEFAULT '',
  font_weight TEXT NOT NULL DEFAULT '',
  font_style TEXT NOT NULL DEFAULT '',
  color TEXT NOT NULL DEFAULT '',
  opacity REAL NOT NULL DEFAULT 1,
  FOREIGN KEY (annotation_id) REFERENCES annotations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_annotation_text_items_annotation
  ON annotation_text_items(annotation_id);

CREATE TABLE IF NOT EXISTS annotation_arrow_items (
  id INTEGER PRIMARY KEY,
  annotation_id INTEGER NOT NULL,
  x1 REAL NOT NULL,
  y1 REAL NOT NULL,
  x2 REAL NOT NULL,
  y2 REAL NOT NULL,
  FOREIGN KEY (annotation_id) REFERENCES annotations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_annotation_arrow_items_annotation
  ON annotation_arrow_items(annotation_id);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: Create document_votes table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS document_votes (
			id INTEGER PRIMARY KEY,
			document_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			value INTEGER NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("create document_votes table: %w", err)
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_document_votes_doc_user ON document_votes(document_id, user_id)`); err != nil {
		return fmt.Errorf("create idx_document_votes_doc_user: %w", err)
	}

	// Migration 2: Add denormalized counters to documents and backfill
	if err := migrateDocumentCounters(db); err != nil {
		return fmt.Errorf("migrate document counters: %w", err)
	}

	// Migration 3: Create comments table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY,
			document_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			body TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_comments_document_id ON comments(document_id)`); err != nil {
		return fmt.Errorf("create idx_comments_document_id: %w", err)
	}

	// Migration 4: Add parent_id column to comments for replies
	exists, err := hasColumn(db, "comments", "parent_id")
	if err != nil {
		return fmt.Errorf("check parent_id column: %w", err)
	}
	if !exists {
		if _, err := db.Exec(`ALTER TABLE comments ADD COLUMN parent_id INTEGER REFERENCES comments(id) ON DELETE CASCADE`); err != nil {
			return fmt.Errorf("add parent_id column: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments(parent_id)`); err != nil {
		return fmt.Errorf("create idx_comments_parent_id: %w", err)
	}

	// Migration 5: Create comment_votes table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS comment_votes (
			id INTEGER PRIMARY KEY,
			comment_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			value INTEGER NOT NULL,
			FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("create comment_votes table: %w", err)
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_comment_votes_comment_user ON comment_votes(comment_id, user_id)`); err != nil {
		return fmt.Errorf("create idx_comment_votes_comment_user: %w", err)
	}

	// Migration 6: Add hash column to comments and backfill with UUIDs
	if err := migrateCommentHash(db); err != nil {
		return fmt.Errorf("migrate comment hash: %w", err)
	}

	// Migration 7: Create banned_users table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS banned_users (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			reason TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create banned_users table: %w", err)
	}

	// Migration 8: Create wallets table
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS wallets (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			address TEXT NOT NULL UNIQUE,
			is_primary INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)
	`); err != nil {
		return fmt.Errorf("create wallets table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_wallets_user_id ON wallets(user_id)`); err != nil {
		return fmt.Errorf("create idx_wallets_user_id: %w", err)
	}

	return nil
}

func migrateDocumentCounters(db *sql.DB) error {
	for _, column := range []string{"annotation_count", "comment_count", "vote_score"} {
		exists, err := hasColumn(db, "documents", column)
		if err != nil {
			return fmt.Errorf("check %s column: %w", column, err)
		}
		if exists {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE documents ADD COLUMN %s INTEGER NOT NULL DEFAULT 0`, column)); err != nil {
			return fmt.Errorf("add %s column: %w", column, err)
		}

		switch column {
		case "annotation_count":
			if _, err := db.Exec(`
				UPDATE documents SET annotation_count = (
					SELECT COUNT(*) FROM annotations WHERE annotations.document_key = documents.key
				)
			`); err != nil {
				return fmt.Errorf("backfill annotation_count: %w", err)
			}
		case "vote_score":
			if _, err := db.Exec(`
				UPDATE documents SET vote_score = COALESCE((
					SELECT SUM(value) FROM document_votes WHERE document_votes.document_id = documents.id
				), 0)
			`); err != nil {
				return fmt.Errorf("backfill vote_score: %w", err)
			}
		}
	}
	return nil
}

func migrateCommentHash(db *sql.DB) error {
	exists, err := hasColumn(db, "comments", "hash")
	if err != nil {
		return fmt.Errorf("check hash column: %w", err)
	}
	if !exists {
		if _, err := db.Exec(`ALTER TABLE comments ADD COLUMN hash TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add hash column: %w", err)
		}
	}

	rows, err := db.Query(`SELECT id FROM comments WHERE hash = ''`)
	if err != nil {
		return fmt.Errorf("query comments for hash backfill: %w", err)
	}
	defer rows.Close()

	var pending []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan comment for hash backfill: %w", err)
		}
		pending = append(pending, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comments for hash backfill: %w", err)
	}

	for _, id := range pending {
		if _, err := db.Exec(`UPDATE comments SET hash = ? WHERE id = ?`, uuid.NewString(), id); err != nil {
			return fmt.Errorf("update comment hash: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_comments_hash ON comments(hash)`); err != nil {
		return fmt.Errorf("create idx_comments_hash: %w", err)
	}

	return nil
}

func hasColumn(db *sql.DB, table string, column string) (bool, error) {
	var count int
	if err := db.QueryRow(
		fmt.Sprintf(`SELECT COUNT(*) FROM pragma_table_info('%s') WHERE name = ?`, table),
		column,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
