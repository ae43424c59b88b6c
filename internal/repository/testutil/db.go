package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"marginalia/backend/internal/db"
	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"

	_ "modernc.org/sqlite"
)

// snowflakeOnce makes sure the ID generator is initialized exactly once
// across parallel tests.
var snowflakeOnce sync.Once

// NewTestDB opens an in-memory SQLite database and runs all migrations.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	snowflakeOnce.Do(func() {
		if err := snowflake.Init(0); err != nil {
			// t.Fatalf is not usable inside sync.Once, so panic.
			panic("failed to initialize snowflake: " + err.Error())
		}
	})

	// Shared-cache memory databases support concurrent access; a unique
	// name per test keeps them isolated from each other.
	dbName := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name(), time.Now().UnixNano())
	database, err := sql.Open("sqlite", dbName)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SeedUser inserts a test user and returns its ID.
func SeedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()

	id := snowflake.NextID()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at) VALUES (?, ?, '', 'test-hash', ?, ?)`,
		id, username, now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return id
}

// SeedDocument inserts a test document and returns its ID.
func SeedDocument(t *testing.T, db *sql.DB, key string) int64 {
	t.Helper()

	id := snowflake.NextID()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO documents (id, key, title, blob_url, size_bytes, created_at, updated_at) VALUES (?, ?, '', '', 0, ?, ?)`,
		id, key, now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}

	return id
}

// SeedAnnotation inserts a test annotation and returns its ID. Counters
// on the document are not touched; tests that care seed through the
// repository instead.
func SeedAnnotation(t *testing.T, db *sql.DB, annotation model.Annotation) int64 {
	t.Helper()

	if annotation.ID == 0 {
		annotation.ID = snowflake.NextID()
	}
	if annotation.ClientID == "" {
		annotation.ClientID = uuid.NewString()
	}

	now := time.Now().UTC().Format(time.RFC3339)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO annotations (id, document_key, user_id, client_id, x, y, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		annotation.ID, annotation.DocumentKey, annotation.UserID, annotation.ClientID,
		annotation.X, annotation.Y, annotation.Note, now, now,
	)
	if err != nil {
		t.Fatalf("failed to seed annotation: %v", err)
	}

	return annotation.ID
}

// SeedComment inserts a test comment and returns its ID.
func SeedComment(t *testing.T, db *sql.DB, comment model.Comment) int64 {
	t.Helper()

	if comment.ID == 0 {
		comment.ID = snowflake.NextID()
	}
	if comment.Hash == "" {
		comment.Hash = uuid.NewString()
	}

	now := time.Now().UTC().Format(time.RFC3339)

	var parentID interface{}
	if comment.ParentID != nil {
		parentID = *comment.ParentID
	}

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO comments (id, document_id, user_id, body, parent_id, hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.DocumentID, comment.UserID, comment.Body, parentID, comment.Hash, now,
	)
	if err != nil {
		t.Fatalf("failed to seed comment: %v", err)
	}

	return comment.ID
}

// SeedWallet inserts a linked wallet and returns its ID.
func SeedWallet(t *testing.T, db *sql.DB, userID int64, address string, isPrimary bool) int64 {
	t.Helper()

	id := snowflake.NextID()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO wallets (id, user_id, address, is_primary, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, userID, address, boolToInt(isPrimary), now,
	)
	if err != nil {
		t.Fatalf("failed to seed wallet: %v", err)
	}

	return id
}
