//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"
)

// DocumentSort names the orderings the document list supports.
type DocumentSort string

const (
	DocumentSortKey         DocumentSort = "key"
	DocumentSortVotes       DocumentSort = "votes"
	DocumentSortAnnotations DocumentSort = "annotations"
	DocumentSortComments    DocumentSort = "comments"
)

// DocumentListOptions controls pagination and ordering of List.
type DocumentListOptions struct {
	Sort   DocumentSort
	Limit  int
	Offset int
}

// DocumentRepository defines the interface for document storage.
type DocumentRepository interface {
	Upsert(ctx context.Context, key, title, blobURL string, sizeBytes int64) (*model.Document, error)
	GetByKey(ctx context.Context, key string) (*model.Document, error)
	List(ctx context.Context, opts DocumentListOptions) ([]model.Document, error)
	Count(ctx context.Context) (int, error)
	SetVote(ctx context.Context, documentID, userID int64, value int) error
	RemoveVote(ctx context.Context, documentID, userID int64) error
	GetVote(ctx context.Context, documentID, userID int64) (int, error)
}

type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sql.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, key, title, blob_url, size_bytes, annotation_count, comment_count, vote_score, created_at, updated_at`

// Upsert inserts a document or refreshes its metadata when the key
// already exists. Counters are never touched here.
func (r *documentRepository) Upsert(ctx context.Context, key, title, blobURL string, sizeBytes int64) (*model.Document, error) {
	id := snowflake.NextID()
	now := formatTime(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, key, title, blob_url, size_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			blob_url = excluded.blob_url,
			size_bytes = excluded.size_bytes,
			updated_at = excluded.updated_at
	`, id, key, title, blobURL, sizeBytes, now, now)
	if err != nil {
		return nil, err
	}

	return r.GetByKey(ctx, key)
}

// GetByKey retrieves a document by key. Returns nil when not found.
func (r *documentRepository) GetByKey(ctx context.Context, key string) (*model.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE key = ?`, key)

	var d model.Document
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.Key, &d.Title, &d.BlobURL, &d.SizeBytes,
		&d.AnnotationCount, &d.CommentCount, &d.VoteScore, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	d.CreatedAt, _ = parseTime(createdAt)
	d.UpdatedAt, _ = parseTime(updatedAt)
	return &d, nil
}

// List retrieves a page of documents, most active first for the
// counter-based sorts with key as tiebreak.
func (r *documentRepository) List(ctx context.Context, opts DocumentListOptions) ([]model.Document, error) {
	order := "key ASC"
	switch opts.Sort {
	case DocumentSortVotes:
		order = "vote_score DESC, key ASC"
	case DocumentSortAnnotations:
		order = "annotation_count DESC, key ASC"
	case DocumentSortComments:
		order = "comment_count DESC, key ASC"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM documents ORDER BY %s LIMIT ? OFFSET ?`, documentColumns, order),
		limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []model.Document
	for rows.Next() {
		var d model.Document
		var createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.Key, &d.Title, &d.BlobURL, &d.SizeBytes,
			&d.AnnotationCount, &d.CommentCount, &d.VoteScore, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = parseTime(createdAt)
		d.UpdatedAt, _ = parseTime(updatedAt)
		documents = append(documents, d)
	}
	return documents, rows.Err()
}

// Count returns the total number of documents.
func (r *documentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// SetVote records or changes a user's vote and recomputes the
// document's denormalized score in the same transaction.
func (r *documentRepository) SetVote(ctx context.Context, documentID, userID int64, value int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_votes (id, document_id, user_id, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id, user_id) DO UPDATE SET value = excluded.value
	`, snowflake.NextID(), documentID, userID, value); err != nil {
		return err
	}

	if err := refreshDocumentVoteScore(ctx, tx, documentID); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveVote clears a user's vote, if any, and recomputes the score.
func (r *documentRepository) RemoveVote(ctx context.Context, documentID, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM document_votes WHERE document_id = ? AND user_id = ?
	`, documentID, userID); err != nil {
		return err
	}

	if err := refreshDocumentVoteScore(ctx, tx, documentID); err != nil {
		return err
	}

	return tx.Commit()
}

// GetVote returns the user's current vote value, or 0 when none exists.
func (r *documentRepository) GetVote(ctx context.Context, documentID, userID int64) (int, error) {
	var value int
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM document_votes WHERE document_id = ? AND user_id = ?
	`, documentID, userID).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return value, err
}

func refreshDocumentVoteScore(ctx context.Context, tx dbtx, documentID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE documents SET vote_score = COALESCE((
			SELECT SUM(value) FROM document_votes WHERE document_id = ?
		), 0) WHERE id = ?
	`, documentID, documentID)
	return err
}
