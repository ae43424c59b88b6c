//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"
)

// CommentRepository defines the interface for comment storage.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	GetByHash(ctx context.Context, hash string) (*model.Comment, error)
	ListByDocument(ctx context.Context, documentID int64) ([]model.Comment, error)
	Delete(ctx context.Context, id int64) error
	SetVote(ctx context.Context, commentID, userID int64, value int) error
	RemoveVote(ctx context.Context, commentID, userID int64) error
	GetVote(ctx context.Context, commentID, userID int64) (int, error)
}

type commentRepository struct {
	db *sql.DB
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment, assigning its ID and public hash, and
// refreshes the document's comment count in the same transaction.
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id := snowflake.NextID()
	hash := uuid.NewString()
	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO comments (id, document_id, user_id, body, parent_id, hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, comment.DocumentID, comment.UserID, comment.Body,
		nullableInt64(comment.ParentID), hash, formatTime(now)); err != nil {
		return nil, err
	}

	if err := refreshCommentCount(ctx, tx, comment.DocumentID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	saved := *comment
	saved.ID = id
	saved.Hash = hash
	saved.CreatedAt = now
	return &saved, nil
}

// GetByHash retrieves a comment by its public hash. Returns nil when
// not found.
func (r *commentRepository) GetByHash(ctx context.Context, hash string) (*model.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.hash, c.document_id, c.user_id, c.parent_id, c.body, c.created_at, u.username
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.hash = ?
	`, hash)

	var c model.Comment
	var parentID sql.NullInt64
	var createdAt string
	if err := row.Scan(&c.ID, &c.Hash, &c.DocumentID, &c.UserID, &parentID, &c.Body, &createdAt, &c.Username); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	c.CreatedAt, _ = parseTime(createdAt)
	return &c, nil
}

// ListByDocument retrieves all comments on a document as a flat list,
// oldest first, with author names and vote scores hydrated. Callers
// build the reply tree.
func (r *commentRepository) ListByDocument(ctx context.Context, documentID int64) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.hash, c.document_id, c.user_id, c.parent_id, c.body, c.created_at, u.username,
			COALESCE((SELECT SUM(value) FROM comment_votes WHERE comment_id = c.id), 0)
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.document_id = ?
		ORDER BY c.created_at, c.id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var parentID sql.NullInt64
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Hash, &c.DocumentID, &c.UserID, &parentID,
			&c.Body, &createdAt, &c.Username, &c.VoteScore); err != nil {
			return nil, err
		}
		if parentID.Valid {
			c.ParentID = &parentID.Int64
		}
		c.CreatedAt, _ = parseTime(createdAt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Delete removes a comment. Replies go with it through the foreign key
// cascade; the document's comment count is refreshed afterwards.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var documentID int64
	if err := tx.QueryRowContext(ctx, `SELECT document_id FROM comments WHERE id = ?`, id).Scan(&documentID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return err
	}

	if err := refreshCommentCount(ctx, tx, documentID); err != nil {
		return err
	}

	return tx.Commit()
}

// SetVote records or changes a user's vote on a comment.
func (r *commentRepository) SetVote(ctx context.Context, commentID, userID int64, value int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comment_votes (id, comment_id, user_id, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(comment_id, user_id) DO UPDATE SET value = excluded.value
	`, snowflake.NextID(), commentID, userID, value)
	return err
}

// RemoveVote clears a user's vote on a comment, if any.
func (r *commentRepository) RemoveVote(ctx context.Context, commentID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM comment_votes WHERE comment_id = ? AND user_id = ?
	`, commentID, userID)
	return err
}

// GetVote returns the user's current vote value, or 0 when none exists.
func (r *commentRepository) GetVote(ctx context.Context, commentID, userID int64) (int, error) {
	var value int
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM comment_votes WHERE comment_id = ? AND user_id = ?
	`, commentID, userID).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return value, err
}

func refreshCommentCount(ctx context.Context, tx dbtx, documentID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE documents SET comment_count = (
			SELECT COUNT(*) FROM comments WHERE document_id = ?
		) WHERE id = ?
	`, documentID, documentID)
	return err
}
