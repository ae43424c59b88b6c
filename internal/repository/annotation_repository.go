//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"time"

	"marginalia/backend/internal/model"
	"marginalia/backend/pkg/snowflake"
)

// AnnotationRepository defines the interface for annotation storage.
type AnnotationRepository interface {
	Upsert(ctx context.Context, annotation *model.Annotation) (*model.Annotation, error)
	ListByDocument(ctx context.Context, documentKey string) ([]model.Annotation, error)
	ListByUser(ctx context.Context, documentKey string, userID int64) ([]model.Annotation, error)
	Delete(ctx context.Context, documentKey string, userID int64, clientID string) error
}

type annotationRepository struct {
	db *sql.DB
}

// NewAnnotationRepository creates a new annotation repository.
func NewAnnotationRepository(db *sql.DB) AnnotationRepository {
	return &annotationRepository{db: db}
}

// Upsert saves an annotation keyed by (document, user, client ID).
// Text and arrow items are replaced wholesale; the document's
// annotation count is refreshed in the same transaction.
func (r *annotationRepository) Upsert(ctx context.Context, annotation *model.Annotation) (*model.Annotation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	nowStr := formatTime(now)

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM annotations WHERE document_key = ? AND user_id = ? AND client_id = ?
	`, annotation.DocumentKey, annotation.UserID, annotation.ClientID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = snowflake.NextID()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO annotations (id, document_key, user_id, client_id, x, y, note, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, annotation.DocumentKey, annotation.UserID, annotation.ClientID,
			annotation.X, annotation.Y, annotation.Note, nowStr, nowStr); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE annotations SET x = ?, y = ?, note = ?, updated_at = ? WHERE id = ?
		`, annotation.X, annotation.Y, annotation.Note, nowStr, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM annotation_text_items WHERE annotation_id = ?`, id); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM annotation_arrow_items WHERE annotation_id = ?`, id); err != nil {
			return nil, err
		}
	}

	for _, item := range annotation.TextItems {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO annotation_text_items (id, annotation_id, x, y, text, font_family, font_size, font_weight, font_style, color, opacity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, snowflake.NextID(), id, item.X, item.Y, item.Text, item.FontFamily,
			item.FontSize, item.FontWeight, item.FontStyle, item.Color, item.Opacity); err != nil {
			return nil, err
		}
	}

	for _, item := range annotation.ArrowItems {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO annotation_arrow_items (id, annotation_id, x1, y1, x2, y2)
			VALUES (?, ?, ?, ?, ?, ?)
		`, snowflake.NextID(), id, item.X1, item.Y1, item.X2, item.Y2); err != nil {
			return nil, err
		}
	}

	if err := refreshAnnotationCount(ctx, tx, annotation.DocumentKey); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	saved := *annotation
	saved.ID = id
	saved.UpdatedAt = now
	return &saved, nil
}

// ListByDocument retrieves all annotations on a document, items
// included, ordered by creation time.
func (r *annotationRepository) ListByDocument(ctx context.Context, documentKey string) ([]model.Annotation, error) {
	return r.list(ctx, `
		SELECT id, document_key, user_id, client_id, x, y, note, created_at, updated_at
		FROM annotations WHERE document_key = ? ORDER BY created_at
	`, documentKey)
}

// ListByUser retrieves one user's annotations on a document.
func (r *annotationRepository) ListByUser(ctx context.Context, documentKey string, userID int64) ([]model.Annotation, error) {
	return r.list(ctx, `
		SELECT id, document_key, user_id, client_id, x, y, note, created_at, updated_at
		FROM annotations WHERE document_key = ? AND user_id = ? ORDER BY created_at
	`, documentKey, userID)
}

func (r *annotationRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Annotation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var annotations []model.Annotation
	for rows.Next() {
		var a model.Annotation
		var createdAt, updatedAt string
		if err := rows.Scan(&a.ID, &a.DocumentKey, &a.UserID, &a.ClientID,
			&a.X, &a.Y, &a.Note, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		a.CreatedAt, _ = parseTime(createdAt)
		a.UpdatedAt, _ = parseTime(updatedAt)
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range annotations {
		if err := r.loadItems(ctx, &annotations[i]); err != nil {
			return nil, err
		}
	}
	return annotations, nil
}

func (r *annotationRepository) loadItems(ctx context.Context, annotation *model.Annotation) error {
	textRows, err := r.db.QueryContext(ctx, `
		SELECT id, annotation_id, x, y, text, font_family, font_size, font_weight, font_style, color, opacity
		FROM annotation_text_items WHERE annotation_id = ? ORDER BY id
	`, annotation.ID)
	if err != nil {
		return err
	}
	defer textRows.Close()

	for textRows.Next() {
		var item model.AnnotationTextItem
		if err := textRows.Scan(&item.ID, &item.AnnotationID, &item.X, &item.Y, &item.Text,
			&item.FontFamily, &item.FontSize, &item.FontWeight, &item.FontStyle,
			&item.Color, &item.Opacity); err != nil {
			return err
		}
		annotation.TextItems = append(annotation.TextItems, item)
	}
	if err := textRows.Err(); err != nil {
		return err
	}

	arrowRows, err := r.db.QueryContext(ctx, `
		SELECT id, annotation_id, x1, y1, x2, y2
		FROM annotation_arrow_items WHERE annotation_id = ? ORDER BY id
	`, annotation.ID)
	if err != nil {
		return err
	}
	defer arrowRows.Close()

	for arrowRows.Next() {
		var item model.AnnotationArrowItem
		if err := arrowRows.Scan(&item.ID, &item.AnnotationID, &item.X1, &item.Y1, &item.X2, &item.Y2); err != nil {
			return err
		}
		annotation.ArrowItems = append(annotation.ArrowItems, item)
	}
	return arrowRows.Err()
}

// Delete removes a user's annotation by client ID and refreshes the
// document's annotation count.
func (r *annotationRepository) Delete(ctx context.Context, documentKey string, userID int64, clientID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM annotations WHERE document_key = ? AND user_id = ? AND client_id = ?
	`, documentKey, userID, clientID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err := refreshAnnotationCount(ctx, tx, documentKey); err != nil {
		return err
	}

	return tx.Commit()
}

func refreshAnnotationCount(ctx context.Context, tx dbtx, documentKey string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE documents SET annotation_count = (
			SELECT COUNT(*) FROM annotations WHERE document_key = ?
		) WHERE key = ?
	`, documentKey, documentKey)
	return err
}
