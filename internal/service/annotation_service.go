package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/repository"
	"marginalia/backend/pkg/sanitizer"
)

const (
	maxNoteLength     = 2000
	maxTextItemLength = 500
	maxItemsPerMarker = 50
)

type AnnotationService interface {
	Save(ctx context.Context, user *model.User, annotation model.Annotation) (*model.Annotation, error)
	ListByDocument(ctx context.Context, documentKey string) ([]model.Annotation, error)
	ListMine(ctx context.Context, documentKey string, userID int64) ([]model.Annotation, error)
	Delete(ctx context.Context, user *model.User, documentKey, clientID string) error
}

type annotationService struct {
	annotations repository.AnnotationRepository
	documents   repository.DocumentRepository
	bans        repository.BannedUserRepository
	policy      *bluemonday.Policy
}

func NewAnnotationService(annotations repository.AnnotationRepository, documents repository.DocumentRepository, bans repository.BannedUserRepository) AnnotationService {
	return &annotationService{
		annotations: annotations,
		documents:   documents,
		bans:        bans,
		policy:      bluemonday.StrictPolicy(),
	}
}

// Save upserts the user's annotation on a document, keyed by the
// client-generated ID. Text content is stripped of markup before it is
// stored.
func (s *annotationService) Save(ctx context.Context, user *model.User, annotation model.Annotation) (*model.Annotation, error) {
	banned, err := s.bans.IsBanned(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return nil, ErrForbidden
	}

	annotation.UserID = user.ID
	annotation.ClientID = strings.TrimSpace(annotation.ClientID)
	if annotation.ClientID == "" {
		return nil, ErrInvalid
	}
	if !inUnitRange(annotation.X) || !inUnitRange(annotation.Y) {
		return nil, ErrInvalid
	}
	if len(annotation.TextItems)+len(annotation.ArrowItems) > maxItemsPerMarker {
		return nil, ErrInvalid
	}

	doc, err := s.documents.GetByKey(ctx, annotation.DocumentKey)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	annotation.Note = sanitizer.Truncate(s.policy.Sanitize(annotation.Note), maxNoteLength)

	for i := range annotation.TextItems {
		item := &annotation.TextItems[i]
		if !inUnitRange(item.X) || !inUnitRange(item.Y) {
			return nil, ErrInvalid
		}
		item.Text = sanitizer.Truncate(s.policy.Sanitize(item.Text), maxTextItemLength)
	}
	for _, item := range annotation.ArrowItems {
		if !inUnitRange(item.X1) || !inUnitRange(item.Y1) || !inUnitRange(item.X2) || !inUnitRange(item.Y2) {
			return nil, ErrInvalid
		}
	}

	saved, err := s.annotations.Upsert(ctx, &annotation)
	if err != nil {
		return nil, fmt.Errorf("save annotation: %w", err)
	}
	return saved, nil
}

func (s *annotationService) ListByDocument(ctx context.Context, documentKey string) ([]model.Annotation, error) {
	return s.annotations.ListByDocument(ctx, documentKey)
}

func (s *annotationService) ListMine(ctx context.Context, documentKey string, userID int64) ([]model.Annotation, error) {
	return s.annotations.ListByUser(ctx, documentKey, userID)
}

// Delete removes the user's own annotation.
func (s *annotationService) Delete(ctx context.Context, user *model.User, documentKey, clientID string) error {
	if err := s.annotations.Delete(ctx, documentKey, user.ID, clientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete annotation: %w", err)
	}
	return nil
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
