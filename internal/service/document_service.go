package service

import (
	"context"
	"fmt"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/repository"
)

// DocumentPage is one page of the document list plus the corpus total.
type DocumentPage struct {
	Documents []model.Document
	Total     int
}

// ManifestEntry is one uploaded PDF as recorded by the corpus manifest.
type ManifestEntry struct {
	Key       string `json:"pathname"`
	URL       string `json:"url"`
	SizeBytes int64  `json:"size"`
}

type DocumentService interface {
	List(ctx context.Context, sort string, limit, offset int) (DocumentPage, error)
	Get(ctx context.Context, key string) (*model.Document, error)
	Vote(ctx context.Context, key string, user *model.User, value int) (*model.Document, error)
	MyVote(ctx context.Context, key string, userID int64) (int, error)
	SyncManifest(ctx context.Context, entries []ManifestEntry) (int, error)
}

type documentService struct {
	documents repository.DocumentRepository
	bans      repository.BannedUserRepository
}

func NewDocumentService(documents repository.DocumentRepository, bans repository.BannedUserRepository) DocumentService {
	return &documentService{documents: documents, bans: bans}
}

func (s *documentService) List(ctx context.Context, sort string, limit, offset int) (DocumentPage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	docSort := repository.DocumentSortKey
	switch sort {
	case "votes":
		docSort = repository.DocumentSortVotes
	case "annotations":
		docSort = repository.DocumentSortAnnotations
	case "comments":
		docSort = repository.DocumentSortComments
	}

	documents, err := s.documents.List(ctx, repository.DocumentListOptions{
		Sort:   docSort,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return DocumentPage{}, fmt.Errorf("list documents: %w", err)
	}

	total, err := s.documents.Count(ctx)
	if err != nil {
		return DocumentPage{}, fmt.Errorf("count documents: %w", err)
	}

	return DocumentPage{Documents: documents, Total: total}, nil
}

func (s *documentService) Get(ctx context.Context, key string) (*model.Document, error) {
	doc, err := s.documents.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Vote records value (+1 or -1) for the user, or clears their vote when
// value is 0. Returns the document with its refreshed score.
func (s *documentService) Vote(ctx context.Context, key string, user *model.User, value int) (*model.Document, error) {
	if value < -1 || value > 1 {
		return nil, ErrInvalid
	}

	if err := s.requireNotBanned(ctx, user.Username); err != nil {
		return nil, err
	}

	doc, err := s.documents.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	if value == 0 {
		err = s.documents.RemoveVote(ctx, doc.ID, user.ID)
	} else {
		err = s.documents.SetVote(ctx, doc.ID, user.ID, value)
	}
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}

	return s.documents.GetByKey(ctx, key)
}

func (s *documentService) MyVote(ctx context.Context, key string, userID int64) (int, error) {
	doc, err := s.documents.GetByKey(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return 0, ErrNotFound
	}
	return s.documents.GetVote(ctx, doc.ID, userID)
}

// SyncManifest upserts every manifest entry and returns how many were
// processed. Used at startup and by the upload tool to keep the
// database aligned with blob storage.
func (s *documentService) SyncManifest(ctx context.Context, entries []ManifestEntry) (int, error) {
	synced := 0
	for _, entry := range entries {
		if entry.Key == "" {
			continue
		}
		if _, err := s.documents.Upsert(ctx, entry.Key, "", entry.URL, entry.SizeBytes); err != nil {
			return synced, fmt.Errorf("sync %s: %w", entry.Key, err)
		}
		synced++
	}
	return synced, nil
}

func (s *documentService) requireNotBanned(ctx context.Context, username string) error {
	banned, err := s.bans.IsBanned(ctx, username)
	if err != nil {
		return fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return ErrForbidden
	}
	return nil
}
