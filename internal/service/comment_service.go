package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"marginalia/backend/internal/model"
	"marginalia/backend/internal/repository"
	"marginalia/backend/pkg/sanitizer"
)

const maxCommentLength = 5000

type CommentService interface {
	Create(ctx context.Context, user *model.User, documentKey, parentHash, body string) (*model.Comment, error)
	ListByDocument(ctx context.Context, documentKey string) ([]model.Comment, error)
	Delete(ctx context.Context, user *model.User, hash string) error
	Vote(ctx context.Context, user *model.User, hash string, value int) error
}

type commentService struct {
	comments  repository.CommentRepository
	documents repository.DocumentRepository
	bans      repository.BannedUserRepository
	policy    *bluemonday.Policy
}

func NewCommentService(comments repository.CommentRepository, documents repository.DocumentRepository, bans repository.BannedUserRepository) CommentService {
	return &commentService{
		comments:  comments,
		documents: documents,
		bans:      bans,
		policy:    bluemonday.StrictPolicy(),
	}
}

// Create posts a comment on a document, or a reply when parentHash is
// set. Replies must target a comment on the same document; nesting is
// one level deep, so replying to a reply attaches to its parent.
func (s *commentService) Create(ctx context.Context, user *model.User, documentKey, parentHash, body string) (*model.Comment, error) {
	banned, err := s.bans.IsBanned(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return nil, ErrForbidden
	}

	body = strings.TrimSpace(s.policy.Sanitize(body))
	if body == "" {
		return nil, ErrInvalid
	}
	body = sanitizer.Truncate(body, maxCommentLength)

	doc, err := s.documents.GetByKey(ctx, documentKey)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	comment := model.Comment{
		DocumentID: doc.ID,
		UserID:     user.ID,
		Body:       body,
	}

	if parentHash != "" {
		parent, err := s.comments.GetByHash(ctx, parentHash)
		if err != nil {
			return nil, fmt.Errorf("get parent comment: %w", err)
		}
		if parent == nil || parent.DocumentID != doc.ID {
			return nil, ErrNotFound
		}
		parentID := parent.ID
		if parent.ParentID != nil {
			parentID = *parent.ParentID
		}
		comment.ParentID = &parentID
	}

	saved, err := s.comments.Create(ctx, &comment)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	saved.Username = user.Username
	return saved, nil
}

// ListByDocument returns top-level comments with their replies nested,
// oldest first.
func (s *commentService) ListByDocument(ctx context.Context, documentKey string) ([]model.Comment, error) {
	doc, err := s.documents.GetByKey(ctx, documentKey)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	flat, err := s.comments.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return buildCommentTree(flat), nil
}

// Delete removes the user's own comment along with its replies.
func (s *commentService) Delete(ctx context.Context, user *model.User, hash string) error {
	comment, err := s.comments.GetByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if comment == nil {
		return ErrNotFound
	}
	if comment.UserID != user.ID {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// Vote records value (+1 or -1) on a comment, or clears the user's
// vote when value is 0.
func (s *commentService) Vote(ctx context.Context, user *model.User, hash string, value int) error {
	if value < -1 || value > 1 {
		return ErrInvalid
	}

	banned, err := s.bans.IsBanned(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return ErrForbidden
	}

	comment, err := s.comments.GetByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if comment == nil {
		return ErrNotFound
	}

	if value == 0 {
		err = s.comments.RemoveVote(ctx, comment.ID, user.ID)
	} else {
		err = s.comments.SetVote(ctx, comment.ID, user.ID, value)
	}
	if err != nil {
		return fmt.Errorf("record vote: %w", err)
	}
	return nil
}

func buildCommentTree(flat []model.Comment) []model.Comment {
	var roots []model.Comment
	index := make(map[int64]int)

	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			index[c.ID] = len(roots) - 1
		}
	}
	for _, c := range flat {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			roots[i].Replies = append(roots[i].Replies, c)
		}
	}
	return roots
}
