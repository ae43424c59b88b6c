package model

import "time"

// Document is one PDF in the corpus. Key is the flat filename used by
// the viewer and by blob storage, e.g. "DOJ-OGR-00000123.pdf".
//
// AnnotationCount, CommentCount and VoteScore are denormalized so the
// document list can sort without joining; the write paths keep them in
// step with the underlying tables.
type Document struct {
	ID              int64
	Key             string
	Title           string
	BlobURL         string
	SizeBytes       int64
	AnnotationCount int
	CommentCount    int
	VoteScore       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DocumentVote is a single user's up or down vote on a document.
// Value is +1 or -1; one row per (document, user).
type DocumentVote struct {
	ID         int64
	DocumentID int64
	UserID     int64
	Value      int
}
