package model

import "time"

// Comment is a discussion entry on a document. Hash is the public
// identifier exposed over the API; numeric IDs stay internal. ParentID
// is set on replies and nil on top-level comments.
type Comment struct {
	ID         int64
	Hash       string
	DocumentID int64
	UserID     int64
	ParentID   *int64
	Body       string
	CreatedAt  time.Time

	// Hydrated on reads, not stored on the row.
	Username  string
	VoteScore int
	Replies   []Comment
}

// CommentVote mirrors DocumentVote for comments. Value is +1 or -1.
type CommentVote struct {
	ID        int64
	CommentID int64
	UserID    int64
	Value     int
}
