package model

import "time"

// Annotation is a user's marker on a document. ClientID is the
// identifier the viewer generated; the triple (DocumentKey, UserID,
// ClientID) is unique, which makes saves idempotent upserts.
// Coordinates are fractions of the page size.
type Annotation struct {
	ID          int64
	DocumentKey string
	UserID      int64
	ClientID    string
	X           float64
	Y           float64
	Note        string
	TextItems   []AnnotationTextItem
	ArrowItems  []AnnotationArrowItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AnnotationTextItem is a free-floating text label attached to an
// annotation. Font size is kept as the raw CSS value the viewer sent.
type AnnotationTextItem struct {
	ID           int64
	AnnotationID int64
	X            float64
	Y            float64
	Text         string
	FontFamily   string
	FontSize     string
	FontWeight   string
	FontStyle    string
	Color        string
	Opacity      float64
}

// AnnotationArrowItem is an arrow drawn from (X1,Y1) to (X2,Y2) in
// page-fraction coordinates.
type AnnotationArrowItem struct {
	ID           int64
	AnnotationID int64
	X1           float64
	Y1           float64
	X2           float64
	Y2           float64
}
