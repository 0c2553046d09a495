package model

import "time"

// Genre represents a music genre. NormalizedName holds the upper-cased
// name and carries the unique index, so case-variant duplicates are
// rejected by the database rather than by a racy pre-insert check.
type Genre struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Name           string    `json:"name" gorm:"size:50;not null"`
	NormalizedName string    `json:"-" gorm:"size:50;not null;uniqueIndex"`
	CreatedAt      time.Time `json:"createdAt"`

	Tracks []Track `json:"tracks,omitempty" gorm:"foreignKey:GenreID"`
}

// CreateGenreRequest is the body of POST /api/genre.
type CreateGenreRequest struct {
	Name string `json:"name"`
}

// UpdateGenreRequest is the body of PUT /api/genre/{id}.
type UpdateGenreRequest struct {
	Name string `json:"name"`
}
