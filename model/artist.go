package model

import "time"

// Artist represents a performing artist in the catalog.
// Artist names are unique under case-insensitive comparison.
type Artist struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Name        string     `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`

	Tracks []Track `json:"tracks,omitempty" gorm:"many2many:track_artists"`
}

// CreateArtistRequest is the body of POST /api/artist.
type CreateArtistRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"imageUrl"`
	BirthDate   *time.Time `json:"birthDate"`
}

// UpdateArtistRequest is the body of PUT /api/artist/{id}.
type UpdateArtistRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"imageUrl"`
	BirthDate   *time.Time `json:"birthDate"`
}
