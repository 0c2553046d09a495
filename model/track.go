package model

import "time"

// Track represents an audio track in the catalog.
type Track struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	AudioURL    string     `json:"audioUrl" gorm:"size:255;not null"`
	Description *string    `json:"description,omitempty"`
	PosterURL   *string    `json:"posterUrl,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
	GenreID     *string    `json:"genreId" gorm:"size:36"`
	CreatedAt   time.Time  `json:"createdAt"`

	Genre   *Genre   `json:"genre,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Artists []Artist `json:"artists,omitempty" gorm:"many2many:track_artists"`
}

// CreateTrackRequest is the body of POST /api/track.
type CreateTrackRequest struct {
	Title       string     `json:"title"`
	AudioURL    string     `json:"audioUrl"`
	Description *string    `json:"description"`
	PosterURL   *string    `json:"posterUrl"`
	ReleaseDate *time.Time `json:"releaseDate"`
	GenreID     *string    `json:"genreId"`
	ArtistIDs   []string   `json:"artistIds"`
}

// UpdateTrackRequest is the body of PUT /api/track/{id}.
type UpdateTrackRequest struct {
	Title       string     `json:"title"`
	AudioURL    string     `json:"audioUrl"`
	Description *string    `json:"description"`
	PosterURL   *string    `json:"posterUrl"`
	ReleaseDate *time.Time `json:"releaseDate"`
	GenreID     *string    `json:"genreId"`
}
