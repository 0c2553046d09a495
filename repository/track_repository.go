package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"soundwave/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id string) (*model.Track, error)
	GetByIDWithDetails(ctx context.Context, id string) (*model.Track, error)
	GetByTitle(ctx context.Context, title string) (*model.Track, error)
	GetAll(ctx context.Context) ([]model.Track, error)
	GetAllWithDetails(ctx context.Context) ([]model.Track, error)
	Search(ctx context.Context, term string) ([]model.Track, error)
	GetByGenre(ctx context.Context, genreID string) ([]model.Track, error)
	GetByArtist(ctx context.Context, artistID string) ([]model.Track, error)
	Update(ctx context.Context, track *model.Track) error
	Delete(ctx context.Context, id string) error
	AttachArtist(ctx context.Context, trackID, artistID string) error
	DetachArtist(ctx context.Context, trackID, artistID string) error
}

// gormTrackRepository implements TrackRepository on GORM.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a new gormTrackRepository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create adds a new track. A genre reference, if set, must point at an
// existing genre.
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	track.Title = strings.TrimSpace(track.Title)
	track.AudioURL = strings.TrimSpace(track.AudioURL)

	if track.GenreID != nil {
		var count int64
		err := r.db.WithContext(ctx).Model(&model.Genre{}).
			Where("id = ?", *track.GenreID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check genre %s: %w", *track.GenreID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}

	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	track.CreatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Omit("Artists", "Genre").Create(track).Error; err != nil {
		return fmt.Errorf("failed to create track: %w", err)
	}
	return nil
}

// GetByID retrieves a track by id.
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).First(&track, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get track %s: %w", id, err)
	}
	return &track, nil
}

// GetByIDWithDetails retrieves a track with its genre and artists eagerly
// loaded.
func (r *gormTrackRepository) GetByIDWithDetails(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Preload("Genre").
		Preload("Artists").
		First(&track, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get track %s with details: %w", id, err)
	}
	return &track, nil
}

// GetByTitle retrieves a track by title, case-insensitively, with its
// genre and artists eagerly loaded.
func (r *gormTrackRepository) GetByTitle(ctx context.Context, title string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Preload("Genre").
		Preload("Artists").
		Where("LOWER(title) = ?", strings.ToLower(strings.TrimSpace(title))).
		First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get track by title %q: %w", title, err)
	}
	return &track, nil
}

// GetAll retrieves all tracks.
func (r *gormTrackRepository) GetAll(ctx context.Context) ([]model.Track, error) {
	var tracks []model.Track
	if err := r.db.WithContext(ctx).Order("title").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return tracks, nil
}

// GetAllWithDetails retrieves all tracks with genre and artists eagerly
// loaded.
func (r *gormTrackRepository) GetAllWithDetails(ctx context.Context) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.WithContext(ctx).
		Preload("Genre").
		Preload("Artists").
		Order("title").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks with details: %w", err)
	}
	return tracks, nil
}

// Search finds tracks whose title contains the term, case-insensitively.
func (r *gormTrackRepository) Search(ctx context.Context, term string) ([]model.Track, error) {
	var tracks []model.Track
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ?", pattern).
		Order("title").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	return tracks, nil
}

// GetByGenre retrieves all tracks referencing a genre.
func (r *gormTrackRepository) GetByGenre(ctx context.Context, genreID string) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.WithContext(ctx).
		Where("genre_id = ?", genreID).
		Order("title").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for genre %s: %w", genreID, err)
	}
	return tracks, nil
}

// GetByArtist retrieves all tracks associated with an artist.
func (r *gormTrackRepository) GetByArtist(ctx context.Context, artistID string) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.WithContext(ctx).
		Joins("JOIN track_artists ON track_artists.track_id = tracks.id").
		Where("track_artists.artist_id = ?", artistID).
		Order("title").
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for artist %s: %w", artistID, err)
	}
	return tracks, nil
}

// Update mutates an existing track in place.
func (r *gormTrackRepository) Update(ctx context.Context, track *model.Track) error {
	track.Title = strings.TrimSpace(track.Title)
	track.AudioURL = strings.TrimSpace(track.AudioURL)

	if track.GenreID != nil {
		var count int64
		err := r.db.WithContext(ctx).Model(&model.Genre{}).
			Where("id = ?", *track.GenreID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check genre %s: %w", *track.GenreID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}

	res := r.db.WithContext(ctx).Model(&model.Track{ID: track.ID}).
		Select("Title", "AudioURL", "Description", "PosterURL", "ReleaseDate", "GenreID").
		Updates(track)
	if res.Error != nil {
		return fmt.Errorf("failed to update track %s: %w", track.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a track and its artist associations.
func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	track, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Model(track).Association("Artists").Clear(); err != nil {
		return fmt.Errorf("failed to clear artist associations for track %s: %w", id, err)
	}
	if err := r.db.WithContext(ctx).Delete(track).Error; err != nil {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	return nil
}

// AttachArtist associates an artist with a track. Attaching an already
// associated artist is a no-op.
func (r *gormTrackRepository) AttachArtist(ctx context.Context, trackID, artistID string) error {
	track, err := r.GetByID(ctx, trackID)
	if err != nil {
		return err
	}

	var artist model.Artist
	if err := r.db.WithContext(ctx).First(&artist, "id = ?", artistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get artist %s: %w", artistID, err)
	}

	associated, err := r.isAssociated(ctx, trackID, artistID)
	if err != nil {
		return err
	}
	if associated {
		return nil
	}

	if err := r.db.WithContext(ctx).Model(track).Association("Artists").Append(&artist); err != nil {
		return fmt.Errorf("failed to attach artist %s to track %s: %w", artistID, trackID, err)
	}
	return nil
}

// DetachArtist removes an artist association from a track. Detaching an
// absent association fails.
func (r *gormTrackRepository) DetachArtist(ctx context.Context, trackID, artistID string) error {
	track, err := r.GetByID(ctx, trackID)
	if err != nil {
		return err
	}

	associated, err := r.isAssociated(ctx, trackID, artistID)
	if err != nil {
		return err
	}
	if !associated {
		return ErrAssociationNotFound
	}

	err = r.db.WithContext(ctx).Model(track).
		Association("Artists").Delete(&model.Artist{ID: artistID})
	if err != nil {
		return fmt.Errorf("failed to detach artist %s from track %s: %w", artistID, trackID, err)
	}
	return nil
}

// isAssociated reports whether a track-artist association row exists.
func (r *gormTrackRepository) isAssociated(ctx context.Context, trackID, artistID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("track_artists").
		Where("track_id = ? AND artist_id = ?", trackID, artistID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check association: %w", err)
	}
	return count > 0, nil
}
