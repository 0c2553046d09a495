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

// ArtistRepository defines the interface for artist data operations.
type ArtistRepository interface {
	Create(ctx context.Context, artist *model.Artist) error
	GetByID(ctx context.Context, id string) (*model.Artist, error)
	GetAll(ctx context.Context) ([]model.Artist, error)
	GetByName(ctx context.Context, name string) (*model.Artist, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, term string) ([]model.Artist, error)
	GetAllWithTracks(ctx context.Context) ([]model.Artist, error)
	GetTracks(ctx context.Context, artistID string) ([]model.Track, error)
	Update(ctx context.Context, artist *model.Artist) error
	Delete(ctx context.Context, id string) error
}

// gormArtistRepository implements ArtistRepository on GORM.
type gormArtistRepository struct {
	db *gorm.DB
}

// NewGormArtistRepository creates a new gormArtistRepository.
func NewGormArtistRepository(db *gorm.DB) ArtistRepository {
	return &gormArtistRepository{db: db}
}

// Create adds a new artist. The name must not collide with an existing
// artist under case-insensitive comparison.
func (r *gormArtistRepository) Create(ctx context.Context, artist *model.Artist) error {
	artist.Name = strings.TrimSpace(artist.Name)

	exists, err := r.ExistsByName(ctx, artist.Name)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateName
	}

	if artist.ID == "" {
		artist.ID = uuid.NewString()
	}
	artist.CreatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Create(artist).Error; err != nil {
		// The unique index closes the window between the check above
		// and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create artist: %w", err)
	}
	return nil
}

// GetByID retrieves an artist by id.
func (r *gormArtistRepository) GetByID(ctx context.Context, id string) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.WithContext(ctx).First(&artist, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get artist %s: %w", id, err)
	}
	return &artist, nil
}

// GetAll retrieves all artists.
func (r *gormArtistRepository) GetAll(ctx context.Context) ([]model.Artist, error) {
	var artists []model.Artist
	if err := r.db.WithContext(ctx).Order("name").Find(&artists).Error; err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	return artists, nil
}

// GetByName retrieves an artist by name, case-insensitively.
func (r *gormArtistRepository) GetByName(ctx context.Context, name string) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&artist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get artist by name %q: %w", name, err)
	}
	return &artist, nil
}

// ExistsByName reports whether an artist with the given name exists,
// case-insensitively.
func (r *gormArtistRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Artist{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check artist name %q: %w", name, err)
	}
	return count > 0, nil
}

// Search finds artists whose name contains the term, case-insensitively.
func (r *gormArtistRepository) Search(ctx context.Context, term string) ([]model.Artist, error) {
	var artists []model.Artist
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name").
		Find(&artists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search artists: %w", err)
	}
	return artists, nil
}

// GetAllWithTracks retrieves all artists with their tracks eagerly loaded.
func (r *gormArtistRepository) GetAllWithTracks(ctx context.Context) ([]model.Artist, error) {
	var artists []model.Artist
	err := r.db.WithContext(ctx).Preload("Tracks").Order("name").Find(&artists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list artists with tracks: %w", err)
	}
	return artists, nil
}

// GetTracks retrieves the tracks associated with an artist.
func (r *gormArtistRepository) GetTracks(ctx context.Context, artistID string) ([]model.Track, error) {
	artist, err := r.GetByID(ctx, artistID)
	if err != nil {
		return nil, err
	}

	var tracks []model.Track
	err = r.db.WithContext(ctx).Model(artist).Association("Tracks").Find(&tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks for artist %s: %w", artistID, err)
	}
	return tracks, nil
}

// Update mutates an existing artist in place. Renaming onto a different
// artist's name is rejected.
func (r *gormArtistRepository) Update(ctx context.Context, artist *model.Artist) error {
	artist.Name = strings.TrimSpace(artist.Name)

	var count int64
	err := r.db.WithContext(ctx).Model(&model.Artist{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(artist.Name), artist.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check artist name %q: %w", artist.Name, err)
	}
	if count > 0 {
		return ErrDuplicateName
	}

	res := r.db.WithContext(ctx).Model(&model.Artist{ID: artist.ID}).
		Select("Name", "Description", "ImageURL", "BirthDate").
		Updates(artist)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to update artist %s: %w", artist.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an artist and its track associations.
func (r *gormArtistRepository) Delete(ctx context.Context, id string) error {
	artist, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Model(artist).Association("Tracks").Clear(); err != nil {
		return fmt.Errorf("failed to clear track associations for artist %s: %w", id, err)
	}
	if err := r.db.WithContext(ctx).Delete(artist).Error; err != nil {
		return fmt.Errorf("failed to delete artist %s: %w", id, err)
	}
	return nil
}
