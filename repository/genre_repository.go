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

// GenreRepository defines the interface for genre data operations.
type GenreRepository interface {
	Create(ctx context.Context, name string) (*model.Genre, error)
	GetByID(ctx context.Context, id string) (*model.Genre, error)
	GetAll(ctx context.Context) ([]model.Genre, error)
	GetByName(ctx context.Context, name string) (*model.Genre, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, term string) ([]model.Genre, error)
	GetAllWithTracks(ctx context.Context) ([]model.Genre, error)
	Update(ctx context.Context, id, name string) (*model.Genre, error)
	Delete(ctx context.Context, id string) error
}

// gormGenreRepository implements GenreRepository on GORM.
type gormGenreRepository struct {
	db *gorm.DB
}

// NewGormGenreRepository creates a new gormGenreRepository.
func NewGormGenreRepository(db *gorm.DB) GenreRepository {
	return &gormGenreRepository{db: db}
}

func normalizeGenreName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Create adds a new genre. Uniqueness is enforced by the unique index on
// the normalized name, so a concurrent duplicate insert still fails.
func (r *gormGenreRepository) Create(ctx context.Context, name string) (*model.Genre, error) {
	genre := &model.Genre{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		NormalizedName: normalizeGenreName(name),
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(genre).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}
	return genre, nil
}

// GetByID retrieves a genre by id.
func (r *gormGenreRepository) GetByID(ctx context.Context, id string) (*model.Genre, error) {
	var genre model.Genre
	err := r.db.WithContext(ctx).First(&genre, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get genre %s: %w", id, err)
	}
	return &genre, nil
}

// GetAll retrieves all genres.
func (r *gormGenreRepository) GetAll(ctx context.Context) ([]model.Genre, error) {
	var genres []model.Genre
	if err := r.db.WithContext(ctx).Order("name").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

// GetByName retrieves a genre by name, case-insensitively.
func (r *gormGenreRepository) GetByName(ctx context.Context, name string) (*model.Genre, error) {
	var genre model.Genre
	err := r.db.WithContext(ctx).
		Where("normalized_name = ?", normalizeGenreName(name)).
		First(&genre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get genre by name %q: %w", name, err)
	}
	return &genre, nil
}

// ExistsByName reports whether a genre with the given name exists,
// case-insensitively.
func (r *gormGenreRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Genre{}).
		Where("normalized_name = ?", normalizeGenreName(name)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check genre name %q: %w", name, err)
	}
	return count > 0, nil
}

// Search finds genres whose name contains the term, case-insensitively.
func (r *gormGenreRepository) Search(ctx context.Context, term string) ([]model.Genre, error) {
	var genres []model.Genre
	pattern := "%" + normalizeGenreName(term) + "%"
	err := r.db.WithContext(ctx).
		Where("normalized_name LIKE ?", pattern).
		Order("name").
		Find(&genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search genres: %w", err)
	}
	return genres, nil
}

// GetAllWithTracks retrieves all genres with their tracks eagerly loaded.
func (r *gormGenreRepository) GetAllWithTracks(ctx context.Context) ([]model.Genre, error) {
	var genres []model.Genre
	err := r.db.WithContext(ctx).Preload("Tracks").Order("name").Find(&genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list genres with tracks: %w", err)
	}
	return genres, nil
}

// Update renames a genre. Renaming onto a different genre's name is
// rejected.
func (r *gormGenreRepository) Update(ctx context.Context, id, name string) (*model.Genre, error) {
	genre, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	normalized := normalizeGenreName(name)
	var count int64
	err = r.db.WithContext(ctx).Model(&model.Genre{}).
		Where("normalized_name = ? AND id <> ?", normalized, id).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check genre name %q: %w", name, err)
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	genre.Name = strings.TrimSpace(name)
	genre.NormalizedName = normalized
	err = r.db.WithContext(ctx).Model(genre).
		Updates(map[string]interface{}{
			"name":            genre.Name,
			"normalized_name": genre.NormalizedName,
		}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update genre %s: %w", id, err)
	}
	return genre, nil
}

// Delete removes a genre. Tracks referencing it keep existing with their
// genre reference nulled, never cascaded.
func (r *gormGenreRepository) Delete(ctx context.Context, id string) error {
	genre, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Track{}).
			Where("genre_id = ?", id).
			Update("genre_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to detach tracks from genre %s: %w", id, err)
		}
		if err := tx.Delete(genre).Error; err != nil {
			return fmt.Errorf("failed to delete genre %s: %w", id, err)
		}
		return nil
	})
}
