package repository

import (
	"path/filepath"
	"testing"

	"soundwave/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a throwaway SQLite database with the catalog schema.
// TranslateError is on so unique index violations surface as
// gorm.ErrDuplicatedKey, same as the MySQL setup.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Artist{}, &model.Genre{}, &model.Track{}))
	return db
}

func strPtr(s string) *string {
	return &s
}
