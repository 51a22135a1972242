// Package testutil opens throwaway databases for repository and API tests.
package testutil

import (
	attachmentDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/attachment"
	taskDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/taktplan/internal/core/datamodel/user"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite returns a migrated in-memory database with foreign keys enforced.
// It is pinned to one connection because every sqlite memory connection is its own database.
func OpenSQLite() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userDatamodel.User{}, &taskDatamodel.Task{}, &attachmentDatamodel.Attachment{}); err != nil {
		return nil, err
	}
	return db, nil
}

// Close releases the connection, dropping the database with it.
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// InsertUser stores a user row directly, bypassing registration.
func InsertUser(db *gorm.DB, email, role string) (*userDatamodel.User, error) {
	u := &userDatamodel.User{Email: email, PasswordHash: "x", Role: role}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}
