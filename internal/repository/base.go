// Package repository provides the data access layer: one repository per
// entity plus a Store that hands out transaction-bound repositories.
package repository

import (
	"errors"

	"murmur/internal/database"
	"murmur/internal/models"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// storeError maps a raw gorm error onto the application taxonomy. AppErrors
// pass through untouched.
func storeError(resource string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case database.IsUniqueViolation(err):
		return models.NewConflictError(resource, err)
	case database.IsForeignKeyViolation(err):
		return &models.AppError{Code: models.CodeNotFound, Message: resource + " references a missing record", Err: err}
	default:
		return models.NewStoreUnavailableError(err)
	}
}

// lookupError is storeError for single-row reads.
func lookupError(resource string, id interface{}, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return storeError(resource, err)
}

// summaryColumns limits preloaded users to their public projection.
func summaryColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "username", "image")
}

// ClampPage normalises limit/offset paging parameters.
func ClampPage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
