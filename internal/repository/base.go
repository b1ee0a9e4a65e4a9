package repository

import (
	"context"
	"errors"

	"moneyshelf/internal/models"

	"gorm.io/gorm"
)

// requireUser fails with NotFound when the acting user no longer exists, so a
// deleted account cannot leave rows behind through a still-valid token.
func requireUser(tx *gorm.DB, userID uint) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

// createAs runs create in a transaction after requireUser.
func createAs(ctx context.Context, db *gorm.DB, userID uint, create func(tx *gorm.DB) error) error {
	return wrapErr(db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		return create(tx)
	}))
}

// wrapErr passes AppErrors through and wraps anything else as internal.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
