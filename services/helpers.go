package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/storage"
)

// withTx runs fn inside a transaction: rollback on error or panic, commit otherwise.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (txErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.ErrorContext(ctx, "Error during rollback", slog.Any("rollback_error", rbErr), slog.Any("error", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(tx)
	return txErr
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func populateFacultyLogoURL(faculty *models.Faculty, uploader storage.FileUploader) {
	if faculty != nil && faculty.LogoKey != nil && *faculty.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*faculty.LogoKey)
		if url != "" {
			faculty.LogoURL = &url
		}
	}
}

// GetExtensionFromContentType maps an image content type to a file extension.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrInvalidLogoType, contentType)
	}
}
