package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
	"github.com/Dosada05/faculty-games/storage"
	"github.com/google/uuid"
)

type FacultyService interface {
	ListFaculties(ctx context.Context) ([]models.Faculty, error)
	GetFaculty(ctx context.Context, id string) (*models.Faculty, error)
	UploadFacultyLogo(ctx context.Context, id string, file io.Reader, contentType string) (*models.Faculty, error)
}

type facultyService struct {
	facultyRepo repositories.FacultyRepository
	uploader    storage.FileUploader // nil, если R2 не настроен
	logger      *slog.Logger
}

func NewFacultyService(facultyRepo repositories.FacultyRepository, uploader storage.FileUploader, logger *slog.Logger) FacultyService {
	return &facultyService{
		facultyRepo: facultyRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *facultyService) ListFaculties(ctx context.Context) ([]models.Faculty, error) {
	faculties, err := s.facultyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculties: %w", err)
	}
	for i := range faculties {
		populateFacultyLogoURL(&faculties[i], s.uploader)
	}
	return faculties, nil
}

func (s *facultyService) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	faculty, err := s.facultyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrFacultyNotFound) {
			return nil, ErrFacultyNotFound
		}
		return nil, fmt.Errorf("failed to get faculty %s: %w", id, err)
	}
	populateFacultyLogoURL(faculty, s.uploader)
	return faculty, nil
}

func (s *facultyService) UploadFacultyLogo(ctx context.Context, id string, file io.Reader, contentType string) (*models.Faculty, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}

	faculty, err := s.GetFaculty(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("faculties/%s/logo-%s%s", id, uuid.NewString(), ext)
	if _, err = s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo for faculty %s: %w", id, err)
	}

	if err = s.facultyRepo.UpdateLogoKey(ctx, id, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "Failed to clean up orphaned logo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save logo key for faculty %s: %w", id, err)
	}

	oldKey := derefString(faculty.LogoKey)
	if oldKey != "" && oldKey != key {
		if delErr := s.uploader.Delete(ctx, oldKey); delErr != nil {
			s.logger.WarnContext(ctx, "Failed to delete previous logo", slog.String("key", oldKey), slog.Any("error", delErr))
		}
	}

	faculty.LogoKey = &key
	faculty.LogoURL = nil
	populateFacultyLogoURL(faculty, s.uploader)
	return faculty, nil
}
