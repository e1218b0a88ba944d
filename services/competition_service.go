package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
)

type CompetitionService interface {
	ListCompetitions(ctx context.Context) ([]models.Competition, error)
	GetCompetition(ctx context.Context, id string) (*models.Competition, error)
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
}

func NewCompetitionService(competitionRepo repositories.CompetitionRepository) CompetitionService {
	return &competitionService{competitionRepo: competitionRepo}
}

func (s *competitionService) ListCompetitions(ctx context.Context) ([]models.Competition, error) {
	competitions, err := s.competitionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return competitions, nil
}

func (s *competitionService) GetCompetition(ctx context.Context, id string) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %s: %w", id, err)
	}
	return competition, nil
}
