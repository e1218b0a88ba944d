package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/faculty-games/events"
	"github.com/Dosada05/faculty-games/medals"
	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
	"github.com/google/uuid"
)

const (
	matchDateLayout = "2006-01-02"
	matchTimeLayout = "15:04"
)

type MatchService interface {
	CreateMatch(ctx context.Context, input MatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	ListMatches(ctx context.Context, filter MatchListFilter) ([]models.Match, error)
	ListLiveMatches(ctx context.Context) ([]models.Match, error)
	ListUpcomingMatches(ctx context.Context, limit int) ([]models.Match, error)
	UpdateMatch(ctx context.Context, id string, input MatchInput) (*models.Match, error)
	UpdateScore(ctx context.Context, id string, input UpdateScoreInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id string) error
}

// MatchInput используется и для создания, и для полного редактирования.
// Незаданные счет и статус при редактировании остаются прежними.
type MatchInput struct {
	CompetitionID string              `json:"competition_id"`
	Faculty1ID    string              `json:"faculty1_id"`
	Faculty2ID    string              `json:"faculty2_id"`
	Score1        *int                `json:"score1,omitempty"`
	Score2        *int                `json:"score2,omitempty"`
	Status        *models.MatchStatus `json:"status,omitempty"`
	Date          string              `json:"date"`
	Time          string              `json:"time"`
	Location      string              `json:"location"`
	Round         *string             `json:"round,omitempty"`
	Notes         *string             `json:"notes,omitempty"`
	StreamURL     *string             `json:"stream_url,omitempty"`
}

type UpdateScoreInput struct {
	Score1 int                 `json:"score1"`
	Score2 int                 `json:"score2"`
	Status *models.MatchStatus `json:"status,omitempty"`
}

type MatchListFilter struct {
	CompetitionID *string
	Status        *models.MatchStatus
}

type matchService struct {
	matchRepo       repositories.MatchRepository
	competitionRepo repositories.CompetitionRepository
	publisher       EventPublisher
	logger          *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	competitionRepo repositories.CompetitionRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		matchRepo:       matchRepo,
		competitionRepo: competitionRepo,
		publisher:       publisher,
		logger:          logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input MatchInput) (*models.Match, error) {
	match := &models.Match{
		ID:     uuid.NewString(),
		Status: models.MatchStatusScheduled,
	}
	applyMatchInput(match, input)

	competition, err := s.validateMatch(ctx, match)
	if err != nil {
		return nil, err
	}

	if err = s.matchRepo.Create(ctx, nil, match); err != nil {
		return nil, mapMatchRepoError(err)
	}
	match.Competition = competition

	s.logger.InfoContext(ctx, "Match created", slog.String("match_id", match.ID), slog.String("competition_id", match.CompetitionID))

	if err = s.afterStatusChange(ctx, "", match); err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, match.ID)
}

func (s *matchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter MatchListFilter) ([]models.Match, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchStatus, *filter.Status)
	}
	matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{
		CompetitionID: filter.CompetitionID,
		Status:        filter.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListLiveMatches(ctx context.Context) ([]models.Match, error) {
	status := models.MatchStatusLive
	return s.ListMatches(ctx, MatchListFilter{Status: &status})
}

func (s *matchService) ListUpcomingMatches(ctx context.Context, limit int) ([]models.Match, error) {
	status := models.MatchStatusScheduled
	matches, err := s.matchRepo.List(ctx, repositories.MatchFilter{Status: &status, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, id string, input MatchInput) (*models.Match, error) {
	current, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	previousStatus := current.Status

	updated := *current
	applyMatchInput(&updated, input)

	if _, err = s.validateMatch(ctx, &updated); err != nil {
		return nil, err
	}
	if err = s.matchRepo.Update(ctx, nil, &updated); err != nil {
		return nil, mapMatchRepoError(err)
	}

	if err = s.afterStatusChange(ctx, previousStatus, &updated); err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, id)
}

func (s *matchService) UpdateScore(ctx context.Context, id string, input UpdateScoreInput) (*models.Match, error) {
	current, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	previousStatus := current.Status

	updated := *current
	updated.Score1 = input.Score1
	updated.Score2 = input.Score2
	if input.Status != nil {
		updated.Status = *input.Status
	}

	if _, err = s.validateMatch(ctx, &updated); err != nil {
		return nil, err
	}
	if err = s.matchRepo.UpdateScore(ctx, nil, id, updated.Score1, updated.Score2, updated.Status); err != nil {
		return nil, mapMatchRepoError(err)
	}

	s.logger.InfoContext(ctx, "Match score updated",
		slog.String("match_id", id),
		slog.Int("score1", updated.Score1),
		slog.Int("score2", updated.Score2),
		slog.String("status", string(updated.Status)),
	)

	if err = s.afterStatusChange(ctx, previousStatus, &updated); err != nil {
		return nil, err
	}
	return s.GetMatch(ctx, id)
}

// DeleteMatch retracts the match's medals before the row is removed.
func (s *matchService) DeleteMatch(ctx context.Context, id string) error {
	if _, err := s.matchRepo.GetByID(ctx, nil, id); err != nil {
		return mapMatchRepoError(err)
	}

	if err := s.publisher.PublishMatchWithdrawn(ctx, id, events.ReasonDeleted); err != nil {
		return fmt.Errorf("failed to retract medals before deleting match %s: %w", id, err)
	}

	if err := s.matchRepo.Delete(ctx, nil, id); err != nil {
		return mapMatchRepoError(err)
	}
	s.logger.InfoContext(ctx, "Match deleted", slog.String("match_id", id))
	return nil
}

// afterStatusChange publishes what the medal ledger needs to know. Every
// save of a completed match re-evaluates it, so score corrections replace
// the earlier awards instead of adding to them.
func (s *matchService) afterStatusChange(ctx context.Context, previous models.MatchStatus, match *models.Match) error {
	var err error
	switch {
	case match.Status == models.MatchStatusCompleted:
		err = s.publisher.PublishMatchCompleted(ctx, match.ID)
	case previous == models.MatchStatusCompleted:
		err = s.publisher.PublishMatchWithdrawn(ctx, match.ID, events.ReasonReopened)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("match %s saved but medal update failed: %w", match.ID, err)
	}
	return nil
}

func (s *matchService) validateMatch(ctx context.Context, match *models.Match) (*models.Competition, error) {
	if strings.TrimSpace(match.CompetitionID) == "" || match.Faculty1ID == "" || match.Faculty2ID == "" {
		return nil, fmt.Errorf("%w: competition_id, faculty1_id and faculty2_id are required", ErrValidationFailed)
	}
	if !match.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchStatus, match.Status)
	}
	if match.Score1 < 0 || match.Score2 < 0 {
		return nil, ErrNegativeScore
	}
	if _, err := time.Parse(matchDateLayout, match.Date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidMatchSchedule, match.Date)
	}
	if _, err := time.Parse(matchTimeLayout, match.Time); err != nil {
		return nil, fmt.Errorf("%w: time %q", ErrInvalidMatchSchedule, match.Time)
	}

	competition, err := s.competitionRepo.GetByID(ctx, match.CompetitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition %s: %w", match.CompetitionID, err)
	}

	// В арт-матчах обе стороны часто один и тот же факультет-заглушка.
	if match.Faculty1ID == match.Faculty2ID && !competition.IsArt() {
		return nil, ErrSameFaculties
	}
	if competition.IsElimination() && match.IsCompleted() {
		if match.Score1 == match.Score2 {
			return nil, ErrTiedEliminationMatch
		}
		if err = s.checkMedalSlot(ctx, match); err != nil {
			return nil, err
		}
	}
	return competition, nil
}

// checkMedalSlot refuses a second completed match for the same medal slot
// of an elimination competition. "3rd Place" and "Lower Final" share the bronze.
func (s *matchService) checkMedalSlot(ctx context.Context, match *models.Match) error {
	slot := medals.SlotOf(match.RoundLabel())
	if slot == medals.SlotNone {
		return nil
	}

	status := models.MatchStatusCompleted
	decided, err := s.matchRepo.List(ctx, repositories.MatchFilter{CompetitionID: &match.CompetitionID, Status: &status})
	if err != nil {
		return fmt.Errorf("failed to check medal rounds of %s: %w", match.CompetitionID, err)
	}
	for i := range decided {
		other := &decided[i]
		if other.ID != match.ID && medals.SlotOf(other.RoundLabel()) == slot {
			return fmt.Errorf("%w: %s slot of %s is decided by match %s", ErrMedalRoundTaken, slot, match.CompetitionID, other.ID)
		}
	}
	return nil
}

func applyMatchInput(match *models.Match, input MatchInput) {
	match.CompetitionID = strings.TrimSpace(input.CompetitionID)
	match.Faculty1ID = input.Faculty1ID
	match.Faculty2ID = input.Faculty2ID
	if input.Score1 != nil {
		match.Score1 = *input.Score1
	}
	if input.Score2 != nil {
		match.Score2 = *input.Score2
	}
	if input.Status != nil {
		match.Status = *input.Status
	}
	match.Date = strings.TrimSpace(input.Date)
	match.Time = strings.TrimSpace(input.Time)
	match.Location = strings.TrimSpace(input.Location)
	match.Round = trimmedOrNil(input.Round)
	match.Notes = trimmedOrNil(input.Notes)
	match.StreamURL = trimmedOrNil(input.StreamURL)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func mapMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchCompetitionInvalid):
		return ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrMatchFacultyInvalid):
		return ErrFacultyNotFound
	default:
		return err
	}
}
