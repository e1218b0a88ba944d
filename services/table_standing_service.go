package services

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
)

type TableStandingEntry struct {
	FacultyID string `json:"faculty_id"`
	Points    int    `json:"points"`
	Rank      int    `json:"rank,omitempty"`
}

// TableStandingService ведет ручную таблицу арт-соревнований (формат table).
type TableStandingService interface {
	ListTable(ctx context.Context, competitionID string) ([]models.TableStanding, error)
	SaveTable(ctx context.Context, competitionID string, entries []TableStandingEntry) ([]models.TableStanding, error)
	ClearAll(ctx context.Context) (int64, error)
}

type tableStandingService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	tableRepo       repositories.TableStandingRepository
	logger          *slog.Logger
}

func NewTableStandingService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	tableRepo repositories.TableStandingRepository,
	logger *slog.Logger,
) TableStandingService {
	return &tableStandingService{
		db:              db,
		competitionRepo: competitionRepo,
		tableRepo:       tableRepo,
		logger:          logger,
	}
}

func (s *tableStandingService) ListTable(ctx context.Context, competitionID string) ([]models.TableStanding, error) {
	if _, err := s.loadArtsCompetition(ctx, competitionID); err != nil {
		return nil, err
	}
	rows, err := s.tableRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list table for %s: %w", competitionID, err)
	}
	return rows, nil
}

// SaveTable replaces the competition table. Entries without an explicit rank
// are ranked by points (ties share a rank).
func (s *tableStandingService) SaveTable(ctx context.Context, competitionID string, entries []TableStandingEntry) ([]models.TableStanding, error) {
	if _, err := s.loadArtsCompetition(ctx, competitionID); err != nil {
		return nil, err
	}

	rows, err := buildTableRows(competitionID, entries)
	if err != nil {
		return nil, err
	}

	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.tableRepo.ReplaceForCompetition(ctx, tx, competitionID, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save table for %s: %w", competitionID, err)
	}

	s.logger.InfoContext(ctx, "Table standings saved", slog.String("competition_id", competitionID), slog.Int("rows", len(rows)))
	return s.tableRepo.ListByCompetition(ctx, competitionID)
}

func (s *tableStandingService) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.tableRepo.DeleteAll(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to clear table standings: %w", err)
	}
	s.logger.InfoContext(ctx, "Table standings cleared", slog.Int64("rows", n))
	return n, nil
}

func (s *tableStandingService) loadArtsCompetition(ctx context.Context, competitionID string) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition %s: %w", competitionID, err)
	}
	if !competition.IsArt() {
		return nil, ErrNotArtsCompetition
	}
	return competition, nil
}

func buildTableRows(competitionID string, entries []TableStandingEntry) ([]models.TableStanding, error) {
	rows := make([]models.TableStanding, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	explicitRanks := true
	for _, e := range entries {
		if e.FacultyID == "" {
			return nil, fmt.Errorf("%w: faculty_id is required", ErrValidationFailed)
		}
		if _, dup := seen[e.FacultyID]; dup {
			return nil, fmt.Errorf("%w: faculty %s listed twice", ErrValidationFailed, e.FacultyID)
		}
		seen[e.FacultyID] = struct{}{}
		if e.Points < 0 || e.Rank < 0 {
			return nil, fmt.Errorf("%w: points and rank cannot be negative", ErrValidationFailed)
		}
		if e.Rank == 0 {
			explicitRanks = false
		}
		rows = append(rows, models.TableStanding{
			FacultyID:     e.FacultyID,
			CompetitionID: competitionID,
			Points:        e.Points,
			Rank:          e.Rank,
		})
	}

	if explicitRanks {
		return rows, nil
	}

	slices.SortStableFunc(rows, func(a, b models.TableStanding) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.FacultyID, b.FacultyID)
	})
	for i := range rows {
		if i > 0 && rows[i].Points == rows[i-1].Points {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows, nil
}
