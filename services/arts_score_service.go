package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/faculty-games/medals"
	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
)

// ArtsScoreboard - оценки жюри по арт-матчу в порядке мест.
type ArtsScoreboard struct {
	MatchID           string               `json:"match_id"`
	Scores            []medals.RankedScore `json:"scores"`
	Podium            []medals.RankedScore `json:"podium"`
	JudgingInProgress bool                 `json:"judging_in_progress"`
}

type ArtsScoreEntry struct {
	FacultyID string  `json:"faculty_id"`
	Score     float64 `json:"score"`
}

type ArtsScoreService interface {
	ScoresFor(ctx context.Context, matchID string) (*ArtsScoreboard, error)
	SaveScoresFor(ctx context.Context, matchID string, entries []ArtsScoreEntry) (*ArtsScoreboard, error)
}

type artsScoreService struct {
	db        *sql.DB
	matchRepo repositories.MatchRepository
	artsRepo  repositories.ArtsScoreRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewArtsScoreService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	artsRepo repositories.ArtsScoreRepository,
	publisher EventPublisher,
	logger *slog.Logger,
) ArtsScoreService {
	return &artsScoreService{
		db:        db,
		matchRepo: matchRepo,
		artsRepo:  artsRepo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *artsScoreService) ScoresFor(ctx context.Context, matchID string) (*ArtsScoreboard, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if !match.Competition.IsArt() {
		return nil, ErrNotArtsMatch
	}

	scores, err := s.artsRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load arts scores for match %s: %w", matchID, err)
	}

	ranked := medals.RankArts(matchID, scores)
	return &ArtsScoreboard{
		MatchID:           matchID,
		Scores:            ranked,
		Podium:            medals.Podium(ranked),
		JudgingInProgress: len(ranked) == 0 && match.IsCompleted(),
	}, nil
}

// SaveScoresFor replaces every score of the match in one transaction.
func (s *artsScoreService) SaveScoresFor(ctx context.Context, matchID string, entries []ArtsScoreEntry) (*ArtsScoreboard, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapMatchRepoError(err)
	}
	if !match.Competition.IsArt() {
		return nil, ErrNotArtsMatch
	}

	rows := make([]models.ArtsPerformanceScore, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.FacultyID == "" {
			return nil, fmt.Errorf("%w: faculty_id is required", ErrValidationFailed)
		}
		if e.Score < 0 {
			return nil, ErrNegativeScore
		}
		if _, dup := seen[e.FacultyID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArtsFaculty, e.FacultyID)
		}
		seen[e.FacultyID] = struct{}{}
		rows = append(rows, models.ArtsPerformanceScore{MatchID: matchID, FacultyID: e.FacultyID, Score: e.Score})
	}

	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, delErr := s.artsRepo.DeleteByMatch(ctx, tx, matchID); delErr != nil {
			return delErr
		}
		return s.artsRepo.BatchCreate(ctx, tx, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save arts scores for match %s: %w", matchID, err)
	}

	s.logger.InfoContext(ctx, "Arts scores saved", slog.String("match_id", matchID), slog.Int("count", len(rows)))

	// Оценки завершенного финала меняют медали.
	if match.IsCompleted() {
		if err = s.publisher.PublishMatchCompleted(ctx, matchID); err != nil {
			return nil, fmt.Errorf("arts scores saved but medal update failed: %w", err)
		}
	}
	return s.ScoresFor(ctx, matchID)
}
