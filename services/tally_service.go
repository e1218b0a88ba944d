package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Dosada05/faculty-games/cache"
	"github.com/Dosada05/faculty-games/medals"
	"github.com/Dosada05/faculty-games/models"
	"github.com/Dosada05/faculty-games/repositories"
)

// tallyLockKey - ключ pg_advisory_xact_lock для всех записей в медальный зачет.
const tallyLockKey int64 = 0x66676d74

type SyncReport struct {
	MatchesProcessed int `json:"matches_processed"`
	MatchesSkipped   int `json:"matches_skipped"`
	AwardsGranted    int `json:"awards_granted"`
}

type TallyService interface {
	// ApplyMedal adds one medal to the (faculty, competition) row and returns the row.
	ApplyMedal(ctx context.Context, exec repositories.SQLExecutor, facultyID, competitionID string, tier models.MedalTier) (*models.FacultyStanding, error)
	// AwardMatch (re)evaluates a single match: previous awards of the match
	// are retracted, then the current result is recorded.
	AwardMatch(ctx context.Context, matchID string) (medals.Outcome, error)
	RetractMatch(ctx context.Context, matchID string) error
	Sync(ctx context.Context) (SyncReport, error)
	Reset(ctx context.Context) error

	MedalTally(ctx context.Context) ([]models.MedalTally, error)
	Standings(ctx context.Context, competitionID *string) ([]models.FacultyStanding, error)
}

type tallyService struct {
	db           *sql.DB
	matchRepo    repositories.MatchRepository
	artsRepo     repositories.ArtsScoreRepository
	standingRepo repositories.FacultyStandingRepository
	awardRepo    repositories.MedalAwardRepository
	cache        cache.TallyCache
	logger       *slog.Logger

	// Сериализует запись внутри процесса; между процессами - advisory lock.
	mu sync.Mutex
	// Растёт при каждой инвалидации; читатель не кладёт в кэш зачет,
	// прочитанный до чужой записи.
	version atomic.Uint64
}

func NewTallyService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	artsRepo repositories.ArtsScoreRepository,
	standingRepo repositories.FacultyStandingRepository,
	awardRepo repositories.MedalAwardRepository,
	tallyCache cache.TallyCache,
	logger *slog.Logger,
) TallyService {
	if tallyCache == nil {
		tallyCache = cache.NoopTallyCache{}
	}
	return &tallyService{
		db:           db,
		matchRepo:    matchRepo,
		artsRepo:     artsRepo,
		standingRepo: standingRepo,
		awardRepo:    awardRepo,
		cache:        tallyCache,
		logger:       logger,
	}
}

func (s *tallyService) ApplyMedal(ctx context.Context, exec repositories.SQLExecutor, facultyID, competitionID string, tier models.MedalTier) (*models.FacultyStanding, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: unknown medal tier %q", ErrValidationFailed, tier)
	}

	standing, err := s.standingRepo.Get(ctx, exec, facultyID, competitionID)
	if err != nil {
		if !errors.Is(err, repositories.ErrFacultyStandingNotFound) {
			return nil, err
		}
		standing = &models.FacultyStanding{FacultyID: facultyID, CompetitionID: competitionID}
	}

	medals.Apply(standing, tier)

	if err = s.standingRepo.Upsert(ctx, exec, standing); err != nil {
		return nil, err
	}
	return standing, nil
}

func (s *tallyService) AwardMatch(ctx context.Context, matchID string) (medals.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome medals.Outcome
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := lockTally(ctx, tx); err != nil {
			return err
		}

		match, err := s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}

		if _, err = s.retractInTx(ctx, tx, matchID); err != nil {
			return err
		}

		outcome, _, err = s.awardInTx(ctx, tx, match)
		return err
	})
	if err != nil {
		return medals.Outcome{}, fmt.Errorf("failed to award match %s: %w", matchID, err)
	}

	s.invalidate(ctx)
	return outcome, nil
}

func (s *tallyService) RetractMatch(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var retracted int
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := lockTally(ctx, tx); err != nil {
			return err
		}
		var err error
		retracted, err = s.retractInTx(ctx, tx, matchID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to retract medals of match %s: %w", matchID, err)
	}

	if retracted > 0 {
		s.logger.InfoContext(ctx, "Medals retracted", slog.String("match_id", matchID), slog.Int("awards", retracted))
		s.invalidate(ctx)
	}
	return nil
}

// Sync rebuilds every standing from the full match history. It runs in a
// single transaction, so on failure the previous standings stay in place.
func (s *tallyService) Sync(ctx context.Context) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report SyncReport
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := lockTally(ctx, tx); err != nil {
			return err
		}

		if _, err := s.standingRepo.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if _, err := s.awardRepo.DeleteAll(ctx, tx); err != nil {
			return err
		}

		matches, err := s.matchRepo.ListCompleted(ctx, tx)
		if err != nil {
			return err
		}

		for i := range matches {
			outcome, granted, awardErr := s.awardInTx(ctx, tx, &matches[i])
			if awardErr != nil {
				return awardErr
			}
			report.MatchesProcessed++
			if outcome.Skipped() {
				report.MatchesSkipped++
			}
			report.AwardsGranted += granted
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Medal tally sync aborted", slog.Any("error", err))
		return SyncReport{}, fmt.Errorf("%w: %w", ErrSyncAborted, err)
	}

	s.logger.InfoContext(ctx, "Medal tally synced",
		slog.Int("matches_processed", report.MatchesProcessed),
		slog.Int("matches_skipped", report.MatchesSkipped),
		slog.Int("awards_granted", report.AwardsGranted),
	)
	s.invalidate(ctx)
	return report, nil
}

func (s *tallyService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := lockTally(ctx, tx); err != nil {
			return err
		}
		if _, err := s.standingRepo.DeleteAll(ctx, tx); err != nil {
			return err
		}
		_, err := s.awardRepo.DeleteAll(ctx, tx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reset medal tally: %w", err)
	}

	s.logger.InfoContext(ctx, "Medal tally reset")
	s.invalidate(ctx)
	return nil
}

func (s *tallyService) MedalTally(ctx context.Context) ([]models.MedalTally, error) {
	tally, ok, err := s.cache.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Tally cache read failed", slog.Any("error", err))
	} else if ok {
		return tally, nil
	}

	seen := s.version.Load()
	tally, err = s.standingRepo.MedalTally(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load medal tally: %w", err)
	}
	medals.RankTally(tally)

	if s.version.Load() != seen {
		return tally, nil
	}
	if err = s.cache.Set(ctx, tally); err != nil {
		s.logger.WarnContext(ctx, "Tally cache write failed", slog.Any("error", err))
	}
	// Запись могла закоммититься между проверкой и Set.
	if s.version.Load() != seen {
		s.dropCache(ctx)
	}
	return tally, nil
}

func (s *tallyService) Standings(ctx context.Context, competitionID *string) ([]models.FacultyStanding, error) {
	var (
		standings []models.FacultyStanding
		err       error
	)
	if competitionID != nil {
		standings, err = s.standingRepo.ListByCompetition(ctx, nil, *competitionID)
	} else {
		standings, err = s.standingRepo.ListAll(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	return standings, nil
}

// awardInTx evaluates one match and records what it earns. A ledger row that
// already exists is not applied again.
func (s *tallyService) awardInTx(ctx context.Context, tx *sql.Tx, match *models.Match) (medals.Outcome, int, error) {
	var artsScores []models.ArtsPerformanceScore
	if match.Competition.IsArt() && match.IsCompleted() {
		var err error
		artsScores, err = s.artsRepo.ListByMatch(ctx, tx, match.ID)
		if err != nil {
			return medals.Outcome{}, 0, err
		}
	}

	outcome := medals.Evaluate(match, match.Competition, artsScores)
	if outcome.Skipped() {
		s.logger.DebugContext(ctx, "Match earns no medals",
			slog.String("match_id", match.ID),
			slog.String("round", match.RoundLabel()),
			slog.String("reason", string(outcome.Skip)),
		)
		return outcome, 0, nil
	}

	granted := 0
	for _, a := range outcome.Assignments {
		// В сетке на выбывание каждая медаль одна на соревнование.
		if match.Competition.IsElimination() {
			taken, err := s.awardRepo.TierTakenInCompetition(ctx, tx, a.CompetitionID, a.Tier, match.ID)
			if err != nil {
				return outcome, granted, err
			}
			if taken {
				s.logger.WarnContext(ctx, "Medal already awarded in competition, skipping",
					slog.String("match_id", match.ID),
					slog.String("competition_id", a.CompetitionID),
					slog.String("tier", string(a.Tier)),
				)
				continue
			}
		}

		award := &models.MedalAward{
			MatchID:       match.ID,
			FacultyID:     a.FacultyID,
			CompetitionID: a.CompetitionID,
			Tier:          a.Tier,
		}
		inserted, err := s.awardRepo.Insert(ctx, tx, award)
		if err != nil {
			return outcome, granted, err
		}
		if !inserted {
			continue
		}
		if _, err = s.ApplyMedal(ctx, tx, a.FacultyID, a.CompetitionID, a.Tier); err != nil {
			return outcome, granted, err
		}
		granted++
	}
	return outcome, granted, nil
}

// retractInTx removes the match's ledger rows and rebuilds the affected
// standings from what is left in the ledger.
func (s *tallyService) retractInTx(ctx context.Context, tx *sql.Tx, matchID string) (int, error) {
	awards, err := s.awardRepo.ListByMatch(ctx, tx, matchID)
	if err != nil {
		return 0, err
	}
	if len(awards) == 0 {
		return 0, nil
	}

	if _, err = s.awardRepo.DeleteByMatch(ctx, tx, matchID); err != nil {
		return 0, err
	}

	type pair struct{ facultyID, competitionID string }
	affected := make(map[pair]struct{}, len(awards))
	for _, a := range awards {
		affected[pair{a.FacultyID, a.CompetitionID}] = struct{}{}
	}

	for p := range affected {
		remaining, listErr := s.awardRepo.ListByFacultyCompetition(ctx, tx, p.facultyID, p.competitionID)
		if listErr != nil {
			return 0, listErr
		}
		rows := medals.Fold(remaining)
		if len(rows) == 0 {
			delErr := s.standingRepo.Delete(ctx, tx, p.facultyID, p.competitionID)
			if delErr != nil && !errors.Is(delErr, repositories.ErrFacultyStandingNotFound) {
				return 0, delErr
			}
			continue
		}
		if err = s.standingRepo.Upsert(ctx, tx, &rows[0]); err != nil {
			return 0, err
		}
	}
	return len(awards), nil
}

func (s *tallyService) invalidate(ctx context.Context) {
	s.version.Add(1)
	s.dropCache(ctx)
}

func (s *tallyService) dropCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "Tally cache invalidation failed", slog.Any("error", err))
	}
}

func lockTally(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, tallyLockKey); err != nil {
		return fmt.Errorf("failed to acquire tally lock: %w", err)
	}
	return nil
}
