package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
)

// MedalAwardRepository is the append-only medal ledger. Standings are a
// projection of it.
type MedalAwardRepository interface {
	// Insert records the award unless the (match, tier) pair already exists.
	// It reports whether a new row was written.
	Insert(ctx context.Context, exec SQLExecutor, award *models.MedalAward) (bool, error)
	// TierTakenInCompetition reports whether a match other than excludeMatchID
	// already holds the tier in the competition.
	TierTakenInCompetition(ctx context.Context, exec SQLExecutor, competitionID string, tier models.MedalTier, excludeMatchID string) (bool, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID string) ([]models.MedalAward, error)
	ListByFacultyCompetition(ctx context.Context, exec SQLExecutor, facultyID, competitionID string) ([]models.MedalAward, error)
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID string) (int64, error)
	DeleteAll(ctx context.Context, exec SQLExecutor) (int64, error)
}

type postgresMedalAwardRepository struct {
	db *sql.DB
}

func NewPostgresMedalAwardRepository(db *sql.DB) MedalAwardRepository {
	return &postgresMedalAwardRepository{db: db}
}

func (r *postgresMedalAwardRepository) Insert(ctx context.Context, exec SQLExecutor, award *models.MedalAward) (bool, error) {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO medal_awards (match_id, faculty_id, competition_id, tier)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT medal_awards_match_tier_key DO NOTHING
		RETURNING id, awarded_at`

	err := executor.QueryRowContext(ctx, query,
		award.MatchID, award.FacultyID, award.CompetitionID, award.Tier,
	).Scan(&award.ID, &award.AwardedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert %s award for match %s: %w", award.Tier, award.MatchID, err)
	}
	return true, nil
}

func (r *postgresMedalAwardRepository) TierTakenInCompetition(ctx context.Context, exec SQLExecutor, competitionID string, tier models.MedalTier, excludeMatchID string) (bool, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT EXISTS (
			SELECT 1 FROM medal_awards
			WHERE competition_id = $1 AND tier = $2 AND match_id <> $3
		)`

	var taken bool
	if err := executor.QueryRowContext(ctx, query, competitionID, tier, excludeMatchID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check %s awards in competition %s: %w", tier, competitionID, err)
	}
	return taken, nil
}

const awardSelect = `SELECT id, match_id, faculty_id, competition_id, tier, awarded_at FROM medal_awards`

func (r *postgresMedalAwardRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID string) ([]models.MedalAward, error) {
	executor := executorOr(exec, r.db)
	rows, err := executor.QueryContext(ctx, awardSelect+` WHERE match_id = $1 ORDER BY id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query awards for match %s: %w", matchID, err)
	}
	defer rows.Close()
	return collectAwards(rows)
}

func (r *postgresMedalAwardRepository) ListByFacultyCompetition(ctx context.Context, exec SQLExecutor, facultyID, competitionID string) ([]models.MedalAward, error) {
	executor := executorOr(exec, r.db)
	rows, err := executor.QueryContext(ctx,
		awardSelect+` WHERE faculty_id = $1 AND competition_id = $2 ORDER BY id ASC`,
		facultyID, competitionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query awards f:%s c:%s: %w", facultyID, competitionID, err)
	}
	defer rows.Close()
	return collectAwards(rows)
}

func collectAwards(rows *sql.Rows) ([]models.MedalAward, error) {
	awards := make([]models.MedalAward, 0)
	for rows.Next() {
		var a models.MedalAward
		if err := rows.Scan(&a.ID, &a.MatchID, &a.FacultyID, &a.CompetitionID, &a.Tier, &a.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan award row: %w", err)
		}
		awards = append(awards, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during award rows iteration: %w", err)
	}
	return awards, nil
}

func (r *postgresMedalAwardRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID string) (int64, error) {
	executor := executorOr(exec, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM medal_awards WHERE match_id = $1`, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete awards for match %s: %w", matchID, err)
	}
	return result.RowsAffected()
}

func (r *postgresMedalAwardRepository) DeleteAll(ctx context.Context, exec SQLExecutor) (int64, error) {
	executor := executorOr(exec, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM medal_awards`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete medal awards: %w", err)
	}
	return result.RowsAffected()
}
