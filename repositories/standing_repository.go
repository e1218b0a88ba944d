package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
)

var ErrFacultyStandingNotFound = errors.New("faculty standing not found")

type FacultyStandingRepository interface {
	Get(ctx context.Context, exec SQLExecutor, facultyID, competitionID string) (*models.FacultyStanding, error)
	Upsert(ctx context.Context, exec SQLExecutor, standing *models.FacultyStanding) error
	Delete(ctx context.Context, exec SQLExecutor, facultyID, competitionID string) error
	DeleteAll(ctx context.Context, exec SQLExecutor) (int64, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID string) ([]models.FacultyStanding, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]models.FacultyStanding, error)
	MedalTally(ctx context.Context, exec SQLExecutor) ([]models.MedalTally, error)
}

type postgresFacultyStandingRepository struct {
	db *sql.DB // Main DB connection, used if exec is nil
}

func NewPostgresFacultyStandingRepository(db *sql.DB) FacultyStandingRepository {
	return &postgresFacultyStandingRepository{db: db}
}

const standingSelect = `
	SELECT s.faculty_id, s.competition_id, s.gold, s.silver, s.bronze, s.total_points, s.updated_at,
	       f.name, f.short_name, f.color
	FROM faculty_standings s
	JOIN faculties f ON f.id = s.faculty_id`

const standingOrder = ` ORDER BY s.total_points DESC, s.gold DESC, s.silver DESC, s.bronze DESC, s.faculty_id ASC`

func scanStanding(row rowScanner) (*models.FacultyStanding, error) {
	var s models.FacultyStanding
	var f models.Faculty
	err := row.Scan(
		&s.FacultyID, &s.CompetitionID, &s.Gold, &s.Silver, &s.Bronze, &s.TotalPoints, &s.UpdatedAt,
		&f.Name, &f.ShortName, &f.Color,
	)
	if err != nil {
		return nil, err
	}
	f.ID = s.FacultyID
	s.Faculty = &f
	return &s, nil
}

func (r *postgresFacultyStandingRepository) Get(ctx context.Context, exec SQLExecutor, facultyID, competitionID string) (*models.FacultyStanding, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT faculty_id, competition_id, gold, silver, bronze, total_points, updated_at
		FROM faculty_standings
		WHERE faculty_id = $1 AND competition_id = $2`

	var s models.FacultyStanding
	err := executor.QueryRowContext(ctx, query, facultyID, competitionID).Scan(
		&s.FacultyID, &s.CompetitionID, &s.Gold, &s.Silver, &s.Bronze, &s.TotalPoints, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFacultyStandingNotFound
		}
		return nil, fmt.Errorf("failed to get standing f:%s c:%s: %w", facultyID, competitionID, err)
	}
	return &s, nil
}

// Upsert writes the row keyed by (faculty_id, competition_id). The caller is
// responsible for TotalPoints; the table check constraint rejects a mismatch.
func (r *postgresFacultyStandingRepository) Upsert(ctx context.Context, exec SQLExecutor, standing *models.FacultyStanding) error {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO faculty_standings (faculty_id, competition_id, gold, silver, bronze, total_points, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (faculty_id, competition_id) DO UPDATE SET
			gold = EXCLUDED.gold,
			silver = EXCLUDED.silver,
			bronze = EXCLUDED.bronze,
			total_points = EXCLUDED.total_points,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`

	err := executor.QueryRowContext(ctx, query,
		standing.FacultyID, standing.CompetitionID,
		standing.Gold, standing.Silver, standing.Bronze, standing.TotalPoints,
	).Scan(&standing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert standing f:%s c:%s: %w", standing.FacultyID, standing.CompetitionID, err)
	}
	return nil
}

func (r *postgresFacultyStandingRepository) Delete(ctx context.Context, exec SQLExecutor, facultyID, competitionID string) error {
	executor := executorOr(exec, r.db)
	query := `DELETE FROM faculty_standings WHERE faculty_id = $1 AND competition_id = $2`
	result, err := executor.ExecContext(ctx, query, facultyID, competitionID)
	if err != nil {
		return fmt.Errorf("failed to delete standing f:%s c:%s: %w", facultyID, competitionID, err)
	}
	return checkAffectedRows(result, ErrFacultyStandingNotFound)
}

func (r *postgresFacultyStandingRepository) DeleteAll(ctx context.Context, exec SQLExecutor) (int64, error) {
	executor := executorOr(exec, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM faculty_standings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete faculty standings: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

func (r *postgresFacultyStandingRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID string) ([]models.FacultyStanding, error) {
	executor := executorOr(exec, r.db)
	rows, err := executor.QueryContext(ctx, standingSelect+` WHERE s.competition_id = $1`+standingOrder, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for competition %s: %w", competitionID, err)
	}
	defer rows.Close()
	return collectStandings(rows)
}

func (r *postgresFacultyStandingRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]models.FacultyStanding, error) {
	executor := executorOr(exec, r.db)
	rows, err := executor.QueryContext(ctx, standingSelect+standingOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()
	return collectStandings(rows)
}

func collectStandings(rows *sql.Rows) ([]models.FacultyStanding, error) {
	standings := make([]models.FacultyStanding, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows)
		if errScan != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", errScan)
		}
		standings = append(standings, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standing rows iteration: %w", err)
	}
	return standings, nil
}

// MedalTally sums every standing row per faculty. Faculties without medals
// are returned with zero counts. Rows are unranked.
func (r *postgresFacultyStandingRepository) MedalTally(ctx context.Context, exec SQLExecutor) ([]models.MedalTally, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT f.id, f.name, f.short_name, f.color,
		       COALESCE(SUM(s.gold), 0), COALESCE(SUM(s.silver), 0),
		       COALESCE(SUM(s.bronze), 0), COALESCE(SUM(s.total_points), 0)
		FROM faculties f
		LEFT JOIN faculty_standings s ON s.faculty_id = f.id
		GROUP BY f.id, f.name, f.short_name, f.color
		ORDER BY f.id ASC`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query medal tally: %w", err)
	}
	defer rows.Close()

	tally := make([]models.MedalTally, 0)
	for rows.Next() {
		var t models.MedalTally
		if scanErr := rows.Scan(
			&t.FacultyID, &t.FacultyName, &t.FacultyShortName, &t.FacultyColor,
			&t.TotalGold, &t.TotalSilver, &t.TotalBronze, &t.TotalPoints,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan medal tally row: %w", scanErr)
		}
		tally = append(tally, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during medal tally rows iteration: %w", err)
	}
	return tally, nil
}
