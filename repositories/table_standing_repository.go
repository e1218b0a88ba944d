package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
)

type TableStandingRepository interface {
	ListByCompetition(ctx context.Context, competitionID string) ([]models.TableStanding, error)
	ReplaceForCompetition(ctx context.Context, exec SQLExecutor, competitionID string, rows []models.TableStanding) error
	DeleteAll(ctx context.Context, exec SQLExecutor) (int64, error)
}

type postgresTableStandingRepository struct {
	db *sql.DB
}

func NewPostgresTableStandingRepository(db *sql.DB) TableStandingRepository {
	return &postgresTableStandingRepository{db: db}
}

func (r *postgresTableStandingRepository) ListByCompetition(ctx context.Context, competitionID string) ([]models.TableStanding, error) {
	query := `
		SELECT t.faculty_id, t.competition_id, t.points, t.rank, t.updated_at,
		       f.name, f.short_name, f.color
		FROM table_standings t
		JOIN faculties f ON f.id = t.faculty_id
		WHERE t.competition_id = $1
		ORDER BY t.rank ASC, t.points DESC, t.faculty_id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query table standings for %s: %w", competitionID, err)
	}
	defer rows.Close()

	standings := make([]models.TableStanding, 0)
	for rows.Next() {
		var t models.TableStanding
		var f models.Faculty
		if scanErr := rows.Scan(&t.FacultyID, &t.CompetitionID, &t.Points, &t.Rank, &t.UpdatedAt,
			&f.Name, &f.ShortName, &f.Color); scanErr != nil {
			return nil, fmt.Errorf("failed to scan table standing row: %w", scanErr)
		}
		f.ID = t.FacultyID
		t.Faculty = &f
		standings = append(standings, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during table standing rows iteration: %w", err)
	}
	return standings, nil
}

// ReplaceForCompetition drops the competition's table and writes rows in its place.
// Run it inside a transaction.
func (r *postgresTableStandingRepository) ReplaceForCompetition(ctx context.Context, exec SQLExecutor, competitionID string, rows []models.TableStanding) error {
	executor := executorOr(exec, r.db)

	if _, err := executor.ExecContext(ctx, `DELETE FROM table_standings WHERE competition_id = $1`, competitionID); err != nil {
		return fmt.Errorf("failed to clear table standings for %s: %w", competitionID, err)
	}
	if len(rows) == 0 {
		return nil
	}

	stmt, err := executor.PrepareContext(ctx, `
		INSERT INTO table_standings (faculty_id, competition_id, points, rank, updated_at)
		VALUES ($1, $2, $3, $4, NOW())`)
	if err != nil {
		return fmt.Errorf("failed to prepare table standing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, row.FacultyID, competitionID, row.Points, row.Rank); err != nil {
			return fmt.Errorf("failed to insert table standing f:%s c:%s: %w", row.FacultyID, competitionID, err)
		}
	}
	return nil
}

func (r *postgresTableStandingRepository) DeleteAll(ctx context.Context, exec SQLExecutor) (int64, error) {
	executor := executorOr(exec, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM table_standings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete table standings: %w", err)
	}
	return result.RowsAffected()
}
