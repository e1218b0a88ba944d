package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
)

type ArtsScoreRepository interface {
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID string) ([]models.ArtsPerformanceScore, error)
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID string) (int64, error)
	BatchCreate(ctx context.Context, exec SQLExecutor, scores []models.ArtsPerformanceScore) error
}

type postgresArtsScoreRepository struct {
	db *sql.DB
}

func NewPostgresArtsScoreRepository(db *sql.DB) ArtsScoreRepository {
	return &postgresArtsScoreRepository{db: db}
}

func (r *postgresArtsScoreRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID string) ([]models.ArtsPerformanceScore, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT s.match_id, s.faculty_id, s.score, f.name, f.short_name, f.color
		FROM arts_competition_scores s
		JOIN faculties f ON f.id = s.faculty_id
		WHERE s.match_id = $1
		ORDER BY s.score DESC, s.faculty_id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query arts scores for match %s: %w", matchID, err)
	}
	defer rows.Close()

	scores := make([]models.ArtsPerformanceScore, 0)
	for rows.Next() {
		var s models.ArtsPerformanceScore
		var f models.Faculty
		if scanErr := rows.Scan(&s.MatchID, &s.FacultyID, &s.Score, &f.Name, &f.ShortName, &f.Color); scanErr != nil {
			return nil, fmt.Errorf("failed to scan arts score row: %w", scanErr)
		}
		f.ID = s.FacultyID
		s.Faculty = &f
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during arts score rows iteration: %w", err)
	}
	return scores, nil
}

func (r *postgresArtsScoreRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID string) (int64, error) {
	executor := executorOr(exec, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM arts_competition_scores WHERE match_id = $1`, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete arts scores for match %s: %w", matchID, err)
	}
	return result.RowsAffected()
}

func (r *postgresArtsScoreRepository) BatchCreate(ctx context.Context, exec SQLExecutor, scores []models.ArtsPerformanceScore) error {
	if len(scores) == 0 {
		return nil
	}
	executor := executorOr(exec, r.db)

	stmt, err := executor.PrepareContext(ctx, `
		INSERT INTO arts_competition_scores (match_id, faculty_id, score)
		VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare arts score insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err = stmt.ExecContext(ctx, s.MatchID, s.FacultyID, s.Score); err != nil {
			return fmt.Errorf("failed to insert arts score m:%s f:%s: %w", s.MatchID, s.FacultyID, err)
		}
	}
	return nil
}
