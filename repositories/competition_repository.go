package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
)

var ErrCompetitionNotFound = errors.New("competition not found")

type CompetitionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Competition, error)
	List(ctx context.Context) ([]models.Competition, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id string) (*models.Competition, error) {
	query := `SELECT id, name, kind, format, category, icon FROM competitions WHERE id = $1`

	var c models.Competition
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Kind, &c.Format, &c.Category, &c.Icon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %s: %w", id, err)
	}
	return &c, nil
}

func (r *postgresCompetitionRepository) List(ctx context.Context) ([]models.Competition, error) {
	// Сначала спорт, потом искусство, внутри - по имени
	query := `SELECT id, name, kind, format, category, icon FROM competitions ORDER BY kind DESC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions: %w", err)
	}
	defer rows.Close()

	competitions := make([]models.Competition, 0)
	for rows.Next() {
		var c models.Competition
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Format, &c.Category, &c.Icon); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", scanErr)
		}
		competitions = append(competitions, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition rows iteration: %w", err)
	}
	return competitions, nil
}
