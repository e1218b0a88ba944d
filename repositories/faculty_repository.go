package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/faculty-games/models"
)

var ErrFacultyNotFound = errors.New("faculty not found")

type FacultyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Faculty, error)
	List(ctx context.Context) ([]models.Faculty, error)
	UpdateLogoKey(ctx context.Context, id string, logoKey *string) error
}

type postgresFacultyRepository struct {
	db *sql.DB
}

func NewPostgresFacultyRepository(db *sql.DB) FacultyRepository {
	return &postgresFacultyRepository{db: db}
}

const facultyColumns = `id, name, short_name, color, logo_key, created_at`

func scanFaculty(row rowScanner) (*models.Faculty, error) {
	var f models.Faculty
	var logoKey sql.NullString
	if err := row.Scan(&f.ID, &f.Name, &f.ShortName, &f.Color, &logoKey, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.LogoKey = nullStringPtr(logoKey)
	return &f, nil
}

func (r *postgresFacultyRepository) GetByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculties WHERE id = $1`

	f, err := scanFaculty(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFacultyNotFound
		}
		return nil, fmt.Errorf("failed to get faculty %s: %w", id, err)
	}
	return f, nil
}

func (r *postgresFacultyRepository) List(ctx context.Context) ([]models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculties ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query faculties: %w", err)
	}
	defer rows.Close()

	faculties := make([]models.Faculty, 0)
	for rows.Next() {
		f, scanErr := scanFaculty(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan faculty row: %w", scanErr)
		}
		faculties = append(faculties, *f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during faculty rows iteration: %w", err)
	}
	return faculties, nil
}

func (r *postgresFacultyRepository) UpdateLogoKey(ctx context.Context, id string, logoKey *string) error {
	query := `UPDATE faculties SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update logo for faculty %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrFacultyNotFound)
}
