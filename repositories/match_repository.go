package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/faculty-games/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchCompetitionInvalid = errors.New("match competition conflict or invalid")
	ErrMatchFacultyInvalid     = errors.New("match faculty conflict or invalid")
)

type MatchFilter struct {
	CompetitionID *string
	Status        *models.MatchStatus
	Limit         int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]models.Match, error)
	ListCompleted(ctx context.Context, exec SQLExecutor) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateScore(ctx context.Context, exec SQLExecutor, id string, score1, score2 int, status models.MatchStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

// Соревнование и факультеты подтягиваются LEFT JOIN'ом: матч без справочных
// данных все равно должен вернуться, решение о нем принимает сервис.
const matchSelect = `
	SELECT m.id, m.competition_id, m.faculty1_id, m.faculty2_id, m.score1, m.score2, m.status,
	       m.match_date, m.match_time, m.location, m.round, m.notes, m.stream_url,
	       m.created_at, m.updated_at,
	       f1.name, f1.short_name, f1.color,
	       f2.name, f2.short_name, f2.color,
	       c.name, c.kind, c.format, c.category, c.icon
	FROM matches m
	LEFT JOIN faculties f1 ON f1.id = m.faculty1_id
	LEFT JOIN faculties f2 ON f2.id = m.faculty2_id
	LEFT JOIN competitions c ON c.id = m.competition_id`

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m                           models.Match
		round, notes, streamURL     sql.NullString
		f1Name, f1Short, f1Color    sql.NullString
		f2Name, f2Short, f2Color    sql.NullString
		cName, cKind, cFormat, cCat sql.NullString
		cIcon                       sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.CompetitionID, &m.Faculty1ID, &m.Faculty2ID, &m.Score1, &m.Score2, &m.Status,
		&m.Date, &m.Time, &m.Location, &round, &notes, &streamURL,
		&m.CreatedAt, &m.UpdatedAt,
		&f1Name, &f1Short, &f1Color,
		&f2Name, &f2Short, &f2Color,
		&cName, &cKind, &cFormat, &cCat, &cIcon,
	)
	if err != nil {
		return nil, err
	}

	m.Round = nullStringPtr(round)
	m.Notes = nullStringPtr(notes)
	m.StreamURL = nullStringPtr(streamURL)

	if f1Name.Valid {
		m.Faculty1 = &models.Faculty{ID: m.Faculty1ID, Name: f1Name.String, ShortName: f1Short.String, Color: f1Color.String}
	}
	if f2Name.Valid {
		m.Faculty2 = &models.Faculty{ID: m.Faculty2ID, Name: f2Name.String, ShortName: f2Short.String, Color: f2Color.String}
	}
	if cName.Valid {
		m.Competition = &models.Competition{
			ID:       m.CompetitionID,
			Name:     cName.String,
			Kind:     models.CompetitionKind(cKind.String),
			Format:   models.CompetitionFormat(cFormat.String),
			Category: models.CompetitionCategory(cCat.String),
			Icon:     cIcon.String,
		}
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO matches
			(id, competition_id, faculty1_id, faculty2_id, score1, score2, status,
			 match_date, match_time, location, round, notes, stream_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		match.ID,
		match.CompetitionID,
		match.Faculty1ID,
		match.Faculty2ID,
		match.Score1,
		match.Score2,
		match.Status,
		match.Date,
		match.Time,
		match.Location,
		match.Round,
		match.Notes,
		match.StreamURL,
	).Scan(&match.CreatedAt, &match.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	executor := executorOr(exec, r.db)
	query := matchSelect + ` WHERE m.id = $1`

	match, err := scanMatch(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(matchSelect)
	queryBuilder.WriteString(" WHERE 1=1")

	args := []interface{}{}
	placeholderIndex := 1

	if filter.CompetitionID != nil {
		queryBuilder.WriteString(" AND m.competition_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.CompetitionID)
		placeholderIndex++
	}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND m.status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}

	queryBuilder.WriteString(" ORDER BY m.match_date ASC, m.match_time ASC, m.id ASC")

	if filter.Limit > 0 {
		queryBuilder.WriteString(" LIMIT $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// ListCompleted returns every completed match that has a round label,
// ordered by id so a replay visits matches in a stable order.
func (r *postgresMatchRepository) ListCompleted(ctx context.Context, exec SQLExecutor) ([]models.Match, error) {
	executor := executorOr(exec, r.db)
	query := matchSelect + ` WHERE m.status = $1 AND m.round IS NOT NULL ORDER BY m.id ASC`

	rows, err := executor.QueryContext(ctx, query, models.MatchStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

func collectMatches(rows *sql.Rows) ([]models.Match, error) {
	matches := make([]models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := executorOr(exec, r.db)
	query := `
		UPDATE matches SET
			competition_id = $1, faculty1_id = $2, faculty2_id = $3, score1 = $4, score2 = $5,
			status = $6, match_date = $7, match_time = $8, location = $9, round = $10,
			notes = $11, stream_url = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at`

	err := executor.QueryRowContext(ctx, query,
		match.CompetitionID, match.Faculty1ID, match.Faculty2ID, match.Score1, match.Score2,
		match.Status, match.Date, match.Time, match.Location, match.Round,
		match.Notes, match.StreamURL,
		match.ID,
	).Scan(&match.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id string, score1, score2 int, status models.MatchStatus) error {
	executor := executorOr(exec, r.db)
	query := `UPDATE matches SET score1 = $1, score2 = $2, status = $3, updated_at = NOW() WHERE id = $4`

	result, err := executor.ExecContext(ctx, query, score1, score2, status, id)
	if err != nil {
		return fmt.Errorf("failed to update score for match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	executor := executorOr(exec, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// "23503": foreign_key_violation
		switch pqErr.Constraint {
		case "matches_competition_id_fkey":
			return ErrMatchCompetitionInvalid
		case "matches_faculty1_id_fkey", "matches_faculty2_id_fkey":
			return ErrMatchFacultyInvalid
		}
	}
	return err
}
