package models

import "time"

// TableStanding - строка табличного зачета арт-соревнования, ведется админом.
type TableStanding struct {
	FacultyID     string    `json:"faculty_id" db:"faculty_id"`
	CompetitionID string    `json:"competition_id" db:"competition_id"`
	Points        int       `json:"points" db:"points"`
	Rank          int       `json:"rank" db:"rank"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	Faculty *Faculty `json:"faculty,omitempty" db:"-"`
}
