package models

import "time"

// FacultyStanding - агрегат медалей факультета в одном соревновании.
// TotalPoints всегда пересчитывается из количества медалей.
type FacultyStanding struct {
	FacultyID     string    `json:"faculty_id" db:"faculty_id"`
	CompetitionID string    `json:"competition_id" db:"competition_id"`
	Gold          int       `json:"gold" db:"gold"`
	Silver        int       `json:"silver" db:"silver"`
	Bronze        int       `json:"bronze" db:"bronze"`
	TotalPoints   int       `json:"total_points" db:"total_points"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	Faculty *Faculty `json:"faculty,omitempty" db:"-"`
}

// MedalTally is the per-faculty sum of standings across all competitions.
type MedalTally struct {
	FacultyID        string `json:"faculty_id"`
	FacultyName      string `json:"faculty_name"`
	FacultyShortName string `json:"faculty_short_name"`
	FacultyColor     string `json:"faculty_color"`
	TotalGold        int    `json:"total_gold"`
	TotalSilver      int    `json:"total_silver"`
	TotalBronze      int    `json:"total_bronze"`
	TotalPoints      int    `json:"total_points"`
	Rank             int    `json:"rank"`
}
