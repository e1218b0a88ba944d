package models

// ArtsPerformanceScore - оценка жюри одного факультета в арт-матче.
type ArtsPerformanceScore struct {
	MatchID   string  `json:"match_id" db:"match_id"`
	FacultyID string  `json:"faculty_id" db:"faculty_id"`
	Score     float64 `json:"score" db:"score"`

	Faculty *Faculty `json:"faculty,omitempty" db:"-"`
}
