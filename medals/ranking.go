package medals

import (
	"cmp"
	"slices"

	"github.com/Dosada05/faculty-games/models"
)

// PodiumSize is how many ranked performances receive medals.
const PodiumSize = 3

type RankedScore struct {
	Rank      int             `json:"rank"`
	FacultyID string          `json:"faculty_id"`
	Score     float64         `json:"score"`
	Faculty   *models.Faculty `json:"faculty,omitempty"`
}

// RankArts orders judged scores for one match: highest score first,
// equal scores ordered by faculty id ascending. Rows that belong to a
// different match are ignored; an empty matchID accepts every row.
func RankArts(matchID string, scores []models.ArtsPerformanceScore) []RankedScore {
	filtered := make([]models.ArtsPerformanceScore, 0, len(scores))
	for _, s := range scores {
		if matchID != "" && s.MatchID != "" && s.MatchID != matchID {
			continue
		}
		filtered = append(filtered, s)
	}

	slices.SortStableFunc(filtered, func(a, b models.ArtsPerformanceScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.FacultyID, b.FacultyID)
	})

	ranked := make([]RankedScore, len(filtered))
	for i, s := range filtered {
		ranked[i] = RankedScore{
			Rank:      i + 1,
			FacultyID: s.FacultyID,
			Score:     s.Score,
			Faculty:   s.Faculty,
		}
	}
	return ranked
}

// Podium returns at most the first PodiumSize entries of an already ranked list.
func Podium(ranked []RankedScore) []RankedScore {
	if len(ranked) > PodiumSize {
		return ranked[:PodiumSize]
	}
	return ranked
}
