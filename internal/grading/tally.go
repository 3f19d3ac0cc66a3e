package grading

import "math"

// Score aggregates graded results for a whole quiz.
type Score struct {
	Correct   int     `json:"correct"`
	Answered  int     `json:"answered"`
	Total     int     `json:"total"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
	Percent   float64 `json:"percent"`
}

// Tally sums per-question results. Percent is rounded to one decimal place.
func Tally(results []Result) Score {
	s := Score{Total: len(results)}
	for _, r := range results {
		if r.Answered {
			s.Answered++
		}
		if r.Correct {
			s.Correct++
		}
		s.Points += r.Points
		s.MaxPoints += r.MaxPoints
	}
	if s.MaxPoints > 0 {
		s.Percent = math.Round(s.Points/s.MaxPoints*1000) / 10
	}
	return s
}

// Passed reports whether the score meets a percentage pass mark.
func (s Score) Passed(threshold int) bool {
	if s.Total == 0 {
		return false
	}
	return s.Percent >= float64(threshold)
}
