// Package mockexam draws timed mock exams from categorised question banks.
package mockexam

import (
	"math/rand/v2"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

// Draw picks n distinct questions spread as evenly as possible across the exam's
// categories. Categories that run short are topped up from the others. The
// result is shuffled; n is clamped to the bank size.
func Draw(e course.MockExam, n int, rng *rand.Rand) []course.BankQuestion {
	if n > len(e.Bank) {
		n = len(e.Bank)
	}
	if n <= 0 {
		return nil
	}

	groups := groupByCategory(e)
	for _, g := range groups {
		rng.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
	}

	out := make([]course.BankQuestion, 0, n)
	taken := make([]int, len(groups))
	per := n / len(groups)
	for i, g := range groups {
		k := min(per, len(g))
		out = append(out, g[:k]...)
		taken[i] = k
	}

	// round-robin the remainder and any shortfall over groups with questions left
	for len(out) < n {
		progressed := false
		for i, g := range groups {
			if len(out) == n {
				break
			}
			if taken[i] < len(g) {
				out = append(out, g[taken[i]])
				taken[i]++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// groupByCategory buckets the bank in category order. Questions tagged with a
// category the exam does not declare share one trailing bucket.
func groupByCategory(e course.MockExam) [][]course.BankQuestion {
	pos := make(map[string]int, len(e.Categories))
	groups := make([][]course.BankQuestion, 0, len(e.Categories)+1)
	for _, c := range e.Categories {
		if _, dup := pos[c]; dup {
			continue
		}
		pos[c] = len(groups)
		groups = append(groups, nil)
	}
	other := -1
	for _, q := range e.Bank {
		i, ok := pos[q.Category]
		if !ok {
			if other < 0 {
				other = len(groups)
				groups = append(groups, nil)
			}
			i = other
		}
		groups[i] = append(groups[i], q)
	}

	nonEmpty := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			nonEmpty = append(nonEmpty, g)
		}
	}
	return nonEmpty
}

// Questions flattens drawn bank questions into plain quiz questions.
func Questions(drawn []course.BankQuestion) []course.Question {
	out := make([]course.Question, 0, len(drawn))
	for _, q := range drawn {
		out = append(out, q.Question)
	}
	return out
}
