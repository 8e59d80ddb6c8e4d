package scoring

import (
	"context"
	"math"
	"sort"

	"github.com/arveendYbs/performance-appraisal-system-phase3-sub001/internal/domain/appraisal"
)

// Percent scores an appraisal as the percentage of achieved rating points.
// Ratings come from the direct superior when present, else from the most
// recent level that rated anything, else from the employee's own answers.
type Percent struct{}

func (Percent) Score(_ context.Context, a appraisal.Appraisal) (appraisal.Score, error) {
	total, ok := Compute(ratingSource(a))
	if !ok {
		return appraisal.Score{Total: 0, Grade: appraisal.GradeUnrated}, nil
	}
	return appraisal.Score{Total: total, Grade: Grade(total)}, nil
}

func ratingSource(a appraisal.Appraisal) []appraisal.Answer {
	if r, ok := a.Review(1); ok && hasRatings(r.Answers) {
		return r.Answers
	}
	reviews := append([]appraisal.LevelReview(nil), a.Reviews...)
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].Level > reviews[j].Level })
	for _, r := range reviews {
		if hasRatings(r.Answers) {
			return r.Answers
		}
	}
	return a.Responses
}

func hasRatings(answers []appraisal.Answer) bool {
	for _, ans := range answers {
		if ans.MaxRating > 0 {
			return true
		}
	}
	return false
}

// Compute returns Σrating / ΣmaxRating × 100 rounded to one decimal, and
// false when no answer carries a rating scale.
func Compute(answers []appraisal.Answer) (float64, bool) {
	var got, possible float64
	for _, ans := range answers {
		if ans.MaxRating <= 0 {
			continue
		}
		got += ans.Rating
		possible += ans.MaxRating
	}
	if possible == 0 {
		return 0, false
	}
	return math.Round(got/possible*1000) / 10, true
}

func Grade(total float64) string {
	switch {
	case total >= 85:
		return "A"
	case total >= 75:
		return "B+"
	case total >= 60:
		return "B"
	case total >= 50:
		return "B-"
	default:
		return "C"
	}
}
