// Package stats provides stand-alone numerical utilities consumed by
// corpus ingestion and analysis tooling: inter-rater reliability
// coefficients and cluster quality statistics. It is independent of the
// dataset indexing engine; ratings are plain raters-by-units integer
// matrices where 0 denotes a missing rating and 1..R the categories.
package stats

import (
	"github.com/pkg/errors"
)

// Delta is a disagreement metric between two rating categories.
type Delta func(c, k int) float64

// NominalDelta is the nominal metric: 1 when the categories differ, 0
// otherwise.
func NominalDelta(c, k int) float64 {
	if c != k {
		return 1
	}
	return 0
}

// Alpha computes Krippendorff's alpha over a raters-by-units rating
// matrix. Ratings are 1..R with 0 for missing; units rated by fewer than
// two raters are excluded. A nil delta means NominalDelta.
func Alpha(ratings [][]int, delta Delta) (float64, error) {
	if delta == nil {
		delta = NominalDelta
	}
	if err := checkRatings(ratings); err != nil {
		return 0, err
	}
	numRaters := len(ratings)
	numUnits := len(ratings[0])

	maxCat := 0
	for _, row := range ratings {
		for _, v := range row {
			if v < 0 {
				return 0, errors.Errorf("ratings must be non-negative, got %d", v)
			}
			if v > maxCat {
				maxCat = v
			}
		}
	}
	if maxCat == 0 {
		return 0, errors.Errorf("all ratings are missing")
	}

	// Per-unit category tallies over units with at least two ratings.
	var counts [][]int
	var mu []int
	for u := 0; u < numUnits; u++ {
		unit := make([]int, maxCat+1)
		for r := 0; r < numRaters; r++ {
			unit[ratings[r][u]]++
		}
		rated := 0
		for c := 1; c <= maxCat; c++ {
			rated += unit[c]
		}
		if rated >= 2 {
			counts = append(counts, unit)
			mu = append(mu, rated)
		}
	}
	if len(counts) == 0 {
		return 0, errors.Errorf("no unit has two or more ratings")
	}

	n := 0
	for _, m := range mu {
		n += m
	}

	observed := 0.0
	for u, unit := range counts {
		pairs := 0.0
		for c := 1; c <= maxCat; c++ {
			for k := 1; k <= maxCat; k++ {
				coincidences := unit[c] * unit[k]
				if c == k {
					coincidences = unit[c] * (unit[c] - 1)
				}
				pairs += delta(c, k) * float64(coincidences)
			}
		}
		observed += pairs / float64(mu[u]-1)
	}
	observed /= float64(n)

	totals := make([]int, maxCat+1)
	for _, unit := range counts {
		for c := 1; c <= maxCat; c++ {
			totals[c] += unit[c]
		}
	}
	expected := 0.0
	for c := 1; c <= maxCat; c++ {
		for k := 1; k <= maxCat; k++ {
			expected += delta(c, k) * float64(totals[c]) * float64(totals[k])
		}
	}
	expected /= float64(n) * float64(n-1)

	return 1 - observed/expected, nil
}

// Kappa computes Fleiss' kappa over a complete raters-by-units rating
// matrix; every unit must be rated by every rater.
func Kappa(ratings [][]int) (float64, error) {
	if err := checkRatings(ratings); err != nil {
		return 0, err
	}
	numRaters := len(ratings)
	numUnits := len(ratings[0])
	if numRaters < 2 {
		return 0, errors.Errorf("kappa requires at least two raters")
	}

	catSet := map[int]struct{}{}
	for _, row := range ratings {
		for _, v := range row {
			catSet[v] = struct{}{}
		}
	}
	cats := make([]int, 0, len(catSet))
	for c := range catSet {
		cats = append(cats, c)
	}

	counts := make([][]int, numUnits)
	for u := range counts {
		counts[u] = make([]int, len(cats))
		for ci, c := range cats {
			for r := 0; r < numRaters; r++ {
				if ratings[r][u] == c {
					counts[u][ci]++
				}
			}
		}
	}

	expected := 0.0
	for ci := range cats {
		total := 0
		for u := range counts {
			total += counts[u][ci]
		}
		p := float64(total) / float64(numUnits*numRaters)
		expected += p * p
	}

	agreement := 0.0
	for u := range counts {
		sq := 0
		for ci := range cats {
			sq += counts[u][ci] * counts[u][ci]
		}
		agreement += float64(sq-numRaters) / float64(numRaters*(numRaters-1))
	}
	agreement /= float64(numUnits)

	return (agreement - expected) / (1 - expected), nil
}

func checkRatings(ratings [][]int) error {
	if len(ratings) == 0 || len(ratings[0]) == 0 {
		return errors.Errorf("empty rating matrix")
	}
	units := len(ratings[0])
	for r, row := range ratings {
		if len(row) != units {
			return errors.Errorf("rater %d rated %d units, expected %d", r, len(row), units)
		}
	}
	return nil
}
