package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CorrRatio computes the correlation ratio of each feature column with the
// given group assignment. Groups are labelled 0..G-1. Constant features
// yield NaN.
func CorrRatio(x [][]float64, groups []int) ([]float64, error) {
	if len(x) == 0 {
		return nil, errors.Errorf("empty data matrix")
	}
	if len(groups) != len(x) {
		return nil, errors.Errorf("%d group assignments for %d instances", len(groups), len(x))
	}
	numGroups := 0
	for _, g := range groups {
		if g < 0 {
			return nil, errors.Errorf("negative group label %d", g)
		}
		if g+1 > numGroups {
			numGroups = g + 1
		}
	}
	cols := len(x[0])

	eta := make([]float64, cols)
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		mean := stat.Mean(col, nil)

		num := 0.0
		for g := 0; g < numGroups; g++ {
			sum, count := 0.0, 0
			for i, gi := range groups {
				if gi == g {
					sum += col[i]
					count++
				}
			}
			if count == 0 {
				continue
			}
			gMean := sum / float64(count)
			num += float64(count) * (gMean - mean) * (gMean - mean)
		}

		den := 0.0
		for _, v := range col {
			den += (v - mean) * (v - mean)
		}
		if den == 0 {
			eta[j] = math.NaN()
			continue
		}
		eta[j] = math.Sqrt(num / den)
	}
	return eta, nil
}

// IntraMethod selects how intra-cluster distance is measured for the Dunn
// index.
type IntraMethod string

const (
	// IntraMax is the maximum pairwise distance within a cluster.
	IntraMax IntraMethod = "max"
	// IntraMean is the mean pairwise distance within a cluster.
	IntraMean IntraMethod = "mean"
	// IntraCentroid is the mean distance to the cluster centroid.
	IntraCentroid IntraMethod = "cent"
)

// DunnOption configures the Dunn index computation.
type DunnOption func(*dunnOptions)

type dunnOptions struct {
	intra IntraMethod
}

// WithIntraMethod selects the intra-cluster distance method; the default
// is IntraMean.
func WithIntraMethod(m IntraMethod) DunnOption {
	return func(o *dunnOptions) { o.intra = m }
}

// Dunn computes the Dunn index of a cluster assignment with Euclidean
// distances. Clusters are labelled 0..C-1; inter-cluster distance is
// measured between centroids. Larger is better.
func Dunn(x [][]float64, clusters []int, opts ...DunnOption) (float64, error) {
	o := dunnOptions{intra: IntraMean}
	for _, opt := range opts {
		opt(&o)
	}
	if len(x) == 0 {
		return 0, errors.Errorf("empty data matrix")
	}
	if len(clusters) != len(x) {
		return 0, errors.Errorf("%d cluster assignments for %d instances", len(clusters), len(x))
	}
	numClusters := 0
	for _, c := range clusters {
		if c < 0 {
			return 0, errors.Errorf("negative cluster label %d", c)
		}
		if c+1 > numClusters {
			numClusters = c + 1
		}
	}
	if numClusters < 2 {
		return 0, errors.Errorf("dunn index requires at least two clusters")
	}

	members := make([][][]float64, numClusters)
	for i, c := range clusters {
		members[c] = append(members[c], x[i])
	}
	for c, m := range members {
		if len(m) == 0 {
			return 0, errors.Errorf("cluster %d is empty", c)
		}
	}

	maxIntra := 0.0
	for _, m := range members {
		var d float64
		switch o.intra {
		case IntraMax:
			for i := range m {
				for j := i + 1; j < len(m); j++ {
					if dist := floats.Distance(m[i], m[j], 2); dist > d {
						d = dist
					}
				}
			}
		case IntraMean:
			sum, pairs := 0.0, 0
			for i := range m {
				for j := i + 1; j < len(m); j++ {
					sum += floats.Distance(m[i], m[j], 2)
					pairs++
				}
			}
			if pairs > 0 {
				d = sum / float64(pairs)
			}
		case IntraCentroid:
			cent := centroid(m)
			sum := 0.0
			for _, row := range m {
				sum += floats.Distance(row, cent, 2)
			}
			d = sum / float64(len(m))
		default:
			return 0, errors.Errorf("unknown intra-cluster method %q", o.intra)
		}
		if d > maxIntra {
			maxIntra = d
		}
	}
	if maxIntra == 0 {
		return 0, errors.Errorf("all intra-cluster distances are zero")
	}

	minInter := math.Inf(1)
	for i := 0; i < numClusters; i++ {
		for j := i + 1; j < numClusters; j++ {
			d := floats.Distance(centroid(members[i]), centroid(members[j]), 2)
			if d < minInter {
				minInter = d
			}
		}
	}

	return minInter / maxIntra, nil
}

func centroid(rows [][]float64) []float64 {
	out := make([]float64, len(rows[0]))
	for _, row := range rows {
		floats.Add(out, row)
	}
	floats.Scale(1/float64(len(rows)), out)
	return out
}
