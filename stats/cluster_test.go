package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrRatio(t *testing.T) {
	// Feature 0 is fully determined by the group, feature 1 varies
	// identically within each group, feature 2 is constant.
	x := [][]float64{
		{0, 1, 7},
		{0, -1, 7},
		{10, 1, 7},
		{10, -1, 7},
	}
	groups := []int{0, 0, 1, 1}

	eta, err := CorrRatio(x, groups)
	require.NoError(t, err)
	require.InDelta(t, 1, eta[0], 1e-12)
	require.InDelta(t, 0, eta[1], 1e-12)
	require.True(t, math.IsNaN(eta[2]))
}

func TestCorrRatioShapeMismatch(t *testing.T) {
	_, err := CorrRatio([][]float64{{1}}, []int{0, 1})
	require.Error(t, err)
}

func TestDunnCentroid(t *testing.T) {
	// Two tight clusters 10 apart: centroid intra distance is 0.5,
	// centroid inter distance is 10.
	x := [][]float64{
		{0, 0}, {0, 1},
		{10, 0}, {10, 1},
	}
	clusters := []int{0, 0, 1, 1}

	dunn, err := Dunn(x, clusters, WithIntraMethod(IntraCentroid))
	require.NoError(t, err)
	require.InDelta(t, 20, dunn, 1e-12)
}

func TestDunnMean(t *testing.T) {
	x := [][]float64{
		{0, 0}, {0, 1},
		{10, 0}, {10, 1},
	}
	clusters := []int{0, 0, 1, 1}

	dunn, err := Dunn(x, clusters)
	require.NoError(t, err)
	// Mean pairwise intra distance is 1, centroid inter distance is 10.
	require.InDelta(t, 10, dunn, 1e-12)
}

func TestDunnSeparationOrdering(t *testing.T) {
	tight := [][]float64{{0, 0}, {0, 1}, {100, 0}, {100, 1}}
	loose := [][]float64{{0, 0}, {0, 1}, {3, 0}, {3, 1}}
	clusters := []int{0, 0, 1, 1}

	a, err := Dunn(tight, clusters, WithIntraMethod(IntraMax))
	require.NoError(t, err)
	b, err := Dunn(loose, clusters, WithIntraMethod(IntraMax))
	require.NoError(t, err)
	require.Greater(t, a, b)
}

func TestDunnValidation(t *testing.T) {
	_, err := Dunn([][]float64{{1}, {2}}, []int{0, 0})
	require.Error(t, err, "a single cluster has no separation")

	_, err = Dunn([][]float64{{1}}, []int{0, 2})
	require.Error(t, err)
}
