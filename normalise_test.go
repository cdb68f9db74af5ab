package emoset

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func column(rows [][]float64, j int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[j]
	}
	return out
}

func TestNormaliseAllDense(t *testing.T) {
	b := denseBackend("demo",
		[]string{"u1", "u2", "u3", "u4"},
		[][]float64{{1, 10}, {2, 20}, {3, 30}, {4, 40}})
	d, err := NewDataset(b)
	require.NoError(t, err)

	require.NoError(t, d.Normalise(&StandardScaler{}, SchemeAll))
	for j := 0; j < 2; j++ {
		col := column(d.Features().Dense(), j)
		require.InDelta(t, 0, stat.Mean(col, nil), 1e-12)
		require.InDelta(t, 1, stat.PopStdDev(col, nil), 1e-12)
	}
}

func TestNormaliseSpeakerScheme(t *testing.T) {
	// Speaker X and Y features are drawn from very different ranges. Per
	// speaker normalization must compute statistics within each subset
	// only.
	b := denseBackend("demo",
		[]string{"u1", "u2", "u3", "u4", "u5", "u6"},
		[][]float64{
			{1, 100}, {2, 200}, {3, 300},
			{1000, -1}, {2000, -2}, {3000, -3},
		})
	d, err := NewDataset(b, WithSpeakers(map[string]string{
		"u1": "X", "u2": "X", "u3": "X",
		"u4": "Y", "u5": "Y", "u6": "Y",
	}))
	require.NoError(t, err)

	require.NoError(t, d.Normalise(&StandardScaler{}, SchemeSpeaker))

	rows := d.Features().Dense()
	for speaker, idx := range map[string][]int{"X": {0, 1, 2}, "Y": {3, 4, 5}} {
		sub := make([][]float64, len(idx))
		for i, j := range idx {
			sub[i] = rows[j]
		}
		for j := 0; j < 2; j++ {
			col := column(sub, j)
			require.InDelta(t, 0, stat.Mean(col, nil), 1e-12, "speaker %s feature %d", speaker, j)
			require.InDelta(t, 1, stat.PopStdDev(col, nil), 1e-12, "speaker %s feature %d", speaker, j)
		}
	}
}

func TestNormaliseSpeakerIndependence(t *testing.T) {
	build := func(yRows [][]float64) [][]float64 {
		rows := append([][]float64{{1, 2}, {3, 4}}, yRows...)
		names := []string{"u1", "u2", "u3", "u4"}
		b := denseBackend("demo", names, rows)
		d, err := NewDataset(b, WithSpeakers(map[string]string{
			"u1": "X", "u2": "X", "u3": "Y", "u4": "Y",
		}))
		require.NoError(t, err)
		require.NoError(t, d.Normalise(&StandardScaler{}, SchemeSpeaker))
		return d.Features().Dense()
	}

	first := build([][]float64{{5, 6}, {7, 8}})
	second := build([][]float64{{-50, 60}, {700, -8}})

	// Changing speaker Y's data must not change speaker X's normalized
	// features.
	require.Equal(t, first[0], second[0])
	require.Equal(t, first[1], second[1])
}

func TestNormaliseRaggedAll(t *testing.T) {
	b := raggedBackend("demo",
		[]string{"u1", "u2"},
		[][][]float64{
			{{1, 2}, {3, 4}, {5, 6}},
			{{7, 8}},
		})
	d, err := NewDataset(b)
	require.NoError(t, err)

	lengths := []int{len(d.Features().Ragged()[0]), len(d.Features().Ragged()[1])}
	require.NoError(t, d.Normalise(&StandardScaler{}, SchemeAll))

	// Lengths are reproduced exactly.
	require.Len(t, d.Features().Ragged()[0], lengths[0])
	require.Len(t, d.Features().Ragged()[1], lengths[1])

	var all [][]float64
	for _, seq := range d.Features().Ragged() {
		all = append(all, seq...)
	}
	for j := 0; j < 2; j++ {
		col := column(all, j)
		require.InDelta(t, 0, stat.Mean(col, nil), 1e-12)
		require.InDelta(t, 1, stat.PopStdDev(col, nil), 1e-12)
	}
}

func TestNormaliseSkipsEmptySpeakers(t *testing.T) {
	b := denseBackend("demo", []string{"u1", "u2"}, [][]float64{{1, 2}, {3, 4}})
	d, err := NewDataset(b, WithSpeakers(map[string]string{"u1": "X", "u2": "X"}),
		WithCorpusInfo(CorpusInfo{SpeakerGroups: [][]string{{"X"}}}))
	require.NoError(t, err)

	// Force a zero-count speaker by filtering, then normalise.
	d.speakers = append(d.speakers, "ghost")
	d.speakerGroups = append(d.speakerGroups, []string{"ghost"})
	d.rebuildSpeakerCounts()
	require.NoError(t, d.Normalise(&StandardScaler{}, SchemeSpeaker))
}

func TestNormaliseUnknownScheme(t *testing.T) {
	b := denseBackend("demo", []string{"u1"}, [][]float64{{1, 2}})
	d, err := NewDataset(b)
	require.NoError(t, err)
	require.Error(t, d.Normalise(&StandardScaler{}, Scheme("bogus")))
}

func TestNormaliseCorpusScheme(t *testing.T) {
	cd, err := NewCombinedDataset(testSources(t), nil)
	require.NoError(t, err)
	require.NoError(t, cd.Normalise(&StandardScaler{}, SchemeCorpus))

	rows := cd.Features().Dense()
	// Corpus A instances are normalized within A only.
	for j := 0; j < 2; j++ {
		require.InDelta(t, 0, stat.Mean(column(rows[:2], j), nil), 1e-12)
	}
}

func TestMinMaxScaler(t *testing.T) {
	b := denseBackend("demo",
		[]string{"u1", "u2", "u3"},
		[][]float64{{1, 5}, {2, 5}, {3, 5}})
	d, err := NewDataset(b)
	require.NoError(t, err)

	require.NoError(t, d.Normalise(&MinMaxScaler{}, SchemeAll))
	rows := d.Features().Dense()
	require.Equal(t, 0.0, rows[0][0])
	require.Equal(t, 0.5, rows[1][0])
	require.Equal(t, 1.0, rows[2][0])
	// Constant columns map to 0.
	for _, row := range rows {
		require.Equal(t, 0.0, row[1])
	}
}

func TestStandardScalerZeroVariance(t *testing.T) {
	s := &StandardScaler{}
	x := [][]float64{{5, 1}, {5, 3}}
	s.Fit(x)
	s.Transform(x)
	require.Equal(t, 0.0, x[0][0])
	require.Equal(t, 0.0, x[1][0])
}
