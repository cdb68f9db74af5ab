package emoset

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Scheme selects which subsets of a dataset a normalizing transform is fit
// on. SchemeCorpus is only meaningful on a CombinedDataset.
type Scheme string

const (
	// SchemeAll fits a single transform across the whole dataset.
	SchemeAll Scheme = "all"
	// SchemeSpeaker fits an independent transform per speaker, so no
	// speaker's statistics leak into another's features.
	SchemeSpeaker Scheme = "speaker"
	// SchemeCorpus fits an independent transform per source corpus.
	SchemeCorpus Scheme = "corpus"
)

// Transform is a column-wise feature transform fit on one flat matrix and
// then applied in place. Fit resets any previously fitted state.
type Transform interface {
	Fit(x [][]float64)
	Transform(x [][]float64)
}

// StandardScaler scales each feature column to zero mean and unit
// variance. Zero-variance columns are centred only.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(x [][]float64) {
	s.mean, s.scale = columnStats(x)
	for j, sd := range s.scale {
		if sd == 0 {
			s.scale[j] = 1
		}
	}
}

// Transform centres and scales x in place.
func (s *StandardScaler) Transform(x [][]float64) {
	for _, row := range x {
		for j := range row {
			row[j] = (row[j] - s.mean[j]) / s.scale[j]
		}
	}
}

// MinMaxScaler scales each feature column to [0, 1]. Constant columns map
// to 0.
type MinMaxScaler struct {
	min   []float64
	scale []float64
}

// Fit computes per-column minimum and range.
func (s *MinMaxScaler) Fit(x [][]float64) {
	if len(x) == 0 {
		s.min, s.scale = nil, nil
		return
	}
	cols := len(x[0])
	s.min = make([]float64, cols)
	s.scale = make([]float64, cols)
	for j := 0; j < cols; j++ {
		lo, hi := x[0][j], x[0][j]
		for _, row := range x {
			if row[j] < lo {
				lo = row[j]
			}
			if row[j] > hi {
				hi = row[j]
			}
		}
		s.min[j] = lo
		if hi > lo {
			s.scale[j] = hi - lo
		} else {
			s.scale[j] = 1
		}
	}
}

// Transform rescales x in place.
func (s *MinMaxScaler) Transform(x [][]float64) {
	for _, row := range x {
		for j := range row {
			row[j] = (row[j] - s.min[j]) / s.scale[j]
		}
	}
}

func columnStats(x [][]float64) (mean, std []float64) {
	if len(x) == 0 {
		return nil, nil
	}
	cols := len(x[0])
	mean = make([]float64, cols)
	std = make([]float64, cols)
	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		mean[j] = stat.Mean(col, nil)
		// Population statistics, so a single-row fit still works.
		std[j] = stat.PopStdDev(col, nil)
	}
	return mean, std
}

// Normalise fits and applies the transform under the given scheme. Under
// SchemeSpeaker each speaker subset is flattened along the time axis, the
// transform is fit and applied on the flat matrix, and the result is
// re-split to each instance's original length. Empty subsets are skipped.
func (d *Dataset) Normalise(t Transform, scheme Scheme) error {
	log.WithFields(log.Fields{"corpus": d.corpus, "scheme": scheme}).
		Info("Normalising dataset")
	switch scheme {
	case SchemeAll:
		idx := allIndices(len(d.names))
		return d.normaliseSubset(t, idx)
	case SchemeSpeaker:
		return d.normaliseGroups(t, d.speakerIndices, len(d.speakers))
	default:
		return errors.Errorf("unknown normalisation scheme %q", scheme)
	}
}

// normaliseGroups fits and applies one transform per group of the given
// membership array.
func (d *Dataset) normaliseGroups(t Transform, membership []int, numGroups int) error {
	for g := 0; g < numGroups; g++ {
		var idx []int
		for i, m := range membership {
			if m == g {
				idx = append(idx, i)
			}
		}
		if len(idx) == 0 {
			continue
		}
		if err := d.normaliseSubset(t, idx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dataset) normaliseSubset(t Transform, idx []int) error {
	flat, lengths := d.x.Flatten(idx)
	if len(flat) == 0 {
		return nil
	}
	t.Fit(flat)
	t.Transform(flat)
	return d.x.Restore(flat, lengths, idx)
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
