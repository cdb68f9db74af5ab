package emoset

import (
	"github.com/pkg/errors"
)

// Container holds per-instance feature data. A container is either dense,
// one fixed-length feature vector per instance, or ragged, one
// variable-length sequence of feature frames per instance. A 3-D array is
// represented as a ragged container whose sequence lengths are all equal.
type Container struct {
	dense  [][]float64
	ragged [][][]float64
}

// NewDense returns a dense container over the given rows. The rows are used
// directly, not copied.
func NewDense(rows [][]float64) *Container {
	return &Container{dense: rows}
}

// NewRagged returns a ragged container over the given per-instance
// sequences. The sequences are used directly, not copied.
func NewRagged(seqs [][][]float64) *Container {
	return &Container{ragged: seqs}
}

// Len returns the number of instances in the container.
func (c *Container) Len() int {
	if c.ragged != nil {
		return len(c.ragged)
	}
	return len(c.dense)
}

// IsRagged reports whether the container holds variable-length sequences.
func (c *Container) IsRagged() bool {
	return c.ragged != nil
}

// Dense returns the instance-by-feature matrix of a dense container, or nil
// for a ragged one.
func (c *Container) Dense() [][]float64 {
	return c.dense
}

// Ragged returns the per-instance sequences of a ragged container, or nil
// for a dense one.
func (c *Container) Ragged() [][][]float64 {
	return c.ragged
}

// Instance returns the feature data of instance i as a time-by-feature
// matrix. Dense instances have a single time step.
func (c *Container) Instance(i int) [][]float64 {
	if c.ragged != nil {
		return c.ragged[i]
	}
	return [][]float64{c.dense[i]}
}

// Copy returns a deep copy of the container.
func (c *Container) Copy() *Container {
	if c.ragged != nil {
		seqs := make([][][]float64, len(c.ragged))
		for i, seq := range c.ragged {
			seqs[i] = copyMatrix(seq)
		}
		return &Container{ragged: seqs}
	}
	return &Container{dense: copyMatrix(c.dense)}
}

// Select returns a new container holding deep copies of the instances at
// the given offsets, in the given order.
func (c *Container) Select(idx []int) *Container {
	if c.ragged != nil {
		seqs := make([][][]float64, len(idx))
		for i, j := range idx {
			seqs[i] = copyMatrix(c.ragged[j])
		}
		return &Container{ragged: seqs}
	}
	rows := make([][]float64, len(idx))
	for i, j := range idx {
		rows[i] = append([]float64(nil), c.dense[j]...)
	}
	return &Container{dense: rows}
}

// Flatten concatenates the selected instances along the time axis into one
// flat matrix, recording each instance's length so Restore can re-split it.
// Dense instances contribute a single row each. The returned rows are
// copies; mutating them does not affect the container until Restore is
// called.
func (c *Container) Flatten(idx []int) (flat [][]float64, lengths []int) {
	lengths = make([]int, len(idx))
	if c.ragged != nil {
		total := 0
		for i, j := range idx {
			lengths[i] = len(c.ragged[j])
			total += lengths[i]
		}
		flat = make([][]float64, 0, total)
		for _, j := range idx {
			for _, row := range c.ragged[j] {
				flat = append(flat, append([]float64(nil), row...))
			}
		}
		return flat, lengths
	}
	flat = make([][]float64, len(idx))
	for i, j := range idx {
		flat[i] = append([]float64(nil), c.dense[j]...)
		lengths[i] = 1
	}
	return flat, lengths
}

// Restore writes a flat matrix produced by Flatten back into the selected
// instances, splitting it by the recorded lengths. Each instance gets back
// exactly its original length.
func (c *Container) Restore(flat [][]float64, lengths []int, idx []int) error {
	if len(lengths) != len(idx) {
		return consistencyErrorf("restore got %d lengths for %d instances", len(lengths), len(idx))
	}
	pos := 0
	for i, j := range idx {
		n := lengths[i]
		if pos+n > len(flat) {
			return consistencyErrorf("restore ran out of rows at instance %d", j)
		}
		if c.ragged != nil {
			c.ragged[j] = copyMatrix(flat[pos : pos+n])
		} else {
			if n != 1 {
				return consistencyErrorf("dense restore expects length 1, got %d", n)
			}
			c.dense[j] = append([]float64(nil), flat[pos]...)
		}
		pos += n
	}
	if pos != len(flat) {
		return consistencyErrorf("restore consumed %d of %d rows", pos, len(flat))
	}
	return nil
}

// Pad zero-pads each sequence along the time axis up to the next multiple
// of pad. Sequences already at a multiple are left alone.
func (c *Container) Pad(pad int) error {
	if c.ragged == nil {
		return errors.Errorf("pad requires sequence features")
	}
	if pad <= 0 {
		return errors.Errorf("pad must be positive, got %d", pad)
	}
	for i, seq := range c.ragged {
		rem := len(seq) % pad
		if rem == 0 {
			continue
		}
		width := 0
		if len(seq) > 0 {
			width = len(seq[0])
		}
		for n := pad - rem; n > 0; n-- {
			c.ragged[i] = append(c.ragged[i], make([]float64, width))
		}
	}
	return nil
}

// Clip truncates each sequence to at most length time steps.
func (c *Container) Clip(length int) error {
	if c.ragged == nil {
		return errors.Errorf("clip requires sequence features")
	}
	if length <= 0 {
		return errors.Errorf("clip length must be positive, got %d", length)
	}
	for i, seq := range c.ragged {
		if len(seq) > length {
			c.ragged[i] = seq[:length]
		}
	}
	return nil
}

// Frame re-windows each sequence into overlapping frames of size frameSize
// advancing by frameShift. Each output frame is the window flattened
// row-major, so a raw 1-D signal yields frames of length frameSize. Without
// a numFrames override an instance of length L yields
// (L - frameSize)/frameShift + 1 frames; shorter instances yield none. With
// numFrames > 0 every instance gets exactly that many frames, zero-padded
// past the end of the data.
func (c *Container) Frame(frameSize, frameShift, numFrames int) error {
	if c.ragged == nil {
		return errors.Errorf("frame requires sequence features")
	}
	if frameSize <= 0 || frameShift <= 0 {
		return errors.Errorf("frame size and shift must be positive")
	}
	for i, seq := range c.ragged {
		width := 0
		if len(seq) > 0 {
			width = len(seq[0])
		}
		n := 0
		if len(seq) >= frameSize {
			n = (len(seq)-frameSize)/frameShift + 1
		}
		if numFrames > 0 && n > numFrames {
			n = numFrames
		}
		total := n
		if numFrames > 0 {
			total = numFrames
		}
		frames := make([][]float64, total)
		for f := 0; f < n; f++ {
			frame := make([]float64, 0, frameSize*width)
			for t := f * frameShift; t < f*frameShift+frameSize; t++ {
				frame = append(frame, seq[t]...)
			}
			frames[f] = frame
		}
		for f := n; f < total; f++ {
			frames[f] = make([]float64, frameSize*width)
		}
		c.ragged[i] = frames
	}
	return nil
}

// TransposeTime swaps the time and feature axes of every sequence.
func (c *Container) TransposeTime() error {
	if c.ragged == nil {
		return errors.Errorf("transpose requires sequence features")
	}
	for i, seq := range c.ragged {
		if len(seq) == 0 {
			continue
		}
		out := make([][]float64, len(seq[0]))
		for j := range out {
			out[j] = make([]float64, len(seq))
			for t := range seq {
				out[j][t] = seq[t][j]
			}
		}
		c.ragged[i] = out
	}
	return nil
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
