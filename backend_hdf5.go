package emoset

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/hdf5"
)

// hdf5Backend reads NetCDF4/HDF5 feature files. Expected layout: a
// "features" dataset shaped instances x features or instances x steps x
// features, a "name" string dataset, an optional "feature_name" string
// dataset and a one-element "corpus" string dataset. Everything is read
// eagerly; the file handle is released before the constructor returns.
type hdf5Backend struct {
	corpus       string
	names        []string
	featureNames []string
	x            *Container
}

func newHDF5Backend(path string) (Backend, error) {
	file, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	b := &hdf5Backend{}

	corpus, err := readHDF5Strings(file, "corpus")
	if err != nil {
		return nil, err
	}
	if len(corpus) != 1 {
		return nil, errors.Errorf("%s: expected a single corpus name, got %d", path, len(corpus))
	}
	b.corpus = corpus[0]

	if b.names, err = readHDF5Strings(file, "name"); err != nil {
		return nil, err
	}

	if b.x, err = readHDF5Features(file); err != nil {
		return nil, errors.Wrapf(err, "reading features from %s", path)
	}

	b.featureNames, err = readHDF5Strings(file, "feature_name")
	if err != nil {
		b.featureNames = defaultFeatureNames(b.x)
	}

	log.WithFields(log.Fields{
		"corpus":    b.corpus,
		"instances": len(b.names),
		"features":  len(b.featureNames),
	}).Info("Read HDF5 dataset")
	return b, nil
}

func (b *hdf5Backend) Corpus() string         { return b.corpus }
func (b *hdf5Backend) Names() []string        { return b.names }
func (b *hdf5Backend) FeatureNames() []string { return b.featureNames }
func (b *hdf5Backend) Features() *Container   { return b.x }
func (b *hdf5Backend) Close() error           { return nil }

func readHDF5Strings(file *hdf5.File, name string) ([]string, error) {
	dataset, err := file.OpenDataset(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset %q", name)
	}
	defer dataset.Close()
	space := dataset.Space()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, errors.Wrapf(err, "reading extent of %q", name)
	}
	n := uint(1)
	if len(dims) > 0 {
		n = dims[0]
	}
	out := make([]string, n)
	if err := dataset.Read(&out); err != nil {
		return nil, errors.Wrapf(err, "reading dataset %q", name)
	}
	return out, nil
}

func readHDF5Features(file *hdf5.File) (*Container, error) {
	dataset, err := file.OpenDataset("features")
	if err != nil {
		return nil, err
	}
	defer dataset.Close()
	space := dataset.Space()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}

	byteSize, err := hdf5ByteSize(dataset)
	if err != nil {
		return nil, err
	}

	total := uint(1)
	for _, d := range dims {
		total *= d
	}

	var flat []float64
	if byteSize == 4 {
		flat32 := make([]float32, total)
		if err := dataset.Read(&flat32); err != nil {
			return nil, err
		}
		flat = make([]float64, total)
		for i, v := range flat32 {
			flat[i] = float64(v)
		}
	} else {
		flat = make([]float64, total)
		if err := dataset.Read(&flat); err != nil {
			return nil, err
		}
	}

	switch len(dims) {
	case 2:
		return NewDense(reshapeRows(flat, int(dims[0]), int(dims[1]))), nil
	case 3:
		n, steps, width := int(dims[0]), int(dims[1]), int(dims[2])
		seqs := make([][][]float64, n)
		for i := 0; i < n; i++ {
			seqs[i] = reshapeRows(flat[i*steps*width:(i+1)*steps*width], steps, width)
		}
		return NewRagged(seqs), nil
	default:
		return nil, errors.Errorf("expected 2 or 3 dimensions, got %d", len(dims))
	}
}

func reshapeRows(flat []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = append([]float64(nil), flat[i*cols:(i+1)*cols]...)
	}
	return out
}

func hdf5ByteSize(dataset *hdf5.Dataset) (uint, error) {
	datatype, err := dataset.Datatype()
	if err != nil {
		return 0, errors.Wrap(err, "reading datatype")
	}
	byteSize := datatype.Size()
	if byteSize != 4 && byteSize != 8 {
		return 0, errors.Errorf("unable to load dataset with byte size %d", byteSize)
	}
	return byteSize, nil
}

func defaultFeatureNames(x *Container) []string {
	width := 0
	if x.IsRagged() {
		for _, seq := range x.Ragged() {
			if len(seq) > 0 {
				width = len(seq[0])
				break
			}
		}
	} else if x.Len() > 0 {
		width = len(x.Dense()[0])
	}
	names := make([]string, width)
	for i := range names {
		names[i] = fmt.Sprintf("feature_%d", i)
	}
	return names
}
