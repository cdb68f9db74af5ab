package emoset

import (
	"path/filepath"
)

// Backend is the contract a file-format adapter satisfies. A backend
// exposes the corpus name, the ordered unique instance names, the feature
// dimension names and the feature container read from a single file. The
// file handle is held only until Close.
type Backend interface {
	Corpus() string
	Names() []string
	FeatureNames() []string
	Features() *Container
	Close() error
}

// BackendFactory opens a backend for the given path.
type BackendFactory func(path string) (Backend, error)

var backendFactories = map[string]BackendFactory{}

// RegisterBackend registers a backend factory for a file suffix such as
// ".nc". Registering the same suffix twice replaces the earlier factory.
func RegisterBackend(ext string, factory BackendFactory) {
	backendFactories[ext] = factory
}

// OpenBackend opens the backend selected by the path's suffix. An
// unregistered suffix fails with UnsupportedFormatError.
func OpenBackend(path string) (Backend, error) {
	ext := filepath.Ext(path)
	factory, ok := backendFactories[ext]
	if !ok {
		return nil, &UnsupportedFormatError{Ext: ext}
	}
	return factory(path)
}

func init() {
	RegisterBackend(".nc", newHDF5Backend)
	RegisterBackend(".h5", newHDF5Backend)
	RegisterBackend(".arff", newARFFBackend)
	RegisterBackend(".txt", newRawAudioBackend)
}
