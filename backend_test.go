package emoset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// memBackend is an in-memory backend for tests.
type memBackend struct {
	corpus       string
	names        []string
	featureNames []string
	x            *Container
}

func (b *memBackend) Corpus() string         { return b.corpus }
func (b *memBackend) Names() []string        { return b.names }
func (b *memBackend) FeatureNames() []string { return b.featureNames }
func (b *memBackend) Features() *Container   { return b.x }
func (b *memBackend) Close() error           { return nil }

func denseBackend(corpus string, names []string, rows [][]float64) *memBackend {
	return &memBackend{
		corpus:       corpus,
		names:        names,
		featureNames: []string{"f0", "f1"},
		x:            NewDense(rows),
	}
}

func raggedBackend(corpus string, names []string, seqs [][][]float64) *memBackend {
	return &memBackend{
		corpus:       corpus,
		names:        names,
		featureNames: []string{"f0", "f1"},
		x:            NewRagged(seqs),
	}
}

func TestOpenBackendUnknownSuffix(t *testing.T) {
	_, err := OpenBackend("features.foo")
	require.Error(t, err)
	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	require.Equal(t, ".foo", ufe.Ext)
}

func TestARFFBackend(t *testing.T) {
	content := `% openSMILE features
@relation msp-improv

@attribute name string
@attribute pcm_loudness numeric
@attribute mfcc1 numeric

@data
'clip_001',0.5,1.5
'clip_002',0.25,-1.0
'clip_003',0.75,2.5
`
	path := filepath.Join(t.TempDir(), "features.arff")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	b, err := OpenBackend(path)
	require.NoError(t, err)
	defer b.Close()

	require.Equal(t, "msp-improv", b.Corpus())
	require.Equal(t, []string{"clip_001", "clip_002", "clip_003"}, b.Names())
	require.Equal(t, []string{"pcm_loudness", "mfcc1"}, b.FeatureNames())
	require.False(t, b.Features().IsRagged())
	require.Equal(t, [][]float64{{0.5, 1.5}, {0.25, -1.0}, {0.75, 2.5}}, b.Features().Dense())
}

func TestARFFBackendRowWidthMismatch(t *testing.T) {
	content := `@relation bad
@attribute name string
@attribute f0 numeric
@data
'a',1.0,2.0
`
	path := filepath.Join(t.TempDir(), "bad.arff")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := OpenBackend(path)
	require.Error(t, err)
}

func TestOpenDatasetFromARFF(t *testing.T) {
	content := `@relation demo
@attribute name string
@attribute f0 numeric
@data
'a',1.0
'b',2.0
`
	path := filepath.Join(t.TempDir(), "demo.arff")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := OpenDataset(path)
	require.NoError(t, err)
	require.Equal(t, "demo", d.Corpus())
	require.Equal(t, 2, d.NumInstances())
	require.Equal(t, []string{DefaultSpeaker}, d.Speakers())
}
