package emoset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.csv")
	content := "name,label\nclip_001,happy\nclip_002,sad\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	annotations, err := ParseAnnotations(path)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"clip_001": "happy", "clip_002": "sad"}, annotations)
}

func TestParseAnnotationsDuplicateName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.csv")
	content := "name,label\nclip_001,happy\nclip_001,sad\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ParseAnnotations(path)
	require.Error(t, err)
}

func TestParseAnnotationsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,label\na,b\n"), 0o644))

	_, err := ParseAnnotations(path)
	require.Error(t, err)
}

func TestParseRatings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valence.csv")
	content := "name,valence\nclip_001,2.5\nclip_002,-1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ratings, err := ParseRatings(path)
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"clip_001": 2.5, "clip_002": -1}, ratings)
}

func TestParseRatingsNonNumeric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valence.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,valence\nclip_001,high\n"), 0o644))

	_, err := ParseRatings(path)
	require.Error(t, err)
}

func TestWriteAnnotationsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speaker.csv")
	annotations := map[string]string{"b": "Y", "a": "X", "c": "Z"}
	require.NoError(t, WriteAnnotations(annotations, "speaker", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "name,speaker\na,X\nb,Y\nc,Z\n", string(data))

	parsed, err := ParseAnnotations(path)
	require.NoError(t, err)
	require.Equal(t, annotations, parsed)
}

func TestLoadCorpusRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpora.yaml")
	content := `iemocap:
  male_speakers: [01M, 02M]
  female_speakers: [01F]
  speaker_groups:
    - [01M, 01F]
    - [02M]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry, err := LoadCorpusRegistry(path)
	require.NoError(t, err)
	info, ok := registry["iemocap"]
	require.True(t, ok)
	require.Equal(t, []string{"01M", "02M"}, info.MaleSpeakers)
	require.Equal(t, []string{"01F"}, info.FemaleSpeakers)
	require.Equal(t, [][]string{{"01M", "01F"}, {"02M"}}, info.SpeakerGroups)
}
