package emoset

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CorpusInfo carries per-corpus speaker metadata: the gender partition and
// the speaker group partition used for group-wise cross-validation. It is
// passed explicitly into dataset construction; there is no global corpus
// table.
type CorpusInfo struct {
	MaleSpeakers   []string   `yaml:"male_speakers"`
	FemaleSpeakers []string   `yaml:"female_speakers"`
	SpeakerGroups  [][]string `yaml:"speaker_groups"`
}

// CorpusRegistry maps lower-cased corpus names to their metadata.
type CorpusRegistry map[string]CorpusInfo

// LoadCorpusRegistry reads a YAML corpus registry of the form:
//
//	iemocap:
//	  male_speakers: [01M, 02M]
//	  female_speakers: [01F, 02F]
//	  speaker_groups:
//	    - [01M, 01F]
//	    - [02M, 02F]
func LoadCorpusRegistry(path string) (CorpusRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading corpus registry %s", path)
	}
	var registry CorpusRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, errors.Wrapf(err, "parsing corpus registry %s", path)
	}
	return registry, nil
}
