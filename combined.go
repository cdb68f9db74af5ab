package emoset

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CombinedDataset merges several independently labelled datasets into one
// coherent index space. Speakers and instance names are namespaced with
// their corpus name, class taxonomies are reconciled into a sorted union,
// and each instance keeps its source corpus identity. Construction copies
// all feature and index data, so the sources can be mutated or discarded
// afterwards without affecting the combination.
type CombinedDataset struct {
	LabelledDataset

	corpora       []string
	corpusIndices []int
	corpusCounts  []int
}

// NewCombinedDataset merges the sources in order. If classes is non-nil it
// is an allow-list: instances whose class is not in it are dropped and the
// final taxonomy is the sorted allow-list; otherwise the taxonomy is the
// sorted union of the sources' classes.
func NewCombinedDataset(sources []*LabelledDataset, classes []string) (*CombinedDataset, error) {
	if len(sources) == 0 {
		return nil, errors.Errorf("combining requires at least one dataset")
	}
	ragged := sources[0].x.IsRagged()
	for _, src := range sources[1:] {
		if src.x.IsRagged() != ragged {
			return nil, consistencyErrorf("cannot combine dense and ragged feature containers")
		}
		if src.NumFeatures() != sources[0].NumFeatures() {
			return nil, consistencyErrorf("corpus %q has %d features, %q has %d",
				src.corpus, src.NumFeatures(), sources[0].corpus, sources[0].NumFeatures())
		}
	}

	cd := &CombinedDataset{}
	cd.corpus = "combined"
	cd.featureNames = append([]string(nil), sources[0].featureNames...)

	var strLabels []string
	union := map[string]struct{}{}
	for ci, src := range sources {
		cd.corpora = append(cd.corpora, src.corpus)
		for range src.names {
			cd.corpusIndices = append(cd.corpusIndices, ci)
		}
		for _, n := range src.names {
			cd.names = append(cd.names, src.corpus+"_"+n)
		}

		offset := len(cd.speakers)
		for _, s := range src.speakers {
			cd.speakers = append(cd.speakers, src.corpus+"_"+s)
		}
		for _, si := range src.speakerIndices {
			cd.speakerIndices = append(cd.speakerIndices, si+offset)
		}

		for _, c := range src.classes {
			union[c] = struct{}{}
		}
		for _, yi := range src.y {
			strLabels = append(strLabels, src.classes[yi])
		}
	}
	cd.x = concatContainers(sources)

	if classes != nil {
		allow := make(map[string]struct{}, len(classes))
		for _, c := range classes {
			allow[c] = struct{}{}
		}
		var idx []int
		for i, label := range strLabels {
			if _, ok := allow[label]; ok {
				idx = append(idx, i)
			}
		}
		names := make([]string, len(idx))
		speakerIndices := make([]int, len(idx))
		corpusIndices := make([]int, len(idx))
		kept := make([]string, len(idx))
		for i, j := range idx {
			names[i] = cd.names[j]
			speakerIndices[i] = cd.speakerIndices[j]
			corpusIndices[i] = cd.corpusIndices[j]
			kept[i] = strLabels[j]
		}
		cd.names = names
		cd.speakerIndices = speakerIndices
		cd.corpusIndices = corpusIndices
		cd.x = cd.x.Select(idx)
		strLabels = kept
		cd.classes = sortedKeys(allow)
	} else {
		cd.classes = sortedKeys(union)
	}

	lookup := indexOf(cd.classes)
	cd.y = make([]int, len(strLabels))
	for i, label := range strLabels {
		cd.y[i] = lookup[label]
	}

	// Across corpora every speaker is deliberately its own group.
	for _, s := range cd.speakers {
		cd.speakerGroups = append(cd.speakerGroups, []string{s})
	}
	cd.speakerGroupIndices = append([]int(nil), cd.speakerIndices...)

	cd.rebuildSpeakerCounts()
	cd.rebuildClassCounts()
	cd.rebuildCorpusCounts()
	cd.resetLabelSets()

	log.WithFields(log.Fields{
		"corpora":   len(cd.corpora),
		"instances": len(cd.names),
		"classes":   len(cd.classes),
	}).Info("Combined datasets")
	return cd, nil
}

func concatContainers(sources []*LabelledDataset) *Container {
	if sources[0].x.IsRagged() {
		var seqs [][][]float64
		for _, src := range sources {
			seqs = append(seqs, src.x.Copy().Ragged()...)
		}
		return NewRagged(seqs)
	}
	var rows [][]float64
	for _, src := range sources {
		rows = append(rows, src.x.Copy().Dense()...)
	}
	return NewDense(rows)
}

// rebuildCorpusCounts recomputes per-corpus instance counts from scratch.
// A corpus emptied by filtering keeps its slot with a zero count.
func (cd *CombinedDataset) rebuildCorpusCounts() {
	cd.corpusCounts = make([]int, len(cd.corpora))
	for _, ci := range cd.corpusIndices {
		cd.corpusCounts[ci]++
	}
}

// RemoveInstances filters as the labelled dataset does and keeps the
// corpus index array aligned.
func (cd *CombinedDataset) RemoveInstances(keep []string) {
	idx := cd.keepIndex(keep)
	corpusIndices := make([]int, len(idx))
	for i, j := range idx {
		corpusIndices[i] = cd.corpusIndices[j]
	}
	cd.corpusIndices = corpusIndices
	cd.LabelledDataset.RemoveInstances(keep)
	cd.rebuildCorpusCounts()
}

// RemoveClasses filters to instances whose class is in keep, through the
// combined RemoveInstances so the corpus index stays aligned.
func (cd *CombinedDataset) RemoveClasses(keep []string) {
	cd.RemoveInstances(cd.namesWithClasses(keep))
}

// GetCorpusSplit partitions all instance offsets between the named corpus
// and everything else, for leave-one-corpus-out evaluation.
func (cd *CombinedDataset) GetCorpusSplit(corpus string) (inCorpus, other []int, err error) {
	target := cd.CorpusToIdx(corpus)
	if target < 0 {
		return nil, nil, errors.Errorf("unknown corpus %q", corpus)
	}
	for i, ci := range cd.corpusIndices {
		if ci == target {
			inCorpus = append(inCorpus, i)
		} else {
			other = append(other, i)
		}
	}
	return inCorpus, other, nil
}

// Normalise adds the per-corpus scheme; any other scheme is handled by the
// base dataset.
func (cd *CombinedDataset) Normalise(t Transform, scheme Scheme) error {
	if scheme != SchemeCorpus {
		return cd.Dataset.Normalise(t, scheme)
	}
	log.WithFields(log.Fields{"corpus": cd.corpus, "scheme": scheme}).
		Info("Normalising dataset")
	return cd.normaliseGroups(t, cd.corpusIndices, len(cd.corpora))
}

// Corpora returns the source corpus names in merge order.
func (cd *CombinedDataset) Corpora() []string { return cd.corpora }

// CorpusIndices returns, per instance, the offset of its source corpus in
// Corpora.
func (cd *CombinedDataset) CorpusIndices() []int { return cd.corpusIndices }

// CorpusCounts returns the number of instances per source corpus.
func (cd *CombinedDataset) CorpusCounts() []int { return cd.corpusCounts }

// CorpusToIdx returns the offset of the named corpus, or -1.
func (cd *CombinedDataset) CorpusToIdx(corpus string) int {
	for i, c := range cd.corpora {
		if c == corpus {
			return i
		}
	}
	return -1
}
