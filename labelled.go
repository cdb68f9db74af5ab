package emoset

import (
	"sort"

	log "github.com/sirupsen/logrus"
)

// LabelledDataset adds a discrete class taxonomy over a Dataset. The class
// list is always sorted lexicographically and the numeric label array
// indexes into it.
type LabelledDataset struct {
	Dataset

	classes     []string
	y           []int
	classCounts []int
	labelSets   map[string][]int
	binary      [][]int
}

// NewLabelledDataset constructs a labelled dataset from an already-open
// backend and a name to class mapping. Every instance must have a class.
func NewLabelledDataset(b Backend, labels map[string]string, opts ...Option) (*LabelledDataset, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	base, err := newDataset(b, &o)
	if err != nil {
		return nil, err
	}
	ld := &LabelledDataset{Dataset: *base}
	uniq := map[string]struct{}{}
	for _, n := range ld.names {
		label, ok := labels[n]
		if !ok {
			return nil, &MissingAnnotationError{Name: n, Annotation: "label"}
		}
		uniq[label] = struct{}{}
	}
	ld.classes = sortedKeys(uniq)
	lookup := indexOf(ld.classes)
	ld.y = make([]int, len(ld.names))
	for i, n := range ld.names {
		ld.y[i] = lookup[labels[n]]
	}
	ld.rebuildClassCounts()
	ld.resetLabelSets()
	return ld, nil
}

// OpenLabelledDataset opens the backend selected by the path suffix and
// reads the class annotation CSV at labelPath.
func OpenLabelledDataset(path, labelPath string, opts ...Option) (*LabelledDataset, error) {
	labels, err := ParseAnnotations(labelPath)
	if err != nil {
		return nil, err
	}
	b, err := OpenBackend(path)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return NewLabelledDataset(b, labels, opts...)
}

// rebuildClassCounts recomputes per-class instance counts from scratch.
func (ld *LabelledDataset) rebuildClassCounts() {
	ld.classCounts = make([]int, len(ld.classes))
	for _, c := range ld.y {
		ld.classCounts[c]++
	}
	for i, c := range ld.classCounts {
		if c == 0 {
			log.WithFields(log.Fields{"corpus": ld.corpus, "class": ld.classes[i]}).
				Warn("Class has no corresponding instances")
		}
	}
}

// resetLabelSets discards any binarized views; they must be rebuilt with
// Binarise after a mutation.
func (ld *LabelledDataset) resetLabelSets() {
	ld.labelSets = map[string][]int{"all": ld.y}
	ld.binary = nil
}

// RemoveInstances filters to instances whose name is in keep, compacting
// the class list if the number of distinct remaining classes shrank, then
// reindexes the base dataset.
func (ld *LabelledDataset) RemoveInstances(keep []string) {
	idx := ld.keepIndex(keep)

	usedSet := make(map[int]struct{})
	var used []int
	for _, j := range idx {
		c := ld.y[j]
		if _, ok := usedSet[c]; !ok {
			usedSet[c] = struct{}{}
			used = append(used, c)
		}
	}
	sort.Ints(used)

	if len(used) < len(ld.classes) {
		remap := make(map[int]int, len(used))
		classes := make([]string, len(used))
		for ni, oi := range used {
			remap[oi] = ni
			classes[ni] = ld.classes[oi]
		}
		y := make([]int, len(idx))
		for i, j := range idx {
			y[i] = remap[ld.y[j]]
		}
		ld.classes = classes
		ld.y = y
	} else {
		y := make([]int, len(idx))
		for i, j := range idx {
			y[i] = ld.y[j]
		}
		ld.y = y
	}

	ld.applyIndex(idx)
	ld.rebuildClassCounts()
	ld.resetLabelSets()
}

// RemoveClasses filters to instances whose class is in keep. All index
// rebuilding is delegated to RemoveInstances.
func (ld *LabelledDataset) RemoveClasses(keep []string) {
	ld.RemoveInstances(ld.namesWithClasses(keep))
}

func (ld *LabelledDataset) namesWithClasses(keep []string) []string {
	set := make(map[string]struct{}, len(keep))
	for _, c := range keep {
		set[c] = struct{}{}
	}
	var names []string
	for i, n := range ld.names {
		if _, ok := set[ld.classes[ld.y[i]]]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Binarise builds an instances-by-classes one-hot matrix and a per-class
// binary label view. If both posVal and posAro are supplied it also
// derives "valence" and "arousal" views, where an instance is 1 when its
// class is in the respective positive list. Classes absent from both lists
// map to 0.
func (ld *LabelledDataset) Binarise(posVal, posAro []string) {
	ld.binary = make([][]int, len(ld.y))
	for i, c := range ld.y {
		row := make([]int, len(ld.classes))
		row[c] = 1
		ld.binary[i] = row
	}
	for ci, class := range ld.classes {
		col := make([]int, len(ld.y))
		for i := range ld.binary {
			col[i] = ld.binary[i][ci]
		}
		ld.labelSets[class] = col
	}

	if len(posVal) > 0 && len(posAro) > 0 {
		log.WithFields(log.Fields{"corpus": ld.corpus}).Info("Binarising arousal and valence")
		ld.labelSets["arousal"] = ld.membershipView(posAro)
		ld.labelSets["valence"] = ld.membershipView(posVal)
	}
}

func (ld *LabelledDataset) membershipView(positive []string) []int {
	classMap := make([]int, len(ld.classes))
	set := make(map[string]struct{}, len(positive))
	for _, c := range positive {
		set[c] = struct{}{}
	}
	for i, c := range ld.classes {
		if _, ok := set[c]; ok {
			classMap[i] = 1
		}
	}
	view := make([]int, len(ld.y))
	for i, c := range ld.y {
		view[i] = classMap[c]
	}
	return view
}

// MapClasses renames or merges classes. Keys not matching a current class
// are ignored; classes missing from the mapping pass through unchanged.
// Collapsing several classes into one is an intentional lossy merge. The
// new class list is re-sorted.
func (ld *LabelledDataset) MapClasses(mapping map[string]string) {
	mapped := func(c string) string {
		if to, ok := mapping[c]; ok {
			return to
		}
		return c
	}
	uniq := map[string]struct{}{}
	for _, c := range ld.classes {
		uniq[mapped(c)] = struct{}{}
	}
	classes := sortedKeys(uniq)
	lookup := indexOf(classes)
	remap := make([]int, len(ld.classes))
	for i, c := range ld.classes {
		remap[i] = lookup[mapped(c)]
	}
	for i, c := range ld.y {
		ld.y[i] = remap[c]
	}
	ld.classes = classes
	ld.rebuildClassCounts()
	ld.resetLabelSets()
}

// Classes returns the sorted class list.
func (ld *LabelledDataset) Classes() []string { return ld.classes }

// NumClasses returns the number of classes.
func (ld *LabelledDataset) NumClasses() int { return len(ld.classes) }

// ClassCounts returns the number of instances per class.
func (ld *LabelledDataset) ClassCounts() []int { return ld.classCounts }

// Labels returns the numeric label array, one class offset per instance.
func (ld *LabelledDataset) Labels() []int { return ld.y }

// LabelSets returns the available label views, keyed "all", one per class
// after Binarise, and "arousal"/"valence" when configured.
func (ld *LabelledDataset) LabelSets() map[string][]int { return ld.labelSets }

// Binary returns the one-hot label matrix built by Binarise, or nil.
func (ld *LabelledDataset) Binary() [][]int { return ld.binary }

// ClassToInt returns the offset of the given class label, or -1 if the
// label is not in the taxonomy.
func (ld *LabelledDataset) ClassToInt(class string) int {
	for i, c := range ld.classes {
		if c == class {
			return i
		}
	}
	return -1
}
