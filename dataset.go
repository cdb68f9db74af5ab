package emoset

import (
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Option configures dataset construction.
type Option func(*options)

type options struct {
	speakers    map[string]string
	speakerPath string
	info        *CorpusInfo
	registry    CorpusRegistry
}

// WithSpeakers supplies a name to speaker annotation mapping. Every
// instance name must be present in the mapping.
func WithSpeakers(speakers map[string]string) Option {
	return func(o *options) { o.speakers = speakers }
}

// WithSpeakerFile supplies a two-column annotation CSV to read the speaker
// mapping from.
func WithSpeakerFile(path string) Option {
	return func(o *options) { o.speakerPath = path }
}

// WithCorpusInfo supplies explicit corpus metadata (gender partition and
// speaker groups) for the dataset under construction.
func WithCorpusInfo(info CorpusInfo) Option {
	return func(o *options) { o.info = &info }
}

// WithRegistry supplies a corpus metadata registry consulted by
// lower-cased corpus name. WithCorpusInfo takes precedence.
func WithRegistry(registry CorpusRegistry) Option {
	return func(o *options) { o.registry = registry }
}

// Dataset holds the feature data of one corpus together with the parallel
// speaker index arrays derived for it. All mutation operations act in
// place and keep the index arrays mutually consistent.
type Dataset struct {
	corpus       string
	names        []string
	featureNames []string
	x            *Container

	speakers            []string
	speakerIndices      []int
	speakerCounts       []int
	speakerGroups       [][]string
	speakerGroupIndices []int

	maleSpeakers   []string
	femaleSpeakers []string
	maleIndices    []int
	femaleIndices  []int
}

// DefaultSpeaker is assigned to every instance when no speaker annotation
// is supplied.
const DefaultSpeaker = "unknown"

// NewDataset constructs a dataset from an already-open backend. The
// backend's feature container is copied, so the backend can be closed and
// discarded afterwards.
func NewDataset(b Backend, opts ...Option) (*Dataset, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return newDataset(b, &o)
}

// OpenDataset opens the backend selected by the path suffix and constructs
// a dataset from it.
func OpenDataset(path string, opts ...Option) (*Dataset, error) {
	b, err := OpenBackend(path)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return NewDataset(b, opts...)
}

func newDataset(b Backend, o *options) (*Dataset, error) {
	d := &Dataset{
		corpus:       b.Corpus(),
		names:        append([]string(nil), b.Names()...),
		featureNames: append([]string(nil), b.FeatureNames()...),
		x:            b.Features().Copy(),
	}
	if d.x.Len() != len(d.names) {
		return nil, consistencyErrorf("%d instances in feature container but %d names",
			d.x.Len(), len(d.names))
	}
	seen := make(map[string]struct{}, len(d.names))
	for _, n := range d.names {
		if _, dup := seen[n]; dup {
			return nil, consistencyErrorf("duplicate instance name %q", n)
		}
		seen[n] = struct{}{}
	}

	speakers := o.speakers
	if speakers == nil && o.speakerPath != "" {
		var err error
		speakers, err = ParseAnnotations(o.speakerPath)
		if err != nil {
			return nil, err
		}
	}
	if speakers != nil {
		uniq := map[string]struct{}{}
		for _, n := range d.names {
			spk, ok := speakers[n]
			if !ok {
				return nil, &MissingAnnotationError{Name: n, Annotation: "speaker"}
			}
			uniq[spk] = struct{}{}
		}
		d.speakers = sortedKeys(uniq)
		lookup := indexOf(d.speakers)
		d.speakerIndices = make([]int, len(d.names))
		for i, n := range d.names {
			d.speakerIndices[i] = lookup[speakers[n]]
		}
	} else {
		d.speakers = []string{DefaultSpeaker}
		d.speakerIndices = make([]int, len(d.names))
	}

	info := o.info
	if info == nil && o.registry != nil {
		if ci, ok := o.registry[strings.ToLower(d.corpus)]; ok {
			info = &ci
		}
	}
	if info != nil {
		d.maleSpeakers = append([]string(nil), info.MaleSpeakers...)
		d.femaleSpeakers = append([]string(nil), info.FemaleSpeakers...)
		for _, g := range info.SpeakerGroups {
			d.speakerGroups = append(d.speakerGroups, append([]string(nil), g...))
		}
	}
	if len(d.speakerGroups) == 0 {
		for _, s := range d.speakers {
			d.speakerGroups = append(d.speakerGroups, []string{s})
		}
	}

	d.rebuildSpeakerCounts()
	if err := d.rebuildGroupIndex(); err != nil {
		return nil, err
	}
	d.rebuildGenderIndices()
	return d, nil
}

// rebuildSpeakerCounts recomputes per-speaker instance counts from scratch.
// Speakers with no instances are a warning, not an error.
func (d *Dataset) rebuildSpeakerCounts() {
	d.speakerCounts = make([]int, len(d.speakers))
	for _, s := range d.speakerIndices {
		d.speakerCounts[s]++
	}
	for i, c := range d.speakerCounts {
		if c == 0 {
			log.WithFields(log.Fields{"corpus": d.corpus, "speaker": d.speakers[i]}).
				Warn("Speaker has no corresponding instances")
		}
	}
}

// rebuildGroupIndex rebuilds the per-instance group index from the group
// list. Groups are scanned in order; when a speaker appears in more than
// one group the later group wins. Every speaker must appear in some group.
func (d *Dataset) rebuildGroupIndex() error {
	lookup := indexOf(d.speakers)
	groupOf := make([]int, len(d.speakers))
	for i := range groupOf {
		groupOf[i] = -1
	}
	for gi, group := range d.speakerGroups {
		for _, s := range group {
			if si, ok := lookup[s]; ok {
				groupOf[si] = gi
			}
		}
	}
	for si, gi := range groupOf {
		if gi < 0 {
			return consistencyErrorf("speaker %q is in no speaker group", d.speakers[si])
		}
	}
	d.speakerGroupIndices = make([]int, len(d.speakerIndices))
	for i, si := range d.speakerIndices {
		d.speakerGroupIndices[i] = groupOf[si]
	}
	return nil
}

// rebuildGenderIndices recomputes the male/female instance subsets. Both
// lists must be configured for the partition to exist.
func (d *Dataset) rebuildGenderIndices() {
	d.maleIndices = nil
	d.femaleIndices = nil
	if len(d.maleSpeakers) == 0 || len(d.femaleSpeakers) == 0 {
		return
	}
	male := make(map[string]struct{}, len(d.maleSpeakers))
	for _, s := range d.maleSpeakers {
		male[s] = struct{}{}
	}
	female := make(map[string]struct{}, len(d.femaleSpeakers))
	for _, s := range d.femaleSpeakers {
		female[s] = struct{}{}
	}
	for i, si := range d.speakerIndices {
		if _, ok := male[d.speakers[si]]; ok {
			d.maleIndices = append(d.maleIndices, i)
		}
		if _, ok := female[d.speakers[si]]; ok {
			d.femaleIndices = append(d.femaleIndices, i)
		}
	}
}

// RemoveInstances filters the dataset to instances whose name is in keep,
// preserving relative order. Speaker and group index spaces are compacted
// if their cardinality shrank.
func (d *Dataset) RemoveInstances(keep []string) {
	d.applyIndex(d.keepIndex(keep))
}

func (d *Dataset) keepIndex(keep []string) []int {
	set := make(map[string]struct{}, len(keep))
	for _, n := range keep {
		set[n] = struct{}{}
	}
	var idx []int
	for i, n := range d.names {
		if _, ok := set[n]; ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// applyIndex reindexes the dataset to the instances at the given offsets.
// All counts and derived indices are recomputed from scratch.
func (d *Dataset) applyIndex(idx []int) {
	names := make([]string, len(idx))
	for i, j := range idx {
		names[i] = d.names[j]
	}
	d.x = d.x.Select(idx)

	usedSet := make(map[int]struct{})
	var used []int
	for _, j := range idx {
		si := d.speakerIndices[j]
		if _, ok := usedSet[si]; !ok {
			usedSet[si] = struct{}{}
			used = append(used, si)
		}
	}
	sort.Ints(used)

	if len(used) < len(d.speakers) {
		remap := make(map[int]int, len(used))
		speakers := make([]string, len(used))
		for ni, oi := range used {
			remap[oi] = ni
			speakers[ni] = d.speakers[oi]
		}
		indices := make([]int, len(idx))
		for i, j := range idx {
			indices[i] = remap[d.speakerIndices[j]]
		}
		d.speakers = speakers
		d.speakerIndices = indices
		d.speakerGroups = compactGroups(d.speakerGroups, d.speakers)
		d.maleSpeakers = intersect(d.maleSpeakers, d.speakers)
		d.femaleSpeakers = intersect(d.femaleSpeakers, d.speakers)
	} else {
		indices := make([]int, len(idx))
		for i, j := range idx {
			indices[i] = d.speakerIndices[j]
		}
		d.speakerIndices = indices
	}

	d.names = names
	d.rebuildSpeakerCounts()
	// The group list always covers the compacted speaker list, so the
	// rebuild cannot fail here.
	_ = d.rebuildGroupIndex()
	d.rebuildGenderIndices()
}

// compactGroups drops groups with no surviving members and trims member
// lists to surviving speakers, preserving group order.
func compactGroups(groups [][]string, speakers []string) [][]string {
	alive := make(map[string]struct{}, len(speakers))
	for _, s := range speakers {
		alive[s] = struct{}{}
	}
	var out [][]string
	for _, g := range groups {
		var members []string
		for _, s := range g {
			if _, ok := alive[s]; ok {
				members = append(members, s)
			}
		}
		if len(members) > 0 {
			out = append(out, members)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// PadArrays zero-pads each sequence up to the next multiple of pad.
func (d *Dataset) PadArrays(pad int) error {
	log.WithFields(log.Fields{"corpus": d.corpus, "pad": pad}).
		Info("Padding sequence lengths to nearest multiple")
	return d.x.Pad(pad)
}

// ClipArrays truncates each sequence to at most length time steps.
func (d *Dataset) ClipArrays(length int) error {
	log.WithFields(log.Fields{"corpus": d.corpus, "length": length}).
		Info("Clipping sequences to maximum length")
	return d.x.Clip(length)
}

// FrameArrays re-windows each raw signal into overlapping frames.
// numFrames <= 0 means no override.
func (d *Dataset) FrameArrays(frameSize, frameShift, numFrames int) error {
	log.WithFields(log.Fields{"corpus": d.corpus, "size": frameSize, "shift": frameShift}).
		Info("Framing sequences")
	return d.x.Frame(frameSize, frameShift, numFrames)
}

// TransposeTime swaps the time and feature axes of every sequence.
func (d *Dataset) TransposeTime() error {
	return d.x.TransposeTime()
}

// Corpus returns the corpus name.
func (d *Dataset) Corpus() string { return d.corpus }

// NumInstances returns the number of instances.
func (d *Dataset) NumInstances() int { return len(d.names) }

// Names returns the ordered instance names.
func (d *Dataset) Names() []string { return d.names }

// FeatureNames returns the feature dimension names.
func (d *Dataset) FeatureNames() []string { return d.featureNames }

// NumFeatures returns the number of feature dimensions.
func (d *Dataset) NumFeatures() int { return len(d.featureNames) }

// Features returns the feature container.
func (d *Dataset) Features() *Container { return d.x }

// Speakers returns the sorted speaker list.
func (d *Dataset) Speakers() []string { return d.speakers }

// SpeakerIndices returns, per instance, the offset of its speaker in
// Speakers.
func (d *Dataset) SpeakerIndices() []int { return d.speakerIndices }

// SpeakerCounts returns the number of instances per speaker.
func (d *Dataset) SpeakerCounts() []int { return d.speakerCounts }

// SpeakerGroups returns the speaker group partition.
func (d *Dataset) SpeakerGroups() [][]string { return d.speakerGroups }

// SpeakerGroupIndices returns, per instance, the offset of its speaker's
// group in SpeakerGroups.
func (d *Dataset) SpeakerGroupIndices() []int { return d.speakerGroupIndices }

// MaleSpeakers returns the configured male speaker list.
func (d *Dataset) MaleSpeakers() []string { return d.maleSpeakers }

// FemaleSpeakers returns the configured female speaker list.
func (d *Dataset) FemaleSpeakers() []string { return d.femaleSpeakers }

// MaleIndices returns the instances spoken by a male speaker, when the
// gender partition is configured.
func (d *Dataset) MaleIndices() []int { return d.maleIndices }

// FemaleIndices returns the instances spoken by a female speaker, when the
// gender partition is configured.
func (d *Dataset) FemaleIndices() []int { return d.femaleIndices }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(list []string) map[string]int {
	out := make(map[string]int, len(list))
	for i, s := range list {
		out[s] = i
	}
	return out
}
