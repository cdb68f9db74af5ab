package emoset

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ParseAnnotations reads a two-column annotation CSV with a header row,
// first column "name", and returns a name to value mapping. Names must be
// unique.
func ParseAnnotations(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening annotation file %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing annotation file %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("annotation file %s has no header row", path)
	}
	if records[0][0] != "name" {
		return nil, errors.Errorf("annotation file %s: first column must be \"name\", got %q",
			path, records[0][0])
	}

	annotations := make(map[string]string, len(records)-1)
	for _, rec := range records[1:] {
		if _, dup := annotations[rec[0]]; dup {
			return nil, errors.Errorf("annotation file %s: duplicate name %q", path, rec[0])
		}
		annotations[rec[0]] = rec[1]
	}
	return annotations, nil
}

// ParseRatings reads a two-column annotation CSV whose second column is a
// numeric dimensional rating.
func ParseRatings(path string) (map[string]float64, error) {
	raw, err := ParseAnnotations(path)
	if err != nil {
		return nil, err
	}
	ratings := make(map[string]float64, len(raw))
	for name, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "annotation file %s: rating for %q", path, name)
		}
		ratings[name] = v
	}
	return ratings, nil
}

// WriteAnnotations writes a name to value mapping as a two-column CSV
// sorted by name, with header "name,<column>".
func WriteAnnotations(annotations map[string]string, column, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating annotation file %s", path)
	}
	defer f.Close()

	names := make([]string, 0, len(annotations))
	for n := range annotations {
		names = append(names, n)
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", column}); err != nil {
		return errors.Wrap(err, "writing annotation header")
	}
	for _, n := range names {
		if err := w.Write([]string{n, annotations[n]}); err != nil {
			return errors.Wrapf(err, "writing annotation for %q", n)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "writing annotation file %s", path)
}
