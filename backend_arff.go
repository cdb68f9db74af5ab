package emoset

import (
	"bufio"
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// arffBackend reads dense 2-D features from an ARFF file. The @relation is
// the corpus name, the first string attribute carries instance names and
// the remaining numeric attributes are the feature dimensions.
type arffBackend struct {
	corpus       string
	names        []string
	featureNames []string
	x            *Container
}

func newARFFBackend(path string) (Backend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	b := &arffBackend{}
	nameCol := -1
	inData := false
	var rows [][]float64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	col := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if !inData {
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "@relation"):
				b.corpus = unquoteARFF(strings.TrimSpace(line[len("@relation"):]))
			case strings.HasPrefix(lower, "@attribute"):
				name, typ, err := parseARFFAttribute(line)
				if err != nil {
					return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
				}
				if typ == "string" && nameCol < 0 {
					nameCol = col
				} else {
					b.featureNames = append(b.featureNames, name)
				}
				col++
			case strings.HasPrefix(lower, "@data"):
				inData = true
			}
			continue
		}

		record, err := readARFFRecord(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
		}
		if len(record) != col {
			return nil, errors.Errorf("%s:%d: expected %d values, got %d",
				path, lineNo, col, len(record))
		}
		row := make([]float64, 0, len(b.featureNames))
		for i, field := range record {
			if i == nameCol {
				b.names = append(b.names, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if nameCol < 0 {
		return nil, errors.Errorf("%s: no string attribute for instance names", path)
	}

	b.x = NewDense(rows)
	log.WithFields(log.Fields{
		"corpus":    b.corpus,
		"instances": len(b.names),
		"features":  len(b.featureNames),
	}).Info("Read ARFF dataset")
	return b, nil
}

func (b *arffBackend) Corpus() string         { return b.corpus }
func (b *arffBackend) Names() []string        { return b.names }
func (b *arffBackend) FeatureNames() []string { return b.featureNames }
func (b *arffBackend) Features() *Container   { return b.x }
func (b *arffBackend) Close() error           { return nil }

func parseARFFAttribute(line string) (name, typ string, err error) {
	rest := strings.TrimSpace(line[len("@attribute"):])
	if rest == "" {
		return "", "", errors.Errorf("empty @attribute declaration")
	}
	if rest[0] == '\'' || rest[0] == '"' {
		quote := rest[0]
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return "", "", errors.Errorf("unterminated attribute name")
		}
		name = rest[1 : 1+end]
		typ = strings.TrimSpace(rest[2+end:])
	} else {
		fields := strings.Fields(rest)
		if len(fields) < 2 {
			return "", "", errors.Errorf("missing attribute type in %q", line)
		}
		name = fields[0]
		typ = strings.Join(fields[1:], " ")
	}
	return name, strings.ToLower(typ), nil
}

func readARFFRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = ','
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i, field := range record {
		record[i] = unquoteARFF(strings.TrimSpace(field))
	}
	return record, nil
}

func unquoteARFF(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
