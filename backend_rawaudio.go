package emoset

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// rawAudioBackend reads a text file listing WAV paths, one per line, and
// exposes each clip's mono PCM signal as a ragged sequence with a single
// feature dimension. Relative paths are resolved against the list file's
// directory. The corpus name is the list file's stem and instance names
// are the clips' stems.
type rawAudioBackend struct {
	corpus string
	names  []string
	x      *Container
}

func newRawAudioBackend(path string) (Backend, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	b := &rawAudioBackend{corpus: stem(path)}
	dir := filepath.Dir(path)
	var seqs [][][]float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		clip := line
		if !filepath.IsAbs(clip) {
			clip = filepath.Join(dir, clip)
		}
		signal, err := readWAV(clip)
		if err != nil {
			return nil, err
		}
		b.names = append(b.names, stem(clip))
		seqs = append(seqs, signal)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(seqs) == 0 {
		return nil, errors.Errorf("%s lists no audio files", path)
	}

	b.x = NewRagged(seqs)
	log.WithFields(log.Fields{"corpus": b.corpus, "instances": len(b.names)}).
		Info("Read raw audio dataset")
	return b, nil
}

func (b *rawAudioBackend) Corpus() string         { return b.corpus }
func (b *rawAudioBackend) Names() []string        { return b.names }
func (b *rawAudioBackend) FeatureNames() []string { return []string{"pcm"} }
func (b *rawAudioBackend) Features() *Container   { return b.x }
func (b *rawAudioBackend) Close() error           { return nil }

// readWAV decodes a WAV clip to a mono float sequence shaped steps x 1,
// averaging channels and scaling samples to [-1, 1].
func readWAV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening audio clip %s", path)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "decoding audio clip %s", path)
	}
	signal, err := monoSignal(buf, decoder.BitDepth)
	return signal, errors.Wrapf(err, "audio clip %s", path)
}

func monoSignal(buf *audio.IntBuffer, bitDepth uint16) ([][]float64, error) {
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, errors.Errorf("no channels")
	}
	scale := float64(int64(1) << (bitDepth - 1))
	steps := len(buf.Data) / channels
	signal := make([][]float64, steps)
	for t := 0; t < steps; t++ {
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[t*channels+ch])
		}
		signal[t] = []float64{sum / float64(channels) / scale}
	}
	return signal, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
