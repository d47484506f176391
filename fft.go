package storyweave

import (
	"math"
	"path/filepath"
	"sync"
)

// FFTSource is a deterministic, synthetic stand-in for a real audio FFT
// analyzer, constructed from an absolute file path. Real audio decoding and
// spectral analysis are outside this core's scope; FFTSource exposes the
// same shape a real analyzer would (Duration, Frequency, GetFft) without
// ever reading the file's bytes.
type FFTSource struct {
	Path      string
	Duration  float64
	Frequency float64
}

// NewFFTSource returns a synthetic source for path with the given duration
// (seconds) and sample frequency (Hz).
func NewFFTSource(path string, duration, frequency float64) *FFTSource {
	return &FFTSource{Path: path, Duration: duration, Frequency: frequency}
}

// GetFft returns a deterministic magnitude spectrum at time t (seconds). If
// splitChannels is true, two independent bands are returned (left, right);
// otherwise one combined band.
func (s *FFTSource) GetFft(t float64, splitChannels bool) [][]float64 {
	const bins = 64
	band := func(phase float64) []float64 {
		out := make([]float64, bins)
		for i := range out {
			freq := float64(i+1) * s.Frequency / bins
			out[i] = math.Abs(math.Sin(2*math.Pi*freq*t + phase))
		}
		return out
	}
	if splitChannels {
		return [][]float64{band(0), band(math.Pi / 4)}
	}
	return [][]float64{band(0)}
}

// FFTCache owns every FFTSource a single [GeneratorContext] has opened,
// keyed by absolute path. It is not shared across generators: each
// GeneratorContext owns one, and Release clears it on context disposal.
type FFTCache struct {
	mu      sync.Mutex
	sources map[string]*FFTSource
}

// NewFFTCache returns an empty cache.
func NewFFTCache() *FFTCache {
	return &FFTCache{sources: make(map[string]*FFTSource)}
}

// Get returns the cached source for path (resolved to an absolute path
// first), creating one with the given duration/frequency on first request.
func (c *FFTCache) Get(path string, duration, frequency float64) (*FFTSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if src, ok := c.sources[abs]; ok {
		return src, nil
	}
	src := NewFFTSource(abs, duration, frequency)
	c.sources[abs] = src
	return src, nil
}

// Release clears every cached source.
func (c *FFTCache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = make(map[string]*FFTSource)
}
