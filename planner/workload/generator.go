package workload

import (
	"bytes"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

// Popularity models accepted by Spec.Popularity.
const (
	PopularityUniform = "uniform"
	PopularityZipf    = "zipf"
)

var validPopularity = map[string]bool{"": true, PopularityUniform: true, PopularityZipf: true}

// CatalogEntry is a resource that synthetic requests may target.
type CatalogEntry struct {
	Resource string  `yaml:"resource"`
	Size     float64 `yaml:"size"`    // KB
	Latency  float64 `yaml:"latency"` // seconds
}

// Spec configures synthetic request generation.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Requests   int            `yaml:"requests"`
	Popularity string         `yaml:"popularity"` // "uniform" (default) or "zipf"
	ZipfS      float64        `yaml:"zipf_s,omitempty"`
	ZipfV      float64        `yaml:"zipf_v,omitempty"`
	Catalog    []CatalogEntry `yaml:"catalog"`
}

// DefaultCatalog is a small static web site.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{Resource: "/index.html", Size: 10, Latency: 0.1},
		{Resource: "/style.css", Size: 5, Latency: 0.05},
		{Resource: "/script.js", Size: 8, Latency: 0.08},
		{Resource: "/image1.jpg", Size: 50, Latency: 0.3},
		{Resource: "/image2.jpg", Size: 45, Latency: 0.25},
		{Resource: "/video.mp4", Size: 200, Latency: 1.0},
	}
}

// DefaultSpec returns 100 uniformly distributed requests over DefaultCatalog.
func DefaultSpec() *Spec {
	return &Spec{
		Requests:   100,
		Popularity: PopularityUniform,
		ZipfS:      1.2,
		ZipfV:      1,
		Catalog:    DefaultCatalog(),
	}
}

// LoadSpec reads a YAML generation spec. Fields left out keep DefaultSpec values,
// except that a catalog given in the file replaces the default one.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading workload spec")
	}
	spec := DefaultSpec()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(spec); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parsing workload spec")
	}
	return spec, nil
}

// Validate checks that the spec can generate a trace.
func (s *Spec) Validate() error {
	if s.Requests <= 0 {
		return errors.Errorf("requests must be positive, got %d", s.Requests)
	}
	if !validPopularity[s.Popularity] {
		return errors.Errorf("unknown popularity %q; valid: uniform, zipf", s.Popularity)
	}
	if s.Popularity == PopularityZipf {
		if math.IsNaN(s.ZipfS) || s.ZipfS <= 1 {
			return errors.Errorf("zipf_s must be greater than 1, got %v", s.ZipfS)
		}
		if math.IsNaN(s.ZipfV) || s.ZipfV < 1 {
			return errors.Errorf("zipf_v must be at least 1, got %v", s.ZipfV)
		}
	}
	if len(s.Catalog) == 0 {
		return errors.New("catalog must list at least one resource")
	}
	seen := make(map[string]bool, len(s.Catalog))
	for i, e := range s.Catalog {
		if e.Resource == "" {
			return errors.Errorf("catalog[%d]: resource must not be empty", i)
		}
		if seen[e.Resource] {
			return errors.Errorf("catalog[%d]: duplicate resource %q", i, e.Resource)
		}
		seen[e.Resource] = true
		if math.IsNaN(e.Size) || math.IsInf(e.Size, 0) || e.Size <= 0 {
			return errors.Errorf("catalog[%d]: size must be positive, got %v", i, e.Size)
		}
		if math.IsNaN(e.Latency) || math.IsInf(e.Latency, 0) || e.Latency < 0 {
			return errors.Errorf("catalog[%d]: latency must be non-negative, got %v", i, e.Latency)
		}
	}
	return nil
}

// Generate draws s.Requests requests from the catalog and aggregates them into a
// trace. Resources appear in order of their first request and unrequested resources
// are left out. The full request sequence is kept as the trace's access sequence.
func Generate(s *Spec, rng *rand.Rand) (*planner.Trace, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	pick := s.picker(rng)

	counts := make(map[int]int64, len(s.Catalog))
	var (
		firstSeen []int
		accesses  = make([]string, 0, s.Requests)
	)
	for i := 0; i < s.Requests; i++ {
		idx := pick()
		if counts[idx] == 0 {
			firstSeen = append(firstSeen, idx)
		}
		counts[idx]++
		accesses = append(accesses, s.Catalog[idx].Resource)
	}

	records := make([]planner.ResourceRecord, 0, len(firstSeen))
	for _, idx := range firstSeen {
		e := s.Catalog[idx]
		records = append(records, planner.ResourceRecord{
			ID:         e.Resource,
			SizeKB:     e.Size,
			Frequency:  counts[idx],
			LatencySec: e.Latency,
		})
	}
	logrus.Debugf("Generated %d requests over %d of %d catalog resources", s.Requests, len(records), len(s.Catalog))
	return planner.NewTrace(records, accesses)
}

// picker returns a function drawing catalog indices under the configured popularity.
// Zipf ranks follow catalog order: the first entry is the most popular.
func (s *Spec) picker(rng *rand.Rand) func() int {
	n := len(s.Catalog)
	if s.Popularity == PopularityZipf {
		z := rand.NewZipf(rng, s.ZipfS, s.ZipfV, uint64(n-1))
		return func() int { return int(z.Uint64()) }
	}
	return func() int { return rng.Intn(n) }
}
