package workload

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

func workloadRNG(seed int64) *rand.Rand {
	return planner.NewPartitionedRNG(planner.NewRunKey(seed)).ForSubsystem(planner.SubsystemWorkload)
}

func TestGenerate_CountsMatchRequests(t *testing.T) {
	spec := DefaultSpec()

	tr, err := Generate(spec, workloadRNG(42))
	require.NoError(t, err)

	assert.Equal(t, int64(spec.Requests), tr.TotalFrequency())
	accesses := tr.Accesses()
	require.Len(t, accesses, spec.Requests)
	assert.Equal(t, accesses[0], tr.Records()[0].ID, "first record is the first request")
	for _, r := range tr.Records() {
		assert.Positive(t, r.Frequency, "unrequested resources are left out")
	}
}

func TestGenerate_SameSeedSameTrace(t *testing.T) {
	a, err := Generate(DefaultSpec(), workloadRNG(7))
	require.NoError(t, err)
	b, err := Generate(DefaultSpec(), workloadRNG(7))
	require.NoError(t, err)

	assert.Equal(t, a.Records(), b.Records())
	assert.Equal(t, a.Accesses(), b.Accesses())
}

func TestGenerate_ZipfFavoursHeadOfCatalog(t *testing.T) {
	spec := DefaultSpec()
	spec.Popularity = PopularityZipf
	spec.ZipfS = 2
	spec.Requests = 2000

	tr, err := Generate(spec, workloadRNG(3))
	require.NoError(t, err)

	head, ok := tr.Lookup(spec.Catalog[0].Resource)
	require.True(t, ok)
	for _, r := range tr.Records() {
		assert.LessOrEqual(t, r.Frequency, head.Frequency)
	}
}

func TestSpec_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Spec)
	}{
		{"no requests", func(s *Spec) { s.Requests = 0 }},
		{"unknown popularity", func(s *Spec) { s.Popularity = "pareto" }},
		{"zipf exponent too small", func(s *Spec) { s.Popularity, s.ZipfS = PopularityZipf, 1 }},
		{"empty catalog", func(s *Spec) { s.Catalog = nil }},
		{"duplicate resource", func(s *Spec) { s.Catalog = append(s.Catalog, s.Catalog[0]) }},
		{"zero size", func(s *Spec) { s.Catalog[0].Size = 0 }},
		{"negative latency", func(s *Spec) { s.Catalog[0].Latency = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultSpec()
			tt.mutate(spec)
			assert.Error(t, spec.Validate())
			_, err := Generate(spec, workloadRNG(1))
			assert.Error(t, err)
		})
	}
}

func TestLoadSpec_CatalogReplacesDefault(t *testing.T) {
	path := writeFile(t, "workload.yaml", `
requests: 50
catalog:
  - resource: /a
    size: 1
    latency: 0.5
`)
	spec, err := LoadSpec(path)
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	assert.Equal(t, 50, spec.Requests)
	assert.Equal(t, PopularityUniform, spec.Popularity)
	assert.Equal(t, []CatalogEntry{{Resource: "/a", Size: 1, Latency: 0.5}}, spec.Catalog)

	_, err = LoadSpec(writeFile(t, "bad.yaml", "request: 5\n"))
	assert.Error(t, err)

	_, err = LoadSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
