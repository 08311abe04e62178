package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

func TestFormatKB(t *testing.T) {
	assert.Equal(t, "7 KB", formatKB(7))
	assert.Equal(t, "55.6 KB", formatKB(55.6))
	assert.Equal(t, "1,234.5 KB", formatKB(1234.5))
}

func TestWriteRound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRound(&buf, testRound(7, 50)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Cache capacity: 7 KB\n"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5, "capacity, blank line, header and one row per policy")
	assert.Contains(t, out, "Hit Rate (%)")
	assert.Regexp(t, `LRU\s+50\.00\s+80\.00\s+10 KB\s+1`, out)
	assert.Regexp(t, `LFU\s+62\.50\s+n/a\s+5 KB\s+1`, out)
}

func TestWriteOptimizerTable(t *testing.T) {
	var buf bytes.Buffer
	rows := []planner.ProbabilityRow{
		{ResourceID: "A", CacheProb: 0.25, Cached: false},
		{ResourceID: "C", CacheProb: 0.9, Cached: true},
	}
	require.NoError(t, WriteOptimizerTable(&buf, rows))

	assert.Regexp(t, `A\s+0\.2500\s+false`, buf.String())
	assert.Regexp(t, `C\s+0\.9000\s+true`, buf.String())
}

func TestWriteBreakdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBreakdown(&buf, testTrace(t), testRound(7, 50)))

	out := buf.String()
	assert.Contains(t, out, "LRU: 1 resources, 10 KB")
	assert.Contains(t, out, "LFU: 1 resources, 5 KB")
	assert.Regexp(t, `C\s+5 KB\s+10 requests`, out)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	s := Summarize([]*planner.RoundResult{testRound(40, 50), testRound(60, 70)})
	s.Warnings = map[string]int{planner.PolicyLFU: 3}

	require.NoError(t, WriteSummary(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "Rounds: 2, mean capacity: 50 KB")
	assert.Regexp(t, `LRU\s+Hit Rate \(%\)\s+60\.00\s+14\.14\s+50\.00\s+70\.00\s+2`, out)
	assert.Regexp(t, `LFU\s+Latency Reduction \(%\)\s+n/a`, out)
	assert.Contains(t, out, "LFU: 3 warnings")
}
