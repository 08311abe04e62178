// Package workload produces traces for the planner: it reads observed traces from
// CSV, YAML or JSON files and synthesizes request traces from a resource catalog.
package workload

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/DamienTicer/Web-Caching-with-SGD/planner"
)

// TraceFile is the YAML/JSON layout of a trace.
type TraceFile struct {
	Resources []ResourceEntry `yaml:"resources" json:"resources"`
	Accesses  []string        `yaml:"accesses,omitempty" json:"accesses,omitempty"`
}

// ResourceEntry is one resource line of a trace file.
type ResourceEntry struct {
	Resource  string  `yaml:"resource" json:"resource"`
	Size      float64 `yaml:"size" json:"size"`           // KB
	Frequency float64 `yaml:"frequency" json:"frequency"` // request count, whole number
	Latency   float64 `yaml:"latency" json:"latency"`     // seconds
}

// csvColumns are the required CSV header names. Other columns are ignored.
var csvColumns = []string{"resource", "size", "frequency", "latency"}

// LoadTrace reads a trace file, choosing the format by extension
// (.csv, .yaml, .yml or .json).
func LoadTrace(path string) (*planner.Trace, error) {
	if path == "" {
		return nil, errors.New("trace path must not be empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening trace %s", path)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var tr *planner.Trace
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		tr, err = ReadCSV(f)
	case ".yaml", ".yml":
		tr, err = ReadYAML(f)
	case ".json":
		tr, err = ReadJSON(f)
	default:
		return nil, errors.Errorf("unsupported trace format %q; valid: .csv, .yaml, .yml, .json", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading trace %s", path)
	}
	return tr, nil
}

// ReadCSV parses a CSV trace with a header row naming at least the columns
// resource, size, frequency and latency, in any order. Rows with an empty
// required field are skipped with a warning; malformed values are errors.
func ReadCSV(r io.Reader) (*planner.Trace, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range csvColumns {
		if _, ok := col[name]; !ok {
			return nil, errors.Errorf("CSV header is missing column %q", name)
		}
	}

	var (
		records []planner.ResourceRecord
		skipped int
	)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "CSV row %d", row)
		}
		values := make(map[string]string, len(csvColumns))
		missing := false
		for _, name := range csvColumns {
			idx := col[name]
			if idx >= len(fields) || strings.TrimSpace(fields[idx]) == "" {
				missing = true
				break
			}
			values[name] = strings.TrimSpace(fields[idx])
		}
		if missing {
			skipped++
			continue
		}
		rec, err := parseCSVRecord(values)
		if err != nil {
			return nil, errors.Wrapf(err, "CSV row %d", row)
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		logrus.Warnf("ReadCSV: %d rows with missing values were skipped", skipped)
	}
	return planner.NewTrace(records, nil)
}

func parseCSVRecord(values map[string]string) (planner.ResourceRecord, error) {
	size, err := strconv.ParseFloat(values["size"], 64)
	if err != nil {
		return planner.ResourceRecord{}, errors.Wrapf(err, "invalid size %q", values["size"])
	}
	f, err := strconv.ParseFloat(values["frequency"], 64)
	if err != nil {
		return planner.ResourceRecord{}, errors.Wrapf(err, "invalid frequency %q", values["frequency"])
	}
	freq, err := wholeFrequency(f)
	if err != nil {
		return planner.ResourceRecord{}, err
	}
	latency, err := strconv.ParseFloat(values["latency"], 64)
	if err != nil {
		return planner.ResourceRecord{}, errors.Wrapf(err, "invalid latency %q", values["latency"])
	}
	return planner.ResourceRecord{
		ID:         values["resource"],
		SizeKB:     size,
		Frequency:  freq,
		LatencySec: latency,
	}, nil
}

// ReadYAML parses a YAML trace. Unknown keys are rejected.
func ReadYAML(r io.Reader) (*planner.Trace, error) {
	var tf TraceFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&tf); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parsing YAML trace")
	}
	return tf.Trace()
}

// ReadJSON parses a JSON trace. Unknown keys are rejected.
func ReadJSON(r io.Reader) (*planner.Trace, error) {
	var tf TraceFile
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&tf); err != nil {
		return nil, errors.Wrap(err, "parsing JSON trace")
	}
	return tf.Trace()
}

// wholeFrequency converts a decoded request count. Every format accepts whole
// numbers written as floats ("5.0", as exported by dataframe tools) and rejects
// fractional ones.
func wholeFrequency(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, errors.Errorf("frequency must be a whole number, got %v", f)
	}
	return int64(f), nil
}

// Trace validates the file contents and builds a planner.Trace.
func (tf *TraceFile) Trace() (*planner.Trace, error) {
	records := make([]planner.ResourceRecord, len(tf.Resources))
	for i, e := range tf.Resources {
		freq, err := wholeFrequency(e.Frequency)
		if err != nil {
			return nil, errors.Wrapf(err, "resource %q", e.Resource)
		}
		records[i] = planner.ResourceRecord{
			ID:         e.Resource,
			SizeKB:     e.Size,
			Frequency:  freq,
			LatencySec: e.Latency,
		}
	}
	return planner.NewTrace(records, tf.Accesses)
}

// NewTraceFile converts a trace back into its file layout.
func NewTraceFile(tr *planner.Trace) *TraceFile {
	tf := &TraceFile{Accesses: tr.Accesses()}
	for _, r := range tr.Records() {
		tf.Resources = append(tf.Resources, ResourceEntry{
			Resource:  r.ID,
			Size:      r.SizeKB,
			Frequency: float64(r.Frequency),
			Latency:   r.LatencySec,
		})
	}
	return tf
}

// WriteYAML writes tr in the YAML layout read by ReadYAML.
func WriteYAML(w io.Writer, tr *planner.Trace) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(NewTraceFile(tr)); err != nil {
		return errors.Wrap(err, "encoding YAML trace")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "encoding YAML trace")
	}
	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "writing YAML trace")
}
