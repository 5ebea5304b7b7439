package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ReportVersion is the current report format version.
const ReportVersion = 1

// ReportHeader captures the parameters of a benchmark run.
type ReportHeader struct {
	Version   int    `yaml:"report_version"`
	RunID     string `yaml:"run_id"`
	CreatedAt string `yaml:"created_at,omitempty"`
	Mode      Mode   `yaml:"mode"`
	Layout    string `yaml:"layout"`
	Seed      int64  `yaml:"seed"`
	Config    Config `yaml:"config"`
}

// NewReportHeader stamps a header with a fresh run id and the current time.
func NewReportHeader(mode Mode, layout string, seed int64, cfg Config) ReportHeader {
	return ReportHeader{
		Version:   ReportVersion,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Mode:      mode,
		Layout:    layout,
		Seed:      seed,
		Config:    cfg,
	}
}

// Report combines header and per-circuit results.
type Report struct {
	Header  ReportHeader
	Results []Result
}

// CSV column headers for the report data file.
var reportColumns = []string{
	"circuit", "mode", "qubits", "gates", "depth", "mappings", "routed", "timeouts",
	"avg_steps", "best_avg_steps", "mean_place_seconds",
}

// ExportReport writes the header (YAML) and results (CSV) to separate files.
func ExportReport(header *ReportHeader, results []Result, headerPath, dataPath string) error {
	headerData, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling report header: %w", err)
	}
	if err := os.WriteFile(headerPath, headerData, 0644); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	file, err := os.Create(dataPath)
	if err != nil {
		return fmt.Errorf("creating report data file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(reportColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Circuit,
			string(r.Mode),
			strconv.Itoa(r.Qubits),
			strconv.Itoa(r.Gates),
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.Mappings),
			strconv.Itoa(r.Routed),
			strconv.Itoa(r.Timeouts),
			strconv.FormatFloat(r.AvgSteps, 'f', -1, 64),
			strconv.FormatFloat(r.BestAvgSteps, 'f', -1, 64),
			strconv.FormatFloat(r.MeanPlaceSeconds, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", r.Circuit, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadReport reads a report header (YAML) and results (CSV). Best mappings
// are not persisted and are nil in the loaded results.
func LoadReport(headerPath, dataPath string) (*Report, error) {
	headerData, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("reading report header: %w", err)
	}
	var header ReportHeader
	if err := yaml.Unmarshal(headerData, &header); err != nil {
		return nil, fmt.Errorf("parsing report header: %w", err)
	}
	if header.Version != ReportVersion {
		return nil, fmt.Errorf("unsupported report version %d", header.Version)
	}

	file, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("opening report data: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var results []Result
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if len(row) != len(reportColumns) {
			return nil, fmt.Errorf("CSV line %d has %d columns, expected %d", line, len(row), len(reportColumns))
		}
		r, err := parseResult(row)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		results = append(results, r)
	}
	return &Report{Header: header, Results: results}, nil
}

func parseResult(row []string) (Result, error) {
	r := Result{Circuit: row[0], Mode: Mode(row[1])}
	ints := []*int{&r.Qubits, &r.Gates, &r.Depth, &r.Mappings, &r.Routed, &r.Timeouts}
	for i, dst := range ints {
		v, err := strconv.Atoi(row[2+i])
		if err != nil {
			return Result{}, fmt.Errorf("column %s: %w", reportColumns[2+i], err)
		}
		*dst = v
	}
	floats := []*float64{&r.AvgSteps, &r.BestAvgSteps, &r.MeanPlaceSeconds}
	for i, dst := range floats {
		col := 2 + len(ints) + i
		v, err := strconv.ParseFloat(row[col], 64)
		if err != nil {
			return Result{}, fmt.Errorf("column %s: %w", reportColumns[col], err)
		}
		*dst = v
	}
	return r, nil
}
