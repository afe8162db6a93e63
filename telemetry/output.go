package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/ahammer/metalrain/config"
)

// csvSink is one append-only CSV file. The first append emits the header
// row, later ones only data.
type csvSink struct {
	file      *os.File
	hasHeader bool
}

func newCSVSink(path string) (*csvSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &csvSink{file: f}, nil
}

func (s *csvSink) append(rows any) error {
	if s.hasHeader {
		return gocsv.MarshalWithoutHeaders(rows, s.file)
	}
	if err := gocsv.Marshal(rows, s.file); err != nil {
		return err
	}
	s.hasHeader = true
	return nil
}

func (s *csvSink) close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// OutputManager writes a run's artifacts into one directory: a config
// snapshot, telemetry.csv and perf.csv. A nil manager is valid and drops
// everything, so callers never branch on whether output is enabled.
type OutputManager struct {
	dir       string
	telemetry *csvSink
	perf      *csvSink
}

// NewOutputManager prepares the output directory. An empty dir disables
// output and returns a nil manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	telemetry, err := newCSVSink(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, err
	}
	perf, err := newCSVSink(filepath.Join(dir, "perf.csv"))
	if err != nil {
		telemetry.close()
		return nil, err
	}

	return &OutputManager{dir: dir, telemetry: telemetry, perf: perf}, nil
}

// WriteConfig snapshots the effective configuration next to the CSVs, so a
// run stays reproducible after the live config has been tuned.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends one stats window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.append([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf appends one perf window to perf.csv, stamped with the tick the
// window ended on.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := om.perf.append([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes both CSV files. Safe to call more than once.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	err := om.telemetry.close()
	if perr := om.perf.close(); err == nil {
		err = perr
	}
	return err
}
