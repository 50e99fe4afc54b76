package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/velcmd/internal/command"
	"github.com/san-kum/velcmd/internal/config"
	"github.com/san-kum/velcmd/internal/metrics"
	"github.com/san-kum/velcmd/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "metrics.csv"
)

var seriesHeader = []string{"tick", "time", "mean_error_vel_xy", "mean_error_vel_yaw", "standing_fraction", "heading_fraction"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Timestamp  time.Time                  `json:"timestamp"`
	Seed       uint64                     `json:"seed"`
	Agents     int                        `json:"num_envs"`
	Ticks      int                        `json:"ticks"`
	Config     *config.Config             `json:"config"`
	Advisories []string                   `json:"advisories,omitempty"`
	Episodes   []sim.Episode              `json:"episodes"`
	Summaries  map[string]metrics.Summary `json:"summaries"`
}

// Save writes metadata.json and metrics.csv into a fresh run directory and
// returns the run ID.
func (s *Store) Save(cfg *config.Config, seed uint64, diags command.Diagnostics, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", cfg.Name, uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      cfg.Name,
		Timestamp: time.Now(),
		Seed:      seed,
		Agents:    cfg.NumAgents,
		Ticks:     result.Ticks,
		Config:    cfg,
		Episodes:  result.Episodes,
		Summaries: result.Summaries,
	}
	for _, d := range diags {
		meta.Advisories = append(meta.Advisories, d.String())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result.Series); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSeries(path string, series []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(seriesHeader); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, smp := range series {
		row := []string{
			strconv.Itoa(smp.Tick), format(smp.Time),
			format(smp.MeanXY), format(smp.MeanYaw),
			format(smp.Standing), format(smp.Heading),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(seriesHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	series := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		tick, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
		}
		vals := make([]float64, len(rec)-1)
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return nil, fmt.Errorf("run %s row %d: %w", runID, i+1, err)
			}
		}
		series = append(series, sim.Sample{
			Tick: tick, Time: vals[0], MeanXY: vals[1], MeanYaw: vals[2], Standing: vals[3], Heading: vals[4],
		})
	}
	return series, nil
}
