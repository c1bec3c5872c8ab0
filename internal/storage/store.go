package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	metadataFile     = "metadata.json"
	trajectoriesFile = "trajectories.csv"
	fieldsPerBody    = 4
)

var ErrCorruptRun = errors.New("storage: corrupt run data")

type Store struct {
	baseDir string
	logger  *zap.Logger
}

func New(baseDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{baseDir: baseDir, logger: logger}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// BodyInfo is the part of a body that does not change during a run.
type BodyInfo struct {
	Name  string  `json:"name"`
	Mass  float64 `json:"mass"`
	Color string  `json:"color"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	G           float64            `json:"g"`
	Dt          float64            `json:"dt"`
	Softening   float64            `json:"softening"`
	Scale       float64            `json:"scale"`
	Steps       int                `json:"steps"`
	SimTime     float64            `json:"sim_time"`
	Bodies      []BodyInfo         `json:"bodies"`
	Metrics     map[string]float64 `json:"metrics"`
	EnergyDrift float64            `json:"energy_drift"`
	Errors      []string           `json:"errors,omitempty"`
}

func newRunID(scenario string) string {
	name := strings.ToLower(strings.Join(strings.Fields(scenario), "-"))
	if name == "" {
		name = "run"
	}
	return fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
}

// Save writes the metadata and sampled trajectories of a finished run and
// returns its ID.
func (s *Store) Save(sc *config.Scenario, result *sim.Result) (string, error) {
	runID := newRunID(sc.Name)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scenario:    sc.Name,
		Timestamp:   time.Now(),
		G:           sc.G,
		Dt:          sc.Dt,
		Softening:   sc.Softening,
		Scale:       sc.Scale,
		Steps:       result.StepsTaken,
		SimTime:     result.Final.Time,
		Metrics:     result.Metrics,
		EnergyDrift: result.EnergyDrift,
	}
	for _, b := range result.Final.Bodies {
		meta.Bodies = append(meta.Bodies, BodyInfo{Name: b.Name, Mass: b.Mass, Color: b.Color})
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeTrajectories(filepath.Join(runDir, trajectoriesFile), result); err != nil {
		return "", err
	}

	s.logger.Info("run saved",
		zap.String("run_id", runID),
		zap.Int("samples", len(result.Times)),
		zap.String("dir", runDir),
	)
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

func writeTrajectories(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.States) > 0 {
		header := []string{"time"}
		for i := range result.States[0] {
			header = append(header,
				fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i),
				fmt.Sprintf("vx%d", i), fmt.Sprintf("vy%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for i, bodies := range result.States {
			row := make([]string, 0, 1+fieldsPerBody*len(bodies))
			row = append(row, formatFloat(result.Times[i]))
			for _, b := range bodies {
				row = append(row,
					formatFloat(b.Pos.X), formatFloat(b.Pos.Y),
					formatFloat(b.Vel.X), formatFloat(b.Vel.Y))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// List returns saved runs, newest first. Directories without readable
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
			s.logger.Debug("skipping run directory", zap.String("dir", entry.Name()), zap.Error(err))
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
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrajectories reads the sampled snapshots of a run, with names, masses
// and colors restored from its metadata.
func (s *Store) LoadTrajectories(runID string) ([]dynamo.Bodies, []float64, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoriesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", runID, err)
	}
	if len(records) < 2 {
		return []dynamo.Bodies{}, []float64{}, nil
	}

	n := len(meta.Bodies)
	states := make([]dynamo.Bodies, 0, len(records)-1)
	times := make([]float64, 0, len(records)-1)

	for line, record := range records[1:] {
		if len(record) != 1+fieldsPerBody*n {
			return nil, nil, fmt.Errorf("%s line %d: %d fields for %d bodies: %w", runID, line+2, len(record), n, ErrCorruptRun)
		}

		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %v: %w", runID, line+2, err, ErrCorruptRun)
			}
			vals[j] = v
		}

		bodies := make(dynamo.Bodies, n)
		for i, info := range meta.Bodies {
			o := 1 + fieldsPerBody*i
			bodies[i] = dynamo.Body{
				Name:  info.Name,
				Mass:  info.Mass,
				Color: info.Color,
				Pos:   dynamo.Vec2{X: vals[o], Y: vals[o+1]},
				Vel:   dynamo.Vec2{X: vals[o+2], Y: vals[o+3]},
			}
		}
		times = append(times, vals[0])
		states = append(states, bodies)
	}

	return states, times, nil
}

// Trails converts sampled snapshots into one position sequence per body.
func Trails(states []dynamo.Bodies) [][]dynamo.Vec2 {
	if len(states) == 0 {
		return nil
	}
	trails := make([][]dynamo.Vec2, len(states[0]))
	for i := range trails {
		trails[i] = make([]dynamo.Vec2, len(states))
	}
	for t, bodies := range states {
		for i, b := range bodies {
			trails[i][t] = b.Pos
		}
	}
	return trails
}

type ExportData struct {
	Metadata RunMetadata     `json:"metadata"`
	Times    []float64       `json:"times"`
	States   []dynamo.Bodies `json:"states"`
}

// ExportJSON writes a saved run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := s.LoadTrajectories(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: *meta, Times: times, States: states})
}
