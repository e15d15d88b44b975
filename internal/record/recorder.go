// Package record persists step outputs and run outcomes as JSON files on
// disk: one overwritable cache file per step, plus one timestamped record
// per completed run.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"seoflow/internal/pipeline"
)

const (
	cacheFileSuffix  = "_result.json"
	recordTimeLayout = "20060102_150405"
)

// Recorder writes step caches under CacheDir and final run records under
// OutputDir. It satisfies pipeline.Recorder.
type Recorder struct {
	outputDir string
	cacheDir  string
	log       *zap.Logger
}

// NewRecorder creates both directories if needed.
func NewRecorder(outputDir, cacheDir string, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, dir := range []string{outputDir, cacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Recorder{outputDir: outputDir, cacheDir: cacheDir, log: log}, nil
}

// OutputDir returns the run record directory.
func (r *Recorder) OutputDir() string { return r.outputDir }

// CacheDir returns the step cache directory.
func (r *Recorder) CacheDir() string { return r.cacheDir }

// Cache writes one step's output to <cacheDir>/<stepName>_result.json,
// overwriting any previous run's file. A value that cannot be serialized is
// coerced to its string form so the cache write still happens.
func (r *Recorder) Cache(stepName string, v pipeline.Value) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.log.Warn("step result not serializable, caching string form",
			zap.String("step", stepName), zap.Error(err))
		data, err = json.MarshalIndent(v.String(), "", "  ")
		if err != nil {
			return pipeline.NewCacheWriteError(stepName, err)
		}
	}

	path := filepath.Join(r.cacheDir, stepName+cacheFileSuffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pipeline.NewCacheWriteError(stepName, err)
	}

	r.log.Debug("cached step result", zap.String("step", stepName), zap.String("path", path))
	return nil
}

// PersistFinal writes the run record to
// <outputDir>/workflow_result_<timestamp>.json, keyed by the run's start
// time so successive runs never collide.
func (r *Recorder) PersistFinal(o *pipeline.Outcome) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return pipeline.NewPersistenceError(err)
	}

	name := fmt.Sprintf("workflow_result_%s.json", o.StartedAt.Format(recordTimeLayout))
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pipeline.NewPersistenceError(err)
	}

	r.log.Info("persisted run record", zap.String("run_id", o.RunID), zap.String("path", path))
	return nil
}
