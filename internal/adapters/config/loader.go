// Package config provides the run description loader.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileName is the run description looked up when a directory is given.
const FileName = "pathline.yaml"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the run description at path, or path/pathline.yaml when path is a directory.
func (l *Loader) Load(path string) (*domain.Run, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	var runfile Runfile
	if err := readAndUnmarshalYAML(path, &runfile); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Join(domain.ErrConfigReadFailed, zerr.With(err, "path", path))
	}

	run := &domain.Run{
		Stack:  runfile.Stack,
		Strict: runfile.Strict,
		Fields: runfile.Fields,
		Root:   root,
	}
	if run.Stack == 0 {
		run.Stack = domain.DefaultStack
	}
	if run.Stack < 2 {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidStackSize, "stack must be at least 2"), "stack", run.Stack), "file", path)
	}
	if len(run.Fields) == 0 {
		run.Fields = []string{domain.DefaultField}
	}

	if runfile.Geometry != nil {
		run.Geometry, err = BuildGeometry(runfile.Geometry)
		if err != nil {
			return nil, zerr.With(err, "file", path)
		}
	}

	steps, err := l.timeSteps(root, &runfile)
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}
	run.Axis, err = domain.NewTimeAxis(steps)
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}

	if run.Stack > run.Axis.Len() {
		l.Logger.Warn(fmt.Sprintf("stack %d exceeds the %d snapshots in %s; all snapshots stay resident", run.Stack, run.Axis.Len(), path))
	}
	return run, nil
}

func (l *Loader) timeSteps(root string, runfile *Runfile) ([]domain.TimeStep, error) {
	steps := make([]domain.TimeStep, 0, len(runfile.Snapshots))
	for i, s := range runfile.Snapshots {
		if s.Time == nil || s.Source == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "snapshot needs time and source"), "snapshot", i)
		}
		steps = append(steps, domain.TimeStep{Time: *s.Time, Source: s.Source})
	}

	if runfile.Series != nil {
		series, err := resolveSeries(root, runfile.Series)
		if err != nil {
			return nil, err
		}
		steps = append(steps, series...)
	}
	return steps, nil
}

func resolveSeries(root string, s *SeriesDTO) ([]domain.TimeStep, error) {
	if s.Pattern == "" || !(s.Step > 0) {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "series needs a pattern and a positive step"), "pattern", s.Pattern)
	}
	pattern := s.Pattern
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(root, pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Join(domain.ErrConfigParseFailed, zerr.With(zerr.Wrap(err, "glob pattern failed"), "pattern", s.Pattern))
	}
	slices.Sort(matches)

	steps := make([]domain.TimeStep, len(matches))
	for i, m := range matches {
		steps[i] = domain.TimeStep{Time: s.Start + float64(i)*s.Step, Source: m}
	}
	return steps, nil
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is provided by the user on purpose
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Join(domain.ErrConfigReadFailed, zerr.With(err, "path", configPath))
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return errors.Join(domain.ErrConfigParseFailed, zerr.With(parseErr, "path", configPath))
	}

	return nil
}
