package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Version is written into every run description this package produces.
const Version = "1"

// DescribeRun converts run back into its run file form. Sources inside the run
// root are written relative to it.
func DescribeRun(run *domain.Run) (*Runfile, error) {
	if run == nil || run.Axis == nil {
		return nil, zerr.Wrap(domain.ErrEmptyTimeAxis, "run has no time axis")
	}

	runfile := &Runfile{
		Version:   Version,
		Stack:     run.Stack,
		Strict:    run.Strict,
		Fields:    run.Fields,
		Snapshots: make([]SnapshotDTO, run.Axis.Len()),
	}
	if run.Geometry != nil {
		dto, err := DescribeGeometry(run.Geometry)
		if err != nil {
			return nil, err
		}
		runfile.Geometry = dto
	}
	for i := range run.Axis.Len() {
		t := run.Axis.Time(i)
		runfile.Snapshots[i] = SnapshotDTO{Time: &t, Source: relativeSource(run.Root, run.Axis.Source(i))}
	}
	return runfile, nil
}

// SaveRun writes run as a run description at path, or path/pathline.yaml when
// path is a directory.
func SaveRun(path string, run *domain.Run) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	runfile, err := DescribeRun(run)
	if err != nil {
		return zerr.With(err, "file", path)
	}
	data, err := yaml.Marshal(runfile)
	if err != nil {
		return errors.Join(domain.ErrConfigParseFailed, zerr.With(zerr.Wrap(err, "encode run file"), "file", path))
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Join(domain.ErrConfigWriteFailed, zerr.With(zerr.Wrap(err, "write run file"), "file", path))
	}
	return nil
}

func relativeSource(root, source string) string {
	if root == "" || !filepath.IsAbs(source) {
		return source
	}
	rel, err := filepath.Rel(root, source)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return source
	}
	return rel
}
