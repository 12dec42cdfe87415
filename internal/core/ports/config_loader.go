package ports

import "go.trai.ch/pathline/internal/core/domain"

// ConfigLoader defines the interface for loading a run description.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the run description at path. Relative snapshot sources in the
	// returned run resolve against the directory holding the file.
	Load(path string) (*domain.Run, error)
}
