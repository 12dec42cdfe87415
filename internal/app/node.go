package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/pathline/internal/adapters/arrowfs"   //nolint:depguard // Wired in app layer
	"go.trai.ch/pathline/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/pathline/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/pathline/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/pathline/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			telemetry.NodeID,
			arrowfs.WriterNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			loaders, err := graft.Dep[ports.LoaderFactory](ctx)
			if err != nil {
				return nil, err
			}

			writer, err := graft.Dep[ports.SeriesWriter](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, loaders, writer, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{App: app, Logger: log}, nil
}
