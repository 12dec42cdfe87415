// Package commands implements the CLI commands for pathline.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/pathline/internal/adapters/telemetry"
	"go.trai.ch/pathline/internal/app"
	"go.trai.ch/pathline/internal/build"
	"go.trai.ch/pathline/internal/core/domain"
	"go.trai.ch/pathline/internal/core/ports"
)

// CLI represents the command line interface for pathline.
type CLI struct {
	app     Application
	logger  ports.Logger
	rootCmd *cobra.Command

	runPath  string
	spans    bool
	shutdown func(context.Context) error
}

// Application represents the application logic interface.
type Application interface {
	Info(ctx context.Context, path string) (*app.RunInfo, error)
	Sample(ctx context.Context, path string, req app.SampleRequest) (*app.SampleReport, error)
	Locate(ctx context.Context, path string, points []domain.Point) ([]app.LocateResult, error)
	Trace(ctx context.Context, path string, req app.TraceRequest) ([]app.TraceResult, error)
	Generate(ctx context.Context, req app.GenerateRequest) (*domain.Run, error)
}

// New creates a new CLI instance with the given app. Span logging goes to logger.
func New(a Application, logger ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "pathline",
		Short:         "Sample and trace time-varying fields stored as snapshot series",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logger:  logger,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().StringVarP(&c.runPath, "run", "r", ".", "Run description file, or a directory holding pathline.yaml")
	rootCmd.PersistentFlags().BoolVar(&c.spans, "spans", false, "Log a line for every snapshot load")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if c.spans && c.logger != nil {
			c.shutdown = telemetry.Install(c.logger)
		}
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if c.shutdown == nil {
			return nil
		}
		return c.shutdown(cmd.Context())
	}

	rootCmd.AddCommand(c.newInfoCmd())
	rootCmd.AddCommand(c.newSampleCmd())
	rootCmd.AddCommand(c.newLocateCmd())
	rootCmd.AddCommand(c.newTraceCmd())
	rootCmd.AddCommand(c.newGenerateCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func parsePoints(raw []string) ([]domain.Point, error) {
	points := make([]domain.Point, len(raw))
	for i, s := range raw {
		p, err := domain.ParsePoint(s)
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}
