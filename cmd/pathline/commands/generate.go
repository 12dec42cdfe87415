package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/pathline/internal/app"
)

func (c *CLI) newGenerateCmd() *cobra.Command {
	req := app.GenerateRequest{Flow: app.FlowUniform, Size: 8, Steps: 5, Dt: 1}
	var flow string

	flows := make([]string, 0, len(app.Flows()))
	for _, f := range app.Flows() {
		flows = append(flows, string(f))
	}

	cmd := &cobra.Command{
		Use:   "generate <dir>",
		Short: "Write a synthetic snapshot series and its run description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Dir = args[0]
			req.Flow = app.Flow(flow)

			run, err := c.app.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.ok("generated " + string(req.Flow) + " run in " + req.Dir)
			p.line(
				"snapshots", strconv.Itoa(run.Axis.Len()),
				"time", "["+formatFloat(run.Axis.First())+", "+formatFloat(run.Axis.Last())+"]",
				"stack", strconv.Itoa(run.Stack),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&flow, "flow", string(app.FlowUniform), "Velocity field: "+strings.Join(flows, ", "))
	cmd.Flags().IntVar(&req.Size, "size", req.Size, "Grid points per axis")
	cmd.Flags().IntVar(&req.Steps, "steps", req.Steps, "Number of snapshots")
	cmd.Flags().Float64Var(&req.Dt, "dt", req.Dt, "Time between snapshots")
	cmd.Flags().IntVar(&req.Stack, "stack", 0, "Snapshots kept resident when sampling the run")
	return cmd
}
