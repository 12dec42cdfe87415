package commands

import (
	"context"
	"errors"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.trai.ch/pathline/internal/app"
	"go.trai.ch/pathline/internal/engine/pathline"
	"go.trai.ch/pathline/internal/tui"
)

func (c *CLI) newTraceCmd() *cobra.Command {
	var (
		seeds    []string
		from, to float64
		step     float64
		maxSteps int
		jobs     int
		full     bool
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Integrate pathlines from seed points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(seeds) == 0 {
				return errors.New("trace needs at least one --seed")
			}
			pts, err := parsePoints(seeds)
			if err != nil {
				return err
			}

			req := app.TraceRequest{
				Seeds:       pts,
				Step:        step,
				MaxSteps:    maxSteps,
				Concurrency: jobs,
			}
			if cmd.Flags().Changed("from") {
				req.From = &from
			}
			if cmd.Flags().Changed("to") {
				req.To = &to
			}

			var results []app.TraceResult
			if progress {
				results, err = c.traceWithProgress(cmd, req)
			} else {
				results, err = c.app.Trace(cmd.Context(), c.runPath, req)
			}
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			for i, r := range results {
				end := r.Path.End()
				summary := "seed " + strconv.Itoa(i) + " " + formatPoint(r.Seed) + ": " + r.Path.Reason.String()
				if r.Path.Reason == pathline.Reached {
					p.ok(summary)
				} else {
					p.fail(summary)
				}
				p.line(
					"samples", strconv.Itoa(len(r.Path.Samples)),
					"end.t", formatFloat(end.T),
					"end.p", formatPoint(end.Point),
					"loads", strconv.Itoa(r.Stats.Loads),
				)
				if full {
					for _, s := range r.Path.Samples {
						p.line("t", formatFloat(s.T), "p", formatPoint(s.Point))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&seeds, "seed", "s", nil, "Seed point as x,y[,z] (repeatable)")
	cmd.Flags().Float64Var(&from, "from", 0, "Start time; defaults to the first snapshot time")
	cmd.Flags().Float64Var(&to, "to", 0, "End time; defaults to the last snapshot time")
	cmd.Flags().Float64Var(&step, "step", 0, "Time step; defaults to a hundredth of the interval")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Stop after this many steps")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Seeds traced concurrently; defaults to the number of CPUs")
	cmd.Flags().BoolVar(&full, "full", false, "Print every path sample")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show live per-seed progress on stderr")
	return cmd
}

// traceWithProgress runs the trace while a TUI on stderr follows its events.
// Interrupting the TUI cancels the trace.
func (c *CLI) traceWithProgress(cmd *cobra.Command, req app.TraceRequest) ([]app.TraceResult, error) {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Two events per seed, so sends never block once the TUI has quit.
	events := make(chan app.TraceEvent, 2*len(req.Seeds))
	req.Observe = func(ev app.TraceEvent) { events <- ev }

	prog := tea.NewProgram(
		tui.NewModel(events, req.Seeds),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
	)
	uiDone := make(chan error, 1)
	go func() {
		_, err := prog.Run()
		if err != nil {
			cancel()
		}
		uiDone <- err
	}()

	results, err := c.app.Trace(ctx, c.runPath, req)
	close(events)
	if uiErr := <-uiDone; err == nil && uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		err = uiErr
	}
	return results, err
}
