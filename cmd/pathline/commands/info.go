package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the run geometry and time axis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := c.app.Info(cmd.Context(), c.runPath)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			p.line("geometry", info.Geometry.Kind().String(), "points", strconv.Itoa(info.Geometry.NumPoints()))
			p.line("min", formatPoint(info.Bounds.Min), "max", formatPoint(info.Bounds.Max))
			p.line("time", "["+formatFloat(info.Start)+", "+formatFloat(info.End)+"]", "snapshots", strconv.Itoa(info.Snapshots))
			p.line("stack", strconv.Itoa(info.Stack), "fields", strings.Join(info.Fields, ","), "strict", strconv.FormatBool(info.Strict))
			return nil
		},
	}
}
