package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newLocateCmd() *cobra.Command {
	var points []string
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Find the cell and interpolation weights of points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(points) == 0 {
				return errors.New("locate needs at least one --point")
			}
			pts, err := parsePoints(points)
			if err != nil {
				return err
			}

			results, err := c.app.Locate(cmd.Context(), c.runPath, pts)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			for _, r := range results {
				if !r.Found {
					p.line("p", formatPoint(r.Point), "cell", "outside")
					continue
				}
				ids := make([]string, len(r.Location.Points))
				weights := make([]string, len(r.Location.Weights))
				for i := range ids {
					ids[i] = strconv.Itoa(r.Location.Points[i])
					weights[i] = formatFloat(r.Location.Weights[i])
				}
				p.line(
					"p", formatPoint(r.Point),
					"cell", strconv.Itoa(r.Location.Cell),
					"points", "["+strings.Join(ids, " ")+"]",
					"weights", "["+strings.Join(weights, " ")+"]",
				)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&points, "point", "p", nil, "Point as x,y[,z] (repeatable)")
	return cmd
}
