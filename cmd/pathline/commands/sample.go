package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.trai.ch/pathline/internal/app"
)

func (c *CLI) newSampleCmd() *cobra.Command {
	var (
		times  []float64
		points []string
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample fields at every given time and point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(times) == 0 || len(points) == 0 {
				return errors.New("sample needs at least one --time and one --point")
			}
			pts, err := parsePoints(points)
			if err != nil {
				return err
			}

			report, err := c.app.Sample(cmd.Context(), c.runPath, app.SampleRequest{
				Times:  times,
				Points: pts,
				Fields: fields,
			})
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			for _, r := range report.Results {
				pairs := []string{"t", formatFloat(r.Time), "p", formatPoint(r.Point)}
				for k, name := range report.Fields {
					pairs = append(pairs, name, formatValue(r.Values[k]))
				}
				p.line(pairs...)
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVarP(&times, "time", "t", nil, "Query time (repeatable)")
	cmd.Flags().StringArrayVarP(&points, "point", "p", nil, "Query point as x,y[,z] (repeatable)")
	cmd.Flags().StringSliceVarP(&fields, "field", "f", nil, "Field to sample; defaults to the run's fields")
	return cmd
}
