package cmd

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hotpot/filter"
	"hotpot/geo"
	"hotpot/gradient"
	"hotpot/herr"
	"hotpot/render"
)

func newRenderCmd() *cobra.Command {
	var bounds string
	var width, height int
	var output string
	var gradientSpec string
	var filterExpr string

	c := &cobra.Command{
		Use:   "render",
		Short: "Render a geographic bbox to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseBoundsArg(bounds)
			if err != nil {
				return err
			}
			if width > 2000 || height > 2000 {
				return herr.Parse("width/height", "max dimension is 2000px", nil)
			}
			lut, err := gradient.ParseAndBuild(gradientSpec)
			if err != nil {
				return err
			}
			expr, err := filter.Parse(filterExpr)
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			png, err := render.Render(context.Background(), st, render.Request{
				Region:   render.Region{BBox: &render.BBoxTarget{Bounds: b, Width: width, Height: height}},
				Gradient: lut,
				Filter:   expr,
			})
			if err != nil {
				return err
			}
			return os.WriteFile(output, png, 0o644)
		},
	}

	c.Flags().StringVar(&bounds, "bounds", "", "W,S,E,N")
	c.Flags().IntVar(&width, "width", 0, "output width in pixels")
	c.Flags().IntVar(&height, "height", 0, "output height in pixels")
	c.Flags().StringVar(&output, "output", "out.png", "output PNG path")
	c.Flags().StringVar(&gradientSpec, "gradient", "heat", "gradient preset or stop list")
	c.Flags().StringVar(&filterExpr, "filter", "", "activity filter expression")
	c.MarkFlagRequired("bounds")
	c.MarkFlagRequired("width")
	c.MarkFlagRequired("height")
	return c
}

func parseBoundsArg(raw string) (geo.Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, herr.Parse("bounds", "bounds must be W,S,E,N", nil)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Bounds{}, herr.Parse("bounds", "bounds must be four numbers", err)
		}
		vals[i] = v
	}
	return geo.Bounds{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}
