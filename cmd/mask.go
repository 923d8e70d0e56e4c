package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hotpot/herr"
	"hotpot/mask"
)

func newMaskCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mask",
		Short: "Manage render-time exclusion zones",
	}
	root.AddCommand(newMaskAddCmd())
	root.AddCommand(newMaskRemoveCmd())
	root.AddCommand(newMaskListCmd())
	return root
}

func newMaskAddCmd() *cobra.Command {
	var latlng string
	var radius float64

	c := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a circular exclusion zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLng(latlng)
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			reg, err := mask.NewRegistry(st)
			if err != nil {
				return err
			}
			return reg.Add(args[0], lat, lon, radius)
		},
	}
	c.Flags().StringVar(&latlng, "latlng", "", "LAT,LON")
	c.Flags().Float64Var(&radius, "radius", 0, "radius in meters")
	c.MarkFlagRequired("latlng")
	c.MarkFlagRequired("radius")
	return c
}

func newMaskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an exclusion zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			reg, err := mask.NewRegistry(st)
			if err != nil {
				return err
			}
			return reg.Remove(args[0])
		},
	}
}

func newMaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List exclusion zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			reg, err := mask.NewRegistry(st)
			if err != nil {
				return err
			}
			for _, m := range reg.List() {
				fmt.Printf("%s\t%.6f,%.6f\t%.0fm\n", m.Name, m.Lat, m.Lon, m.RadiusM)
			}
			return nil
		},
	}
}

func parseLatLng(raw string) (lat, lon float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, herr.Parse("latlng", "latlng must be LAT,LON", nil)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, herr.Parse("latlng", "invalid latitude", err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, herr.Parse("latlng", "invalid longitude", err)
	}
	return lat, lon, nil
}
