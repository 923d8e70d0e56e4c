package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hotpot/ingest"
)

func newImportCmd() *cobra.Command {
	var joinCSV string
	var trimDist float64

	c := &cobra.Command{
		Use:   "import <dir>",
		Short: "Bulk-ingest a directory of GPX/TCX/FIT files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if cmd.Flags().Changed("trim") {
				if err := st.SetConfig("trim_dist", fmt.Sprintf("%g", trimDist)); err != nil {
					return err
				}
			}

			sum, err := ingest.Dir(context.Background(), st, args[0], trimDist, joinCSV, 0)
			if err != nil {
				return err
			}

			fmt.Printf("imported %d, skipped %d\n", sum.Imported, sum.Skipped)
			for _, fe := range sum.Errors {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", fe.Path, fe.Err)
			}
			return nil
		},
	}

	c.Flags().StringVar(&joinCSV, "join", "", "CSV file to merge metadata from (joined on file base name)")
	c.Flags().Float64Var(&trimDist, "trim", 0, "meters to trim from both ends of each track")
	return c
}
