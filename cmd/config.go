package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCmd manages the store's reserved config keys (spec.md §3),
// notably trim_dist, the meters trimmed from both ends of a track at
// ingest time. `import --trim` persists it here too, so uploads served
// later by `serve --upload` pick up the same trim distance.
func newConfigCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "config",
		Short: "Get or set reserved store config keys",
	}
	root.AddCommand(newConfigGetCmd())
	root.AddCommand(newConfigSetCmd())
	return root
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a config key's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			value, ok, err := st.GetConfig(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("(unset)")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config key's value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			return st.SetConfig(args[0], args[1])
		},
	}
}
