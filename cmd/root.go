// Package cmd is hotpot's CLI surface, spec.md §6: import, render,
// serve, mask, strava-auth. Grounded on the teacher's indirect
// github.com/spf13/cobra dependency (pulled in transitively through
// PocketBase's console tooling), promoted here to a direct,
// hand-authored command tree since PocketBase itself is dropped.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hotpot/internal/config"
	"hotpot/store"
)

var dbPath string

// Execute runs the hotpot CLI, returning the process exit code spec.md
// §6 requires: 0 on success, 1 on error.
func Execute() int {
	root := &cobra.Command{
		Use:   "hotpot",
		Short: "GPS activity heatmap tile server",
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: $HOTPOT_DB_PATH or hotpot.db)")

	root.AddCommand(newImportCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newMaskCmd())
	root.AddCommand(newStravaAuthCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// openStore resolves the effective database path (flag overrides
// environment) and opens it.
func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.Load().DBPath
	}
	return store.Open(path)
}
