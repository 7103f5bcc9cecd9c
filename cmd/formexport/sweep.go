package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpattn/formexport/internal/config"
	"github.com/rpattn/formexport/internal/retention"
	"github.com/rpattn/formexport/internal/storage"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete export files older than export.tmp_files_max_age",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, v, err := loadConfig()
		if err != nil {
			return err
		}
		settings, err := config.NewSettingsStore(v)
		if err != nil {
			return err
		}
		roots := storage.DefaultRoots()
		for scheme, root := range cfg.Storage {
			roots[scheme] = root
		}

		deleted, err := retention.NewSweeper(storage.NewResolver(roots), settings, nil).Sweep(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired files\n", deleted)
		return err
	},
}
