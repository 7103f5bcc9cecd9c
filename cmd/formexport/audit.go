package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List recent export downloads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, v, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, v)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.audit.List(cmd.Context(), auditLimit, 0)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tACCOUNT\tFILENAME\tMESSAGE")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.CreatedAt.Format(time.RFC3339), entry.AccountName, entry.Filename, entry.Message)
		}
		return w.Flush()
	},
}

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of entries to show")
}
