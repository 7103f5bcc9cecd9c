package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpattn/formexport/internal/domain"
)

var exportAccount domain.Account

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one export synchronously and print the result as JSON",
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

		result, err := a.exports.Run(cmd.Context(), exportAccount)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportAccount.ID, "account-id", "0", "id of the requesting account")
	exportCmd.Flags().StringVar(&exportAccount.AccountName, "account-name", "cli", "name recorded in the audit log")
	exportCmd.Flags().StringVar(&exportAccount.Email, "email", "", "address the archive password is mailed to")
	exportCmd.Flags().StringVar(&exportAccount.Langcode, "langcode", "en", "language of the password email")
}
