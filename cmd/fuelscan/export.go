package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarulanda/fuelscan/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out     string
		fromStr string
		toStr   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored fill-up records to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var from, to *time.Time
			if fromStr != "" {
				t, err := time.Parse("2006-01-02", fromStr)
				if err != nil {
					return fmt.Errorf("invalid --from date, use YYYY-MM-DD: %v", err)
				}
				from = &t
			}
			if toStr != "" {
				t, err := time.Parse("2006-01-02", toStr)
				if err != nil {
					return fmt.Errorf("invalid --to date, use YYYY-MM-DD: %v", err)
				}
				to = &t
			}

			db, repo, err := a.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			data, err := export.NewService(repo, a.logger).ExportXLSX(cmd.Context(), from, to)
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "tanqueos.xlsx", "output XLSX file path")
	cmd.Flags().StringVar(&fromStr, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "to date YYYY-MM-DD")
	return cmd
}
