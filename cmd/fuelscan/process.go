package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmarulanda/fuelscan/constants"
	"github.com/dmarulanda/fuelscan/internal/entity"
	"github.com/dmarulanda/fuelscan/internal/provider"
)

func newProcessCmd(a *app) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Run one receipt through the extraction pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if ext := filepath.Ext(path); !constants.IsAllowedExt(ext) {
				return fmt.Errorf("extension %q is not an accepted receipt format", ext)
			}

			pipe, err := a.buildPipeline()
			if err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			res := pipe.Process(cmd.Context(), provider.Document{
				Content:  f,
				Filename: filepath.Base(path),
			})

			if save && res.Success {
				db, repo, err := a.openRepo(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				rec := entity.NewFillUp(filepath.Base(path), *res.Data, *res.Confidence)
				if err := repo.Save(cmd.Context(), rec); err != nil {
					return err
				}
				a.logger.Info("saved record", "id", rec.ID.String())
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("processing failed: %s", res.Error.Code)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "persist the extraction result to the database")
	return cmd
}
