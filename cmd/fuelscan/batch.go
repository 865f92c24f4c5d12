package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmarulanda/fuelscan/constants"
	"github.com/dmarulanda/fuelscan/internal/async"
	"github.com/dmarulanda/fuelscan/internal/pipeline"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		workers int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every receipt in a directory and persist the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			pipe, err := a.buildPipeline()
			if err != nil {
				return err
			}
			db, repo, err := a.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			var (
				mu        sync.Mutex
				succeeded int
				failed    int
			)
			queue := async.NewPipelineQueue(pipe, repo, a.logger,
				async.WithWorkers(workers),
				async.WithProcessTimeout(timeout),
				async.WithResultHook(func(_ async.Job, res pipeline.Result) {
					mu.Lock()
					defer mu.Unlock()
					if res.Success {
						succeeded++
					} else {
						failed++
					}
				}),
			)

			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}
			queued := 0
			for _, e := range entries {
				if e.IsDir() || !constants.IsAllowedExt(filepath.Ext(e.Name())) {
					continue
				}
				job := async.Job{
					Path:        filepath.Join(dir, e.Name()),
					SubmittedAt: time.Now(),
					TraceID:     uuid.NewString(),
				}
				if err := queue.Enqueue(cmd.Context(), job); err != nil {
					return err
				}
				queued++
			}

			queue.Shutdown(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "processed %d receipts: %d succeeded, %d failed\n",
				queued, succeeded, failed)
			if failed > 0 {
				return fmt.Errorf("%d receipts failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "concurrent pipeline workers")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "per-receipt processing timeout")
	return cmd
}
