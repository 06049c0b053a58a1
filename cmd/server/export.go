package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current dashboard to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.loadTasks(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			var buf bytes.Buffer
			if err := c.Services().Report.WriteWorkbook(ctx, &buf); err != nil {
				return err
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write workbook: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tasks to %s\n", len(c.Services().Tasks.Tasks()), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "tasks.xlsx", "output workbook path")
	return cmd
}
