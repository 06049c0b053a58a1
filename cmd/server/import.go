package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/source"
)

func newImportCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy case records from a JSON export into the local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.startContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			records, err := source.NewFileSource(file, a.logger).FetchCaseRecords(ctx)
			if err != nil {
				return err
			}

			name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			now := time.Now().UTC()
			cases := make([]entity.CaseRecord, 0, len(records))
			for _, r := range records {
				task := c.Core().Processor.ProcessRawTaskData(r)
				cases = append(cases, entity.CaseRecord{
					ID:        task.ID,
					Source:    name,
					Payload:   r,
					FetchedAt: now,
				})
			}

			if err := c.Repositories().CaseRecords.Upsert(ctx, cases); err != nil {
				return err
			}
			total, err := c.Repositories().CaseRecords.Count(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records (%d stored)\n", len(cases), total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON export to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
