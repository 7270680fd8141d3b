package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and run pending guarded migrations",
		RunE:  runMigrate,
	}
	cmd.Flags().Bool("status", false, "list applied migrations without changing anything")
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	if e.backend.Schema == nil {
		fmt.Fprintf(out(cmd), "%s driver keeps no schema\n", e.backend.Driver)
		return nil
	}
	ctx := cmd.Context()
	if status, _ := cmd.Flags().GetBool("status"); !status {
		if err := e.backend.Bootstrap(ctx); err != nil {
			return err
		}
	}
	records, err := e.backend.Schema.Applied(ctx)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return json.NewEncoder(out(cmd)).Encode(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out(cmd), "no guarded migrations applied")
	}
	for _, r := range records {
		fmt.Fprintf(out(cmd), "%-40s %s\n", r.Name, r.ExecutedAt.Format(time.RFC3339))
	}
	return nil
}
