package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/storeledger/internal/app"
	"github.com/odyssey-erp/storeledger/internal/integrity"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Scan the ledger for mirror, total and sequence anomalies",
		RunE:  runCheck,
	}
	cmd.Flags().Bool("strict", false, "exit non-zero when anything is found")
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	services := app.NewServices(e.cfg, e.backend, app.ServiceDeps{Logger: e.logger})
	report, err := services.Checker.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if err := printReport(cmd, report); err != nil {
		return err
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict && !report.Clean() {
		return fmt.Errorf("%w: %d", ErrAnomalies, len(report.Anomalies))
	}
	return nil
}

func printReport(cmd *cobra.Command, report integrity.Report) error {
	w := out(cmd)
	if jsonOutput(cmd) {
		return json.NewEncoder(w).Encode(report)
	}
	if report.Clean() {
		fmt.Fprintln(w, "ledger is consistent")
		return nil
	}
	counts := report.Counts()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "%s: %d\n", k, counts[integrity.Kind(k)])
	}
	for _, a := range report.Anomalies {
		fmt.Fprintf(w, "  %-28s %-14s %s\n", a.Kind, a.Subject, a.Detail)
	}
	return nil
}
