package cli

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/storeledger/jobs"
)

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background tasks",
	}
	trigger := &cobra.Command{
		Use:       "trigger <integrity>",
		Short:     "Enqueue a task for the worker",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"integrity"},
		RunE:      runJobsTrigger,
	}
	trigger.Flags().Bool("fail-on-anomaly", false, "fail the task when anomalies are found")
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the default queue counters",
		RunE:  runJobsStats,
	}
	cmd.AddCommand(trigger, stats)
	return cmd
}

func redisOpts(cmd *cobra.Command) (asynq.RedisClientOpt, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}, nil
}

func runJobsTrigger(cmd *cobra.Command, args []string) error {
	if args[0] != "integrity" {
		return fmt.Errorf("unsupported job %q", args[0])
	}
	opts, err := redisOpts(cmd)
	if err != nil {
		return err
	}
	client := jobs.NewClient(opts)
	defer client.Close()
	failOn, _ := cmd.Flags().GetBool("fail-on-anomaly")
	info, err := client.EnqueueIntegrityScan(cmd.Context(), jobs.IntegrityScanPayload{Trigger: "cli", FailOnAnomaly: failOn})
	if err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return nil
}

func runJobsStats(cmd *cobra.Command, _ []string) error {
	opts, err := redisOpts(cmd)
	if err != nil {
		return err
	}
	inspector := asynq.NewInspector(opts)
	defer inspector.Close()
	stats, err := jobs.Stats(inspector)
	if err != nil {
		return err
	}
	if jsonOutput(cmd) {
		return json.NewEncoder(out(cmd)).Encode(stats)
	}
	fmt.Fprintf(out(cmd), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d processed_today=%d failed_today=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived, stats.Processed, stats.Failed)
	return nil
}
