package jobs

import "github.com/hibiken/asynq"

// Schedule returns the cron registrations for the ledger tasks. An empty spec leaves
// that task unscheduled.
func Schedule(integrityCron, cleanupCron string) ([]CronRegistration, error) {
	var out []CronRegistration
	if integrityCron != "" {
		task, err := NewIntegrityScanTask(IntegrityScanPayload{Trigger: "cron"})
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: integrityCron, Task: task, Options: []asynq.Option{asynq.Queue(QueueDefault)}})
	}
	if cleanupCron != "" {
		task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{Retention: DefaultKeyRetention})
		if err != nil {
			return nil, err
		}
		out = append(out, CronRegistration{Spec: cleanupCron, Task: task, Options: []asynq.Option{asynq.Queue(QueueDefault)}})
	}
	return out, nil
}
