package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIntegrityScan audits the ledger for mirror and total anomalies.
	TaskIntegrityScan = "ledger:integrity_scan"
	// TaskIdempotencyCleanup prunes old Idempotency-Key records.
	TaskIdempotencyCleanup = "ledger:idempotency_cleanup"
)

// IntegrityScanPayload tags a scan with what triggered it.
type IntegrityScanPayload struct {
	Trigger string `json:"trigger"`
	// FailOnAnomaly makes the task fail, and so retry and surface in the
	// queue's failure counts, when anything is found.
	FailOnAnomaly bool `json:"fail_on_anomaly,omitempty"`
}

// NewIntegrityScanTask constructs an Asynq task.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	if payload.Trigger == "" {
		payload.Trigger = "manual"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntegrityScan, data, asynq.MaxRetry(2), asynq.Timeout(10*time.Minute)), nil
}

// IdempotencyCleanupPayload bounds how long processed keys are kept.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.MaxRetry(1)), nil
}
