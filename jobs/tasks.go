package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDivePackageExpiry sweeps overdue punch-card packages to Expired.
	TaskDivePackageExpiry = "divepkg:expiry_scan"
	// TaskCommissionRecompute re-derives an invoice's agent commission after
	// its items changed.
	TaskCommissionRecompute = "commission:recompute"
)

// DivePackageExpiryPayload bounds one expiry sweep.
type DivePackageExpiryPayload struct {
	BatchSize int `json:"batch_size"`
}

// NewDivePackageExpiryTask constructs an Asynq task for the expiry sweep.
func NewDivePackageExpiryTask(payload DivePackageExpiryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDivePackageExpiry, data), nil
}

// CommissionRecomputePayload names the invoice and agent to recompute.
type CommissionRecomputePayload struct {
	InvoiceID int64 `json:"invoice_id"`
	AgentID   int64 `json:"agent_id"`
}

// NewCommissionRecomputeTask constructs an Asynq task for a recompute.
func NewCommissionRecomputeTask(payload CommissionRecomputePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionRecompute, data), nil
}
