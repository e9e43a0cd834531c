package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/reefdesk/reefdesk/internal/divepkg"
)

const defaultExpiryBatch = 500

// DivePackageExpiryJob marks Active punch cards past their end date as
// Expired.
type DivePackageExpiryJob struct {
	service *divepkg.Service
	logger  *slog.Logger
}

// NewDivePackageExpiryJob builds the expiry sweep handler.
func NewDivePackageExpiryJob(service *divepkg.Service, logger *slog.Logger) *DivePackageExpiryJob {
	return &DivePackageExpiryJob{service: service, logger: logger}
}

// Handle processes TaskDivePackageExpiry tasks.
func (j *DivePackageExpiryJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DivePackageExpiryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = defaultExpiryBatch
	}

	expired, err := j.service.ExpireOverdue(ctx, payload.BatchSize)
	if err != nil {
		j.logger.Error("dive package expiry sweep failed", slog.Any("error", err))
		return err
	}
	if expired > 0 {
		j.logger.Info("dive packages expired", slog.Int("count", expired))
	}
	return nil
}
