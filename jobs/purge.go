package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/storefront/storefront/internal/jobs"
)

// ReferenceStore removes product references from accounts.
type ReferenceStore interface {
	PurgeProduct(ctx context.Context, productID string) (int64, error)
	PurgeOrphanedReferences(ctx context.Context) (int64, error)
}

// PurgeJob handles the product reference cleanup tasks.
type PurgeJob struct {
	Store   ReferenceStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPurgeJob initialises the purge handlers.
func NewPurgeJob(store ReferenceStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeJob {
	return &PurgeJob{Store: store, Logger: logger, Metrics: metrics}
}

// HandleProduct processes TaskProductPurgeRefs.
func (j *PurgeJob) HandleProduct(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("purge: handler not configured")
	}
	var payload ProductPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ProductID == "" {
		return fmt.Errorf("purge: bad payload: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskProductPurgeRefs)
	defer func() { err = tracker.End(err) }()

	removed, err := j.Store.PurgeProduct(ctx, payload.ProductID)
	if err != nil {
		j.logger().Error("purge product references", slog.String("product_id", payload.ProductID), slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurged(TaskProductPurgeRefs, removed)
	j.logger().Info("purged product references",
		slog.String("product_id", payload.ProductID),
		slog.Int64("accounts", removed))
	return nil
}

// HandleOrphans processes TaskProductPurgeOrphans.
func (j *PurgeJob) HandleOrphans(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("purge: handler not configured")
	}
	tracker := j.Metrics.Track(TaskProductPurgeOrphans)
	defer func() { err = tracker.End(err) }()

	removed, err := j.Store.PurgeOrphanedReferences(ctx)
	if err != nil {
		j.logger().Error("purge orphaned references", slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurged(TaskProductPurgeOrphans, removed)
	if removed > 0 {
		j.logger().Info("purged orphaned references", slog.Int64("accounts", removed))
	}
	return nil
}

func (j *PurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
