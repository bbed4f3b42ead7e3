package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductPurgeRefs removes a deleted product from every wishlist and cart.
	TaskProductPurgeRefs = "product:purge_refs"
	// TaskProductPurgeOrphans sweeps references to products that no longer exist.
	TaskProductPurgeOrphans = "product:purge_orphans"
)

// ProductPurgePayload identifies the deleted product.
type ProductPurgePayload struct {
	ProductID string `json:"product_id"`
}

// OrphanSweepPayload carries scheduling metadata.
type OrphanSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewProductPurgeTask constructs the per-product cleanup task. The task ID is
// derived from the product so duplicate enqueues collapse.
func NewProductPurgeTask(productID string) (*asynq.Task, error) {
	if productID == "" {
		return nil, errors.New("jobs: product id required")
	}
	body, err := json.Marshal(ProductPurgePayload{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductPurgeRefs, body,
		asynq.Queue(QueueDefault),
		asynq.TaskID(TaskProductPurgeRefs+":"+productID),
		asynq.MaxRetry(5),
	), nil
}

// NewOrphanSweepTask constructs the periodic orphan sweep task.
func NewOrphanSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OrphanSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductPurgeOrphans, body, asynq.Queue(QueueDefault)), nil
}
