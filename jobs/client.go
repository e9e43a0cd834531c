package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client submits tasks from the API process.
type Client struct {
	client *asynq.Client
}

// NewClient builds an enqueue-only client over the shared redis.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueCommissionRecompute queues a commission replay for one invoice.
func (c *Client) EnqueueCommissionRecompute(ctx context.Context, payload CommissionRecomputePayload) (*asynq.TaskInfo, error) {
	task, err := NewCommissionRecomputeTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// Close releases the underlying redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
