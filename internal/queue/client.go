package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/genservices/internal/config"
	"github.com/nikhilbhutani/genservices/internal/voice"
)

// Completed tasks stay inspectable for this long.
const resultRetention = 24 * time.Hour

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{client: asynq.NewClient(RedisOpt(cfg))}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueVoiceSave schedules a save. Failures are not retried: synthesis is
// deterministic for the same input.
func (c *Client) EnqueueVoiceSave(ctx context.Context, req voice.SaveRequest) (*asynq.TaskInfo, error) {
	return c.enqueue(ctx, TypeVoiceSave, VoiceSavePayload{Request: req},
		asynq.Queue(QueueVoice),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Retention(resultRetention),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	info, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return info, nil
}
