package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"regis_chat_backend/models"
	"regis_chat_backend/platform/cache"
)

// IngestQueue is the Redis list consumed by the ingest worker.
const IngestQueue = "ingest"

type MessageQueueService struct {
	MQ cache.MessageQueue
}

func NewMessageService(mq cache.MessageQueue) *MessageQueueService {
	return &MessageQueueService{MQ: mq}
}

func (mq *MessageQueueService) PushToQueue(ctx context.Context, queueName string, value interface{}) error {
	return mq.MQ.PushToQueue(ctx, queueName, value)
}

func (mq *MessageQueueService) PopFromQueue(ctx context.Context, queueName string, timeout time.Duration) (string, error) {
	return mq.MQ.PopFromQueue(ctx, queueName, timeout)
}

func (mq *MessageQueueService) EnqueueIngest(ctx context.Context, job *models.IngestJob) error {
	return mq.PushToQueue(ctx, IngestQueue, job)
}

// NextIngest waits up to timeout for a job. It returns the underlying queue
// error (redis.ErrQueueEmpty on timeout).
func (mq *MessageQueueService) NextIngest(ctx context.Context, timeout time.Duration) (*models.IngestJob, error) {
	raw, err := mq.PopFromQueue(ctx, IngestQueue, timeout)
	if err != nil {
		return nil, err
	}
	var job models.IngestJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode ingest job: %w", err)
	}
	return &job, nil
}
