package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeSendReceipt  JobType = "send_receipt"
	JobTypeNotifySales  JobType = "notify_sales"
	JobTypePublishEvent JobType = "publish_event"
)

// MaxRetries is how many times a failed job is rescheduled before it lands
// in the failed list.
const MaxRetries = 5

var ErrJobNotFound = errors.New("job not found in failed queue")

type Job struct {
	ID         string                 `json:"id"`
	Type       JobType                `json:"type"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`

	// raw is the exact list member the job was dequeued as.
	raw string
}

// Decode copies the job data into v.
func (j *Job) Decode(v interface{}) error {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ToData turns a payload struct into job data.
func ToData(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %v", err)
	}
	data := map[string]interface{}{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("job payload must be an object: %v", err)
	}
	return data, nil
}

type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Failed     int64 `json:"failed"`
}

type Queue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string
}

func NewQueue(redisURL, queueName string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %v", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return NewQueueFromClient(client, queueName), nil
}

func NewQueueFromClient(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:     client,
		queueName:  queueName,
		processing: queueName + ":processing",
		delayed:    queueName + ":delayed",
		failed:     queueName + ":failed",
	}
}

func newJob(jobType JobType, data map[string]interface{}) Job {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) error {
	job := newJob(jobType, data)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %v", err)
	}

	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %v", err)
	}

	log.Printf("Enqueued job %s of type %s", job.ID, job.Type)
	return nil
}

// EnqueueDelayed schedules a job to run after delay.
func (q *Queue) EnqueueDelayed(ctx context.Context, jobType JobType, data map[string]interface{}, delay time.Duration) error {
	job := newJob(jobType, data)

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %v", err)
	}

	executeAt := time.Now().Add(delay)
	if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
		Score:  float64(executeAt.Unix()),
		Member: jobJSON,
	}).Err(); err != nil {
		return fmt.Errorf("failed to push delayed job to queue: %v", err)
	}

	log.Printf("Enqueued delayed job %s of type %s to execute at %s",
		job.ID, job.Type, executeAt.UTC().Format("2006-01-02 15:04:05"))
	return nil
}

// Dequeue blocks up to timeout. A nil job with a nil error means the queue
// stayed empty.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %v", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %v", err)
	}
	job.raw = result[1]
	if job.Data == nil {
		job.Data = map[string]interface{}{}
	}

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		log.Printf("Warning: Failed to move job %s to processing queue: %v", job.ID, err)
	}

	return &job, nil
}

func (q *Queue) member(job *Job) (string, error) {
	if job.raw != "" {
		return job.raw, nil
	}
	b, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %v", err)
	}
	return string(b), nil
}

func (q *Queue) CompleteJob(ctx context.Context, job *Job) error {
	member, err := q.member(job)
	if err != nil {
		return err
	}

	if err := q.client.LRem(ctx, q.processing, 1, member).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing queue: %v", err)
	}

	log.Printf("Completed job %s of type %s", job.ID, job.Type)
	return nil
}

// RetryDelay is the backoff before retry n (1-based): 15s doubling.
func RetryDelay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return time.Duration(15*(1<<(n-1))) * time.Second
}

// FailJob reschedules the job with exponential backoff, or parks it in the
// failed list once MaxRetries is exhausted.
func (q *Queue) FailJob(ctx context.Context, job *Job, cause error) error {
	member, err := q.member(job)
	if err != nil {
		return err
	}
	if err := q.client.LRem(ctx, q.processing, 1, member).Err(); err != nil {
		log.Printf("Warning: Failed to remove job %s from processing queue: %v", job.ID, err)
	}

	job.RetryCount++
	job.Data["last_error"] = cause.Error()
	job.Data["failed_at"] = time.Now().UTC()

	if job.RetryCount <= MaxRetries {
		delay := RetryDelay(job.RetryCount)
		retryAt := time.Now().Add(delay)

		job.Data["next_retry_at"] = retryAt.UTC()
		job.Data["is_last_attempt"] = job.RetryCount == MaxRetries

		updated, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %v", err)
		}

		if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
			Score:  float64(retryAt.Unix()),
			Member: updated,
		}).Err(); err != nil {
			log.Printf("Warning: Failed to add job to delayed queue, adding to failed queue: %v", err)
			if err := q.client.RPush(ctx, q.failed, updated).Err(); err != nil {
				return fmt.Errorf("failed to push job to failed queue: %v", err)
			}
			return nil
		}

		log.Printf("Job %s of type %s scheduled for retry %d/%d in %v",
			job.ID, job.Type, job.RetryCount, MaxRetries, delay)
		return nil
	}

	job.Data["all_retries_exhausted"] = true
	job.Data["final_failure_at"] = time.Now().UTC()
	final, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %v", err)
	}

	if err := q.client.RPush(ctx, q.failed, final).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %v", err)
	}

	log.Printf("Job %s of type %s moved to failed queue after %d retries", job.ID, job.Type, job.RetryCount)
	return nil
}

// ProcessDelayedJobs moves due delayed jobs back onto the main list and
// returns how many were moved.
func (q *Queue) ProcessDelayedJobs(ctx context.Context) (int, error) {
	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", time.Now().Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delayed jobs: %v", err)
	}

	moved := 0
	for _, jobJSON := range jobs {
		// ZRem first so two instances never both requeue the same member.
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			log.Printf("Warning: Failed to remove job from delayed queue: %v", err)
			continue
		}
		if removed == 0 {
			continue
		}

		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			log.Printf("Warning: Failed to move delayed job to main queue: %v", err)
			continue
		}
		moved++
	}

	if moved > 0 {
		log.Printf("Moved %d delayed jobs to main queue", moved)
	}
	return moved, nil
}

// RetryJob requeues a job from the failed list with its retry count reset.
func (q *Queue) RetryJob(ctx context.Context, jobID string) error {
	jobs, err := q.client.LRange(ctx, q.failed, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list failed jobs: %v", err)
	}

	for _, jobJSON := range jobs {
		var job Job
		if err := json.Unmarshal([]byte(jobJSON), &job); err != nil {
			log.Printf("Warning: Failed to unmarshal job: %v", err)
			continue
		}
		if job.ID != jobID {
			continue
		}

		if err := q.client.LRem(ctx, q.failed, 1, jobJSON).Err(); err != nil {
			return fmt.Errorf("failed to remove job from failed queue: %v", err)
		}

		job.RetryCount = 0
		if job.Data == nil {
			job.Data = map[string]interface{}{}
		}
		job.Data["manual_retry_at"] = time.Now().UTC()
		delete(job.Data, "all_retries_exhausted")
		delete(job.Data, "final_failure_at")
		delete(job.Data, "is_last_attempt")
		delete(job.Data, "next_retry_at")

		updated, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %v", err)
		}
		if err := q.client.RPush(ctx, q.queueName, updated).Err(); err != nil {
			return fmt.Errorf("failed to push job to main queue: %v", err)
		}

		log.Printf("Manually requeued job %s of type %s", job.ID, job.Type)
		return nil
	}

	return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
}

func (q *Queue) IsLastAttempt(job *Job) bool {
	if isLast, ok := job.Data["is_last_attempt"].(bool); ok {
		return isLast
	}
	return job.RetryCount >= MaxRetries
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, q.queueName)
	processing := pipe.LLen(ctx, q.processing)
	delayed := pipe.ZCard(ctx, q.delayed)
	failed := pipe.LLen(ctx, q.failed)
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to read queue stats: %v", err)
	}
	return Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
		Failed:     failed.Val(),
	}, nil
}

func (q *Queue) Client() *redis.Client {
	return q.client
}

func (q *Queue) Close() error {
	return q.client.Close()
}
