package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/queue"
	"lexcora-checkout-api/services/email"
)

type Mailer interface {
	SendReceiptEmail(to string, receipt email.Receipt) error
	SendSalesNotification(subject, body string) error
}

type EventPublisher interface {
	Publish(event models.CheckoutEvent) error
}

// Worker drains the checkout job queue: receipts, sales notifications and
// lifecycle events.
type Worker struct {
	queue     *queue.Queue
	mailer    Mailer
	events    EventPublisher
	shutdown  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// DelayedInterval is how often due retries are moved back to the queue.
	DelayedInterval time.Duration
}

func NewWorker(q *queue.Queue, mailer Mailer, events EventPublisher) *Worker {
	return &Worker{
		queue:           q,
		mailer:          mailer,
		events:          events,
		shutdown:        make(chan struct{}),
		DelayedInterval: 10 * time.Second,
	}
}

func (w *Worker) Start(concurrency int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return
	}
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i)
	}

	w.wg.Add(1)
	go w.processDelayed()

	log.Printf("Started %d worker goroutines", concurrency)
}

// Stop signals the goroutines and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) processJobs(workerID int) {
	defer w.wg.Done()
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		job, err := w.queue.Dequeue(ctx, 5*time.Second)
		cancel()

		if err != nil {
			log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
			w.sleep(time.Second)
			continue
		}

		if job == nil {
			continue
		}

		log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)

		if jobErr := w.processJob(job); jobErr != nil {
			log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)
			if w.queue.IsLastAttempt(job) {
				log.Printf("Worker %d: job %s of type %s failed on its last attempt", workerID, job.ID, job.Type)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if failErr := w.queue.FailJob(ctx, job, jobErr); failErr != nil {
				log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, failErr)
			}
			cancel()
			continue
		}

		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		if completeErr := w.queue.CompleteJob(ctx, job); completeErr != nil {
			log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, completeErr)
		}
		cancel()
	}
}

func (w *Worker) processDelayed() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.DelayedInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if _, err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

// sleep waits for d unless the worker is stopping.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.shutdown:
	case <-time.After(d):
	}
}

func (w *Worker) processJob(job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeSendReceipt:
		return w.processSendReceipt(job)
	case queue.JobTypeNotifySales:
		return w.processNotifySales(job)
	case queue.JobTypePublishEvent:
		return w.processPublishEvent(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processSendReceipt(job *queue.Job) error {
	var p models.ReceiptPayload
	if err := job.Decode(&p); err != nil {
		return fmt.Errorf("invalid receipt job data: %v", err)
	}
	if p.Email == "" {
		return fmt.Errorf("invalid email in receipt job data")
	}

	log.Printf("Sending receipt for checkout %s", p.CheckoutID)

	return w.mailer.SendReceiptEmail(p.Email, email.Receipt{
		Name:      p.Name,
		TierName:  p.TierName,
		Cycle:     p.Cycle,
		Amount:    p.Amount,
		RenewalOn: p.RenewalOn,
		Reference: p.Reference,
		Language:  p.Language,
	})
}

func (w *Worker) processNotifySales(job *queue.Job) error {
	var p models.SalesPayload
	if err := job.Decode(&p); err != nil {
		return fmt.Errorf("invalid sales job data: %v", err)
	}
	if p.Subject == "" {
		return fmt.Errorf("invalid subject in sales job data")
	}

	return w.mailer.SendSalesNotification(p.Subject, email.RenderSalesNotification(p.Title, p.Fields))
}

func (w *Worker) processPublishEvent(job *queue.Job) error {
	var event models.CheckoutEvent
	if err := job.Decode(&event); err != nil {
		return fmt.Errorf("invalid event job data: %v", err)
	}
	return w.events.Publish(event)
}
