package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

type MailJob struct {
	Message Message
	Attempt int
}

type Worker struct {
	ID         int
	WorkerPool chan chan MailJob
	JobChannel chan MailJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan MailJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan MailJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(MailJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing mail job", "worker_id", w.ID, "subject", job.Message.Subject)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Client delivers emails through an HTTP mail API using a bounded worker
// pool. Delivery is best-effort: a full queue or a failed send is logged
// and dropped, never surfaced to the caller.
type Client struct {
	apiURL      string
	apiKey      string
	fromAddress string
	sendTimeout time.Duration
	logger      *slog.Logger

	jobQueue   chan MailJob
	workerPool chan chan MailJob
	maxWorkers int
	maxRetries int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	APIURL         string
	APIKey         string
	FromAddress    string
	SendTimeout    time.Duration
	MaxWorkers     int
	JobQueueSize   int
	WorkerPoolSize int
	MaxRetries     int
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	workerPoolSize := config.WorkerPoolSize
	if workerPoolSize <= 0 {
		workerPoolSize = maxWorkers
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	client := &Client{
		apiURL:      config.APIURL,
		apiKey:      config.APIKey,
		fromAddress: config.FromAddress,
		sendTimeout: sendTimeout,
		logger:      logger,

		maxWorkers: maxWorkers,
		maxRetries: maxRetries,
		jobQueue:   make(chan MailJob, jobQueueSize),
		workerPool: make(chan chan MailJob, workerPoolSize),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {

		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processMailJob)
		}

		go c.dispatch()

		c.logger.Info("mailer worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	defer c.wg.Done()
	c.wg.Add(1)

	for {
		select {
		case job := <-c.jobQueue:

			select {
			case jobChannel := <-c.workerPool:

				select {
				case jobChannel <- job:

				case <-c.ctx.Done():
					c.logger.Info("mail dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("mail dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down mailer client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mailer client shutdown complete")
}

// Send queues a message for delivery. A full queue drops the message so
// the approval flow never blocks on the mail provider.
func (c *Client) Send(msg Message) {
	if len(msg.To) == 0 {
		c.logger.Warn("mailer: dropping message with no recipients", "subject", msg.Subject)
		return
	}

	job := MailJob{Message: msg, Attempt: 1}

	select {
	case c.jobQueue <- job:
		c.logger.Info("mailer: message queued",
			"subject", msg.Subject,
			"recipients", len(msg.To),
			"queue_length", len(c.jobQueue))
	default:
		c.logger.Warn("mailer: job queue full, dropping message",
			"subject", msg.Subject,
			"queue_capacity", cap(c.jobQueue))
	}
}

func (c *Client) processMailJob(job MailJob) {
	if c.apiURL == "" {
		c.logger.Info("mailer: no API configured, logging message instead",
			"to", job.Message.To,
			"subject", job.Message.Subject)
		return
	}

	err := c.deliver(job.Message)
	if err == nil {
		c.logger.Info("mailer: message delivered",
			"subject", job.Message.Subject,
			"recipients", len(job.Message.To))
		return
	}

	c.logger.Error("mailer: delivery failed",
		"error", err,
		"subject", job.Message.Subject,
		"attempt", job.Attempt)

	if job.Attempt >= c.maxRetries {
		c.logger.Error("mailer: giving up on message",
			"subject", job.Message.Subject,
			"attempts", job.Attempt)
		return
	}

	select {
	case <-time.After(time.Duration(job.Attempt) * time.Second):
	case <-c.ctx.Done():
		return
	}

	job.Attempt++
	select {
	case c.jobQueue <- job:
	default:
		c.logger.Warn("mailer: queue full during retry, dropping message",
			"subject", job.Message.Subject)
	}
}

func (c *Client) deliver(msg Message) error {
	payload := map[string]interface{}{
		"from":    c.fromAddress,
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	client := &http.Client{Timeout: c.sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	return nil
}
