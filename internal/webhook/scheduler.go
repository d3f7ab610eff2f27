package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/cimillas/ticket-office/internal/monitoring"
)

// TaskStore is the persistence surface the scheduler drains.
type TaskStore interface {
	ListPendingDeliveries(ctx context.Context) ([]domain.WebhookDelivery, error)
	MarkTaskResult(ctx context.Context, taskID string, status domain.WebhookTaskStatus, detail string) error
}

// Deliverer performs one delivery attempt. The base implementation is
// strictly single-attempt.
type Deliverer interface {
	Deliver(ctx context.Context, hook domain.Webhook, payload []byte) error
}

// basicAuthUser is the username presented on every delivery; the webhook's
// shared secret is the password.
const basicAuthUser = "events"

const deliverTimeout = 15 * time.Second

// HTTPDeliverer posts the payload to the subscriber with basic auth. Any
// response other than 200 is a failed delivery carrying the response body.
type HTTPDeliverer struct {
	hc *http.Client
}

func NewHTTPDeliverer() *HTTPDeliverer {
	return &HTTPDeliverer{hc: &http.Client{Timeout: deliverTimeout}}
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, hook domain.Webhook, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.PayloadURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(basicAuthUser, hook.Secret)

	resp, err := d.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("subscriber returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Scheduler drains pending webhook tasks on a fixed interval. It runs as a
// single goroutine and a cycle always finishes before the next one starts, so
// cycles never overlap. Each task gets exactly one delivery attempt: the task
// ends SUCCESS or ERROR and is never re-queued.
type Scheduler struct {
	store     TaskStore
	deliverer Deliverer
	interval  time.Duration
	logger    *log.Logger
}

func NewScheduler(store TaskStore, deliverer Deliverer, interval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		store:     store,
		deliverer: deliverer,
		interval:  interval,
		logger:    logger,
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one drain of the pending tasks.
func (s *Scheduler) RunCycle(ctx context.Context) {
	deliveries, err := s.store.ListPendingDeliveries(ctx)
	if err != nil {
		s.logger.Printf("webhook scheduler: list pending tasks: %v", err)
		return
	}

	for _, delivery := range deliveries {
		status := domain.WebhookTaskStatusSuccess
		detail := ""

		if err := s.deliverer.Deliver(ctx, delivery.Hook, delivery.Task.Payload); err != nil {
			status = domain.WebhookTaskStatusError
			detail = err.Error()
			s.logger.Printf("webhook scheduler: task=%s webhook=%s delivery failed: %v",
				delivery.Task.ID, delivery.Hook.Key, err)
		}

		if err := s.store.MarkTaskResult(ctx, delivery.Task.ID, status, detail); err != nil {
			s.logger.Printf("webhook scheduler: task=%s mark result: %v", delivery.Task.ID, err)
			continue
		}
		monitoring.TrackWebhookDelivery(string(status))
	}
}
