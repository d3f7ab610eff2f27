package app

import (
	"context"
	"log"

	"github.com/cimillas/ticket-office/internal/clock"
	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/cimillas/ticket-office/internal/webhook"
	"github.com/google/uuid"
)

type WebhookRepository interface {
	ListActiveWebhooksByTrigger(ctx context.Context, trigger domain.WebhookTrigger) ([]domain.Webhook, error)
	CreateWebhookTask(ctx context.Context, task domain.WebhookTask) error
	CreateWebhook(ctx context.Context, hook domain.Webhook) error
	ListWebhooks(ctx context.Context) ([]domain.Webhook, error)
	DeleteWebhookByKey(ctx context.Context, key string) error
}

// WebhookService is the dispatcher: it fans a domain event out into one
// pending delivery task per authorized subscriber. Execution of those tasks
// belongs to the scheduler alone.
type WebhookService struct {
	repo   WebhookRepository
	clock  clock.Clock
	logger *log.Logger
}

func NewWebhookService(repo WebhookRepository, clk clock.Clock, logger *log.Logger) *WebhookService {
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookService{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

// Publish creates a pending delivery task for every active, subscribed and
// authorized webhook. Publishing never fails the triggering operation: every
// problem is logged and swallowed.
func (s *WebhookService) Publish(ctx context.Context, trigger domain.WebhookTrigger, subject webhook.Subject) {
	payload, err := webhook.Payload(trigger, subject)
	if err != nil {
		s.logger.Printf("webhook publish: trigger=%s: %v", trigger, err)
		return
	}

	hooks, err := s.repo.ListActiveWebhooksByTrigger(ctx, trigger)
	if err != nil {
		s.logger.Printf("webhook publish: trigger=%s list webhooks: %v", trigger, err)
		return
	}

	for _, hook := range hooks {
		if !webhook.Authorized(hook, subject) {
			continue
		}
		task := domain.WebhookTask{
			ID:        uuid.NewString(),
			Trigger:   trigger,
			WebhookID: hook.ID,
			Payload:   payload,
			Status:    domain.WebhookTaskStatusPending,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.CreateWebhookTask(ctx, task); err != nil {
			s.logger.Printf("webhook publish: trigger=%s webhook=%s create task: %v", trigger, hook.Key, err)
		}
	}
}

type CreateWebhookInput struct {
	PayloadURL string
	Secret     string
	Scope      string
	Active     bool
	Triggers   []domain.WebhookTrigger
}

func (s *WebhookService) CreateWebhook(ctx context.Context, in CreateWebhookInput) (domain.Webhook, error) {
	if in.PayloadURL == "" || in.Scope == "" {
		return domain.Webhook{}, domain.ErrInvalidID
	}

	hook := domain.Webhook{
		ID:         uuid.NewString(),
		Key:        uuid.NewString(),
		PayloadURL: in.PayloadURL,
		Secret:     in.Secret,
		Active:     in.Active,
		Scope:      in.Scope,
		Triggers:   in.Triggers,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.CreateWebhook(ctx, hook); err != nil {
		return domain.Webhook{}, err
	}
	return hook, nil
}

func (s *WebhookService) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	return s.repo.ListWebhooks(ctx)
}

func (s *WebhookService) DeleteWebhook(ctx context.Context, key string) error {
	return s.repo.DeleteWebhookByKey(ctx, key)
}
