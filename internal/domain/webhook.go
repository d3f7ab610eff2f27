package domain

import "time"

type WebhookTrigger string

const (
	TriggerEventCreateUpdate   WebhookTrigger = "EVENT_CREATE_UPDATE"
	TriggerEventDelete         WebhookTrigger = "EVENT_DELETE"
	TriggerProductCreateUpdate WebhookTrigger = "PRODUCT_CREATE_UPDATE"
	TriggerProductDelete       WebhookTrigger = "PRODUCT_DELETE"
)

// ScopeAdmin is the universal scope: a webhook holding it receives subjects
// from every organizing group.
const ScopeAdmin = "admin"

// Webhook is a subscriber endpoint. Secret is the shared basic-auth secret
// presented on every delivery; Scope restricts which subjects it may receive.
type Webhook struct {
	ID         string
	Key        string
	PayloadURL string
	Secret     string
	Active     bool
	Scope      string
	Triggers   []WebhookTrigger
	CreatedAt  time.Time
}

// SubscribesTo reports whether the webhook subscribed to the trigger.
func (w Webhook) SubscribesTo(trigger WebhookTrigger) bool {
	for _, t := range w.Triggers {
		if t == trigger {
			return true
		}
	}
	return false
}

type WebhookTaskStatus string

const (
	WebhookTaskStatusPending WebhookTaskStatus = "PENDING"
	WebhookTaskStatusSuccess WebhookTaskStatus = "SUCCESS"
	WebhookTaskStatusError   WebhookTaskStatus = "ERROR"
)

// WebhookTask is one delivery unit. The dispatcher creates it PENDING; the
// scheduler flips it exactly once to SUCCESS or ERROR. Tasks are never
// deleted, they are the delivery audit trail.
type WebhookTask struct {
	ID        string
	Trigger   WebhookTrigger
	WebhookID string
	Payload   []byte
	Status    WebhookTaskStatus
	Error     string
	CreatedAt time.Time
}

// WebhookDelivery pairs a pending task with its target webhook for the
// scheduler.
type WebhookDelivery struct {
	Task WebhookTask
	Hook Webhook
}
