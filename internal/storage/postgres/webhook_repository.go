package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookRepository persists webhook subscriptions and their delivery tasks.
// Tasks are append-only from the dispatcher's side; only the scheduler flips
// their status, exactly once.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) CreateWebhook(ctx context.Context, hook domain.Webhook) error {
	const stmt = `
INSERT INTO webhooks (id, key, payload_url, secret, active, scope, triggers, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		hook.ID, hook.Key, hook.PayloadURL, hook.Secret,
		hook.Active, hook.Scope, triggerStrings(hook.Triggers), hook.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateWebhook
		}
		return fmt.Errorf("create webhook: %w", err)
	}
	return nil
}

func (r *WebhookRepository) ListWebhooks(ctx context.Context) ([]domain.Webhook, error) {
	const query = `
SELECT id, key, payload_url, secret, active, scope, triggers, created_at
FROM webhooks
ORDER BY created_at`

	return r.listWebhooks(ctx, query)
}

func (r *WebhookRepository) ListActiveWebhooksByTrigger(ctx context.Context, trigger domain.WebhookTrigger) ([]domain.Webhook, error) {
	const query = `
SELECT id, key, payload_url, secret, active, scope, triggers, created_at
FROM webhooks
WHERE active AND $1 = ANY(triggers)
ORDER BY created_at`

	return r.listWebhooks(ctx, query, string(trigger))
}

func (r *WebhookRepository) listWebhooks(ctx context.Context, query string, args ...any) ([]domain.Webhook, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []domain.Webhook
	for rows.Next() {
		var hook domain.Webhook
		var triggers []string
		if err := rows.Scan(
			&hook.ID, &hook.Key, &hook.PayloadURL, &hook.Secret,
			&hook.Active, &hook.Scope, &triggers, &hook.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		for _, t := range triggers {
			hook.Triggers = append(hook.Triggers, domain.WebhookTrigger(t))
		}
		hooks = append(hooks, hook)
	}
	return hooks, rows.Err()
}

func (r *WebhookRepository) DeleteWebhookByKey(ctx context.Context, key string) error {
	const stmt = `DELETE FROM webhooks WHERE key = $1`

	tag, err := r.exec(ctx, stmt, key)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWebhookNotFound
	}
	return nil
}

func (r *WebhookRepository) CreateWebhookTask(ctx context.Context, task domain.WebhookTask) error {
	const stmt = `
INSERT INTO webhook_tasks (id, trigger, webhook_id, payload, status, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		task.ID, task.Trigger, task.WebhookID, task.Payload,
		task.Status, nullString(task.Error), task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create webhook task: %w", err)
	}
	return nil
}

// ListPendingDeliveries returns every pending task joined with its target
// webhook, oldest first.
func (r *WebhookRepository) ListPendingDeliveries(ctx context.Context) ([]domain.WebhookDelivery, error) {
	const query = `
SELECT t.id, t.trigger, t.webhook_id, t.payload, t.status, t.created_at,
       w.id, w.key, w.payload_url, w.secret, w.active, w.scope, w.created_at
FROM webhook_tasks t
JOIN webhooks w ON w.id = t.webhook_id
WHERE t.status = 'PENDING'
ORDER BY t.created_at`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.WebhookDelivery
	for rows.Next() {
		var d domain.WebhookDelivery
		if err := rows.Scan(
			&d.Task.ID, &d.Task.Trigger, &d.Task.WebhookID, &d.Task.Payload, &d.Task.Status, &d.Task.CreatedAt,
			&d.Hook.ID, &d.Hook.Key, &d.Hook.PayloadURL, &d.Hook.Secret, &d.Hook.Active, &d.Hook.Scope, &d.Hook.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// MarkTaskResult records the delivery outcome. The guard on PENDING keeps the
// task mutate-once even if a cycle were ever to race itself.
func (r *WebhookRepository) MarkTaskResult(ctx context.Context, taskID string, status domain.WebhookTaskStatus, detail string) error {
	const stmt = `UPDATE webhook_tasks SET status = $2, error = $3 WHERE id = $1 AND status = 'PENDING'`

	tag, err := r.exec(ctx, stmt, taskID, status, nullString(detail))
	if err != nil {
		return fmt.Errorf("mark webhook task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWebhookTaskNotFound
	}
	return nil
}

func triggerStrings(triggers []domain.WebhookTrigger) []string {
	out := make([]string, 0, len(triggers))
	for _, t := range triggers {
		out = append(out, string(t))
	}
	return out
}

func (r *WebhookRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *WebhookRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
