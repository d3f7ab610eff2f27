package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cimillas/ticket-office/internal/app"
	"github.com/cimillas/ticket-office/internal/domain"
)

// AdminWebhookService is the minimal interface needed for admin webhook
// endpoints.
type AdminWebhookService interface {
	CreateWebhook(ctx context.Context, in app.CreateWebhookInput) (domain.Webhook, error)
	ListWebhooks(ctx context.Context) ([]domain.Webhook, error)
	DeleteWebhook(ctx context.Context, key string) error
}

// HandleAdminWebhooks returns an HTTP handler for POST/GET /admin/webhooks.
func HandleAdminWebhooks(svc AdminWebhookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			hooks, err := svc.ListWebhooks(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]webhookResponse, 0, len(hooks))
			for _, hook := range hooks {
				resp = append(resp, toWebhookResponse(hook))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			var req createWebhookRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.PayloadURL == "" {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "payload_url is required")
				return
			}
			if req.Scope == "" {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "scope is required")
				return
			}

			triggers := make([]domain.WebhookTrigger, 0, len(req.Triggers))
			for _, trigger := range req.Triggers {
				triggers = append(triggers, domain.WebhookTrigger(trigger))
			}

			hook, err := svc.CreateWebhook(r.Context(), app.CreateWebhookInput{
				PayloadURL: req.PayloadURL,
				Secret:     req.Secret,
				Scope:      req.Scope,
				Active:     req.Active,
				Triggers:   triggers,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toWebhookResponse(hook))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAdminWebhook returns an HTTP handler for DELETE /admin/webhooks/{key}.
func HandleAdminWebhook(svc AdminWebhookService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := parseAdminKeyPath(r.URL.Path, "webhooks")
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		if err := svc.DeleteWebhook(r.Context(), key); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type createWebhookRequest struct {
	PayloadURL string   `json:"payload_url"`
	Secret     string   `json:"secret,omitempty"`
	Scope      string   `json:"scope"`
	Active     bool     `json:"active"`
	Triggers   []string `json:"triggers"`
}

type webhookResponse struct {
	Key        string    `json:"key"`
	PayloadURL string    `json:"payload_url"`
	Scope      string    `json:"scope"`
	Active     bool      `json:"active"`
	Triggers   []string  `json:"triggers"`
	CreatedAt  time.Time `json:"created_at"`
}

func toWebhookResponse(hook domain.Webhook) webhookResponse {
	triggers := make([]string, 0, len(hook.Triggers))
	for _, trigger := range hook.Triggers {
		triggers = append(triggers, string(trigger))
	}
	return webhookResponse{
		Key:        hook.Key,
		PayloadURL: hook.PayloadURL,
		Scope:      hook.Scope,
		Active:     hook.Active,
		Triggers:   triggers,
		CreatedAt:  hook.CreatedAt,
	}
}
