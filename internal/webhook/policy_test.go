package webhook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/ticket-office/internal/domain"
)

func TestAuthorized(t *testing.T) {
	t.Parallel()

	product := domain.Product{Key: "key-1", Group: "symposium"}

	cases := []struct {
		name  string
		scope string
		want  bool
	}{
		{"admin scope sees everything", domain.ScopeAdmin, true},
		{"matching group scope", "symposium", true},
		{"other group scope", "gala", false},
		{"empty scope", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hook := domain.Webhook{Scope: tc.scope}
			assert.Equal(t, tc.want, Authorized(hook, product))
		})
	}
}

func TestPayload(t *testing.T) {
	t.Parallel()

	product := domain.Product{
		Key:       "key-1",
		Title:     "Symposium Ticket",
		Group:     "symposium",
		Cost:      decimal.RequireFromString("15.00"),
		VATRate:   domain.VATRateHigh,
		SellStart: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		SellEnd:   time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
	}

	t.Run("product create update", func(t *testing.T) {
		raw, err := Payload(domain.TriggerProductCreateUpdate, product)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "key-1", got["key"])
		assert.Equal(t, "Symposium Ticket", got["title"])
		assert.Equal(t, "15.00", got["cost"])
		assert.Equal(t, "HIGH", got["vatRate"])
	})

	t.Run("product delete carries only the key", func(t *testing.T) {
		raw, err := Payload(domain.TriggerProductDelete, product)
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"key-1"}`, string(raw))
	})

	t.Run("event create update", func(t *testing.T) {
		event := domain.Event{Key: "ev-1", Title: "Spring Gala", Group: "gala"}
		raw, err := Payload(domain.TriggerEventCreateUpdate, event)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "ev-1", got["key"])
	})

	t.Run("mismatched subject has no serializer", func(t *testing.T) {
		_, err := Payload(domain.TriggerEventCreateUpdate, product)
		require.ErrorIs(t, err, ErrNoSerializer)
	})

	t.Run("unknown trigger has no serializer", func(t *testing.T) {
		_, err := Payload(domain.WebhookTrigger("ORDER_PAID"), product)
		require.ErrorIs(t, err, ErrNoSerializer)
	})
}
