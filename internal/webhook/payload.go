package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cimillas/ticket-office/internal/domain"
)

// ErrNoSerializer means no wire shape is registered for the trigger and
// subject type pair. The dispatcher logs and skips it; it never aborts the
// operation that published the event.
var ErrNoSerializer = errors.New("no payload serializer registered")

type serializer func(subject Subject) (any, bool)

var serializers = map[domain.WebhookTrigger]serializer{
	domain.TriggerProductCreateUpdate: func(subject Subject) (any, bool) {
		product, ok := subject.(domain.Product)
		if !ok {
			return nil, false
		}
		return productPayload{
			Key:       product.Key,
			Title:     product.Title,
			Group:     product.Group,
			Cost:      product.Cost.StringFixed(2),
			VATRate:   string(product.VATRate),
			SellStart: product.SellStart,
			SellEnd:   product.SellEnd,
		}, true
	},
	domain.TriggerProductDelete: func(subject Subject) (any, bool) {
		product, ok := subject.(domain.Product)
		if !ok {
			return nil, false
		}
		return keyPayload{Key: product.Key}, true
	},
	domain.TriggerEventCreateUpdate: func(subject Subject) (any, bool) {
		event, ok := subject.(domain.Event)
		if !ok {
			return nil, false
		}
		return eventPayload{
			Key:      event.Key,
			Title:    event.Title,
			Group:    event.Group,
			StartsAt: event.StartsAt,
			EndsAt:   event.EndsAt,
		}, true
	},
	domain.TriggerEventDelete: func(subject Subject) (any, bool) {
		event, ok := subject.(domain.Event)
		if !ok {
			return nil, false
		}
		return keyPayload{Key: event.Key}, true
	},
}

// Payload serializes the subject into the wire shape for the trigger.
func Payload(trigger domain.WebhookTrigger, subject Subject) ([]byte, error) {
	serialize, ok := serializers[trigger]
	if !ok {
		return nil, fmt.Errorf("%w: trigger %s", ErrNoSerializer, trigger)
	}
	shape, ok := serialize(subject)
	if !ok {
		return nil, fmt.Errorf("%w: trigger %s, subject %T", ErrNoSerializer, trigger, subject)
	}
	return json.Marshal(shape)
}

type productPayload struct {
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Group     string    `json:"group"`
	Cost      string    `json:"cost"`
	VATRate   string    `json:"vatRate"`
	SellStart time.Time `json:"sellStart"`
	SellEnd   time.Time `json:"sellEnd"`
}

type eventPayload struct {
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	Group    string    `json:"group"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
}

type keyPayload struct {
	Key string `json:"key"`
}
