package domain

import "time"

// Event is the grouping a product sells tickets for. Event CRUD lives outside
// this service; the type exists as a webhook subject and for display.
type Event struct {
	ID    string
	Key   string
	Title string
	// Group is the organizing group, used for webhook authorization scoping.
	Group    string
	StartsAt time.Time
	EndsAt   time.Time
}

// OwningGroup implements the webhook subject scope.
func (e Event) OwningGroup() string {
	return e.Group
}
