// Package webhook holds the subscriber-facing side of domain events: the
// authorization policy, the wire payload shapes, and the background delivery
// scheduler.
package webhook

import "github.com/cimillas/ticket-office/internal/domain"

// Subject is anything a webhook can be notified about.
type Subject interface {
	OwningGroup() string
}

// Authorized decides whether the webhook may receive the subject: its scope
// must match the subject's owning group, unless it holds the universal admin
// scope.
func Authorized(hook domain.Webhook, subject Subject) bool {
	if hook.Scope == domain.ScopeAdmin {
		return true
	}
	return hook.Scope != "" && hook.Scope == subject.OwningGroup()
}
