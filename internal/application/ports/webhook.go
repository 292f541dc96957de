package ports

import "context"

// AuditEvent is a single audit event for logging or webhooks.
type AuditEvent struct {
	Event     string // event type: project.approve, share.reset, token.issue, etc.
	ProjectID string
	ActorID   string
	IP        string
	Success   bool
	Err       string
}

// WebhookEmitter sends audit events to an external endpoint. Fire-and-forget
// from the caller's point of view: emit failures are logged, never escalated.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
