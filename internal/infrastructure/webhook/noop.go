package webhook

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/ports"
)

// NoopEmitter drops every event. Used when no webhook URL is configured.
type NoopEmitter struct{}

func NewNoopEmitter() *NoopEmitter { return &NoopEmitter{} }

func (*NoopEmitter) Emit(context.Context, ports.AuditEvent) error { return nil }

var _ ports.WebhookEmitter = (*NoopEmitter)(nil)
