package queue

import (
	"context"

	"github.com/trackroom/trackroom/internal/application/ports"
)

// NoopEnqueuer is a no-op enqueuer when Redis/Asynq is not configured.
type NoopEnqueuer struct{}

func NewNoopEnqueuer() *NoopEnqueuer {
	return &NoopEnqueuer{}
}

func (q *NoopEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	return nil
}

func (q *NoopEnqueuer) EnqueueApprovalNotice(ctx context.Context, projectID, versionID, approvedBy string) error {
	return nil
}

func (q *NoopEnqueuer) EnqueueReviewReminder(ctx context.Context, projectID, email, reviewURL string) error {
	return nil
}

func (q *NoopEnqueuer) EnqueueFolderInvite(ctx context.Context, folderID, email, uploadURL string) error {
	return nil
}

var _ ports.TaskEnqueuer = (*NoopEnqueuer)(nil)
