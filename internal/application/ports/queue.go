package ports

import "context"

// TaskEnqueuer enqueues async notification tasks (email delivery is an
// external dispatcher; failures here are logged by callers, never escalated
// to fail the triggering operation).
type TaskEnqueuer interface {
	EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error
	EnqueueApprovalNotice(ctx context.Context, projectID, versionID, approvedBy string) error
	EnqueueReviewReminder(ctx context.Context, projectID, email, reviewURL string) error
	EnqueueFolderInvite(ctx context.Context, folderID, email, uploadURL string) error
}
