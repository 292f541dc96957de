package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/trackroom/trackroom/internal/application/ports"
)

const (
	TypeSendPasswordReset  = "email:password_reset"
	TypeSendApprovalNotice = "email:approval_notice"
	TypeSendReviewReminder = "email:review_reminder"
	TypeSendFolderInvite   = "email:folder_invite"
)

// TaskEnqueuer puts notification tasks on Asynq. Callers treat enqueue
// failures as non-fatal; the warn log here is often the only trace.
type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

// NewAsynqEnqueuer builds an enqueuer over a Redis connection.
func NewAsynqEnqueuer(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *TaskEnqueuer {
	return &TaskEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueSendPasswordReset(ctx context.Context, email, resetURL string) error {
	payload, _ := json.Marshal(map[string]string{
		"email":     email,
		"reset_url": resetURL,
	})
	_, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeSendPasswordReset, payload))
	if err != nil {
		q.log.Warn().Err(err).Str("email", email).Msg("enqueue password reset email failed")
		return err
	}
	return nil
}

func (q *TaskEnqueuer) EnqueueApprovalNotice(ctx context.Context, projectID, versionID, approvedBy string) error {
	payload, _ := json.Marshal(map[string]string{
		"project_id":  projectID,
		"version_id":  versionID,
		"approved_by": approvedBy,
	})
	_, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeSendApprovalNotice, payload))
	if err != nil {
		q.log.Warn().Err(err).Str("project_id", projectID).Msg("enqueue approval notice failed")
		return err
	}
	return nil
}

func (q *TaskEnqueuer) EnqueueReviewReminder(ctx context.Context, projectID, email, reviewURL string) error {
	payload, _ := json.Marshal(map[string]string{
		"project_id": projectID,
		"email":      email,
		"review_url": reviewURL,
	})
	_, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeSendReviewReminder, payload))
	if err != nil {
		q.log.Warn().Err(err).Str("project_id", projectID).Msg("enqueue review reminder failed")
		return err
	}
	return nil
}

func (q *TaskEnqueuer) EnqueueFolderInvite(ctx context.Context, folderID, email, uploadURL string) error {
	payload, _ := json.Marshal(map[string]string{
		"folder_id":  folderID,
		"email":      email,
		"upload_url": uploadURL,
	})
	_, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeSendFolderInvite, payload))
	if err != nil {
		q.log.Warn().Err(err).Str("folder_id", folderID).Msg("enqueue folder invite failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
