package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// passwordResetPayload matches the JSON enqueued by TaskEnqueuer.EnqueueSendPasswordReset.
type passwordResetPayload struct {
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}

// approvalNoticePayload matches the JSON enqueued by TaskEnqueuer.EnqueueApprovalNotice.
type approvalNoticePayload struct {
	ProjectID  string `json:"project_id"`
	VersionID  string `json:"version_id"`
	ApprovedBy string `json:"approved_by"`
}

// reviewReminderPayload matches the JSON enqueued by TaskEnqueuer.EnqueueReviewReminder.
type reviewReminderPayload struct {
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
	ReviewURL string `json:"review_url"`
}

// folderInvitePayload matches the JSON enqueued by TaskEnqueuer.EnqueueFolderInvite.
type folderInvitePayload struct {
	FolderID  string `json:"folder_id"`
	Email     string `json:"email"`
	UploadURL string `json:"upload_url"`
}

// Worker runs Asynq task handlers for the notification emails.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log zerolog.Logger
}

// NewWorker creates an Asynq server and registers handlers. Call Run() to start.
func NewWorker(redisOpt asynq.RedisClientOpt, log zerolog.Logger) *Worker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		LogLevel:    asynq.InfoLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, log: log}
	mux.HandleFunc(TypeSendPasswordReset, w.handleSendPasswordReset)
	mux.HandleFunc(TypeSendApprovalNotice, w.handleSendApprovalNotice)
	mux.HandleFunc(TypeSendReviewReminder, w.handleSendReviewReminder)
	mux.HandleFunc(TypeSendFolderInvite, w.handleSendFolderInvite)
	return w
}

func (w *Worker) handleSendPasswordReset(ctx context.Context, t *asynq.Task) error {
	var p passwordResetPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("password reset task payload invalid")
		return err
	}
	// Dev: log the link; production would send email via SMTP/sendgrid etc.
	w.log.Info().
		Str("email", p.Email).
		Str("reset_url", p.ResetURL).
		Msg("password reset email (log only; configure SMTP for real email)")
	return nil
}

func (w *Worker) handleSendApprovalNotice(ctx context.Context, t *asynq.Task) error {
	var p approvalNoticePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("approval notice task payload invalid")
		return err
	}
	w.log.Info().
		Str("project_id", p.ProjectID).
		Str("version_id", p.VersionID).
		Str("approved_by", p.ApprovedBy).
		Msg("approval notice email (log only; configure SMTP for real email)")
	return nil
}

func (w *Worker) handleSendReviewReminder(ctx context.Context, t *asynq.Task) error {
	var p reviewReminderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("review reminder task payload invalid")
		return err
	}
	w.log.Info().
		Str("project_id", p.ProjectID).
		Str("email", p.Email).
		Str("review_url", p.ReviewURL).
		Msg("review reminder email (log only; configure SMTP for real email)")
	return nil
}

func (w *Worker) handleSendFolderInvite(ctx context.Context, t *asynq.Task) error {
	var p folderInvitePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		w.log.Error().Err(err).Msg("folder invite task payload invalid")
		return err
	}
	w.log.Info().
		Str("folder_id", p.FolderID).
		Str("email", p.Email).
		Str("upload_url", p.UploadURL).
		Msg("folder invite email (log only; configure SMTP for real email)")
	return nil
}

// Run blocks until shutdown. Use Shutdown for graceful stop.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
