package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/vivenda-app/vivenda/internal/assistant"
	jobmetrics "github.com/vivenda-app/vivenda/internal/jobs"
)

// AssistantPromptJob delivers queued questions to the assistant backend.
type AssistantPromptJob struct {
	Client  *assistant.WebhookClient
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAssistantPromptJob initialises the assistant prompt handler.
func NewAssistantPromptJob(client *assistant.WebhookClient, logger *slog.Logger, metrics *jobmetrics.Metrics) *AssistantPromptJob {
	return &AssistantPromptJob{Client: client, Logger: logger, Metrics: metrics}
}

// Handle forwards one prompt to the webhook.
func (j *AssistantPromptJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Client == nil {
		return errors.New("assistant prompt: handler not configured")
	}
	var payload AssistantPromptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if strings.TrimSpace(payload.Text) == "" {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAssistantPrompt)
	err := j.Client.Send(ctx, assistant.Prompt{UserID: payload.UserID, Text: payload.Text})
	err = tracker.End(err)
	if err != nil {
		j.logger().Warn("assistant prompt delivery failed",
			slog.String("user_id", payload.UserID), slog.Any("error", err))
		return err
	}
	return nil
}

func (j *AssistantPromptJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
