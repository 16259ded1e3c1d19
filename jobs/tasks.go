package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceSync pulls new movements from the external financial system.
	TaskFinanceSync = "finance:sync"
	// TaskAssistantPrompt forwards a user question to the assistant backend.
	TaskAssistantPrompt = "assistant:prompt"
)

// FinanceSyncPayload parameterizes a sync run. Empty payloads are valid.
type FinanceSyncPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewFinanceSyncTask constructs a finance sync task.
func NewFinanceSyncTask(payload FinanceSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceSync, data), nil
}

// AssistantPromptPayload carries one user question.
type AssistantPromptPayload struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// NewAssistantPromptTask constructs an assistant prompt task.
func NewAssistantPromptTask(payload AssistantPromptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssistantPrompt, data), nil
}
