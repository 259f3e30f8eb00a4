// internal/models/assist.go
package models

import (
	"time"
)

// Assist modes select the system persona.
const (
	ModeProfessional = "professional"
	ModeCreative     = "creative"
)

// Assist result and task states
const (
	AssistSucceeded = "success"
	AssistFailed    = "failure"
	AssistRunning   = "running"
	AssistCancelled = "cancelled"
)

// AssistRequest AI 协作请求
type AssistRequest struct {
	Prompt string `json:"prompt"`
	Mode   string `json:"mode"`
	// APIKey overrides the configured key for this call only. It is passed
	// through unvalidated and never stored.
	APIKey string `json:"api_key,omitempty"`
}

// AssistResult is success(text) or failure(reason).
type AssistResult struct {
	Status string `json:"status"`
	Text   string `json:"text,omitempty"`
	Reason string `json:"reason,omitempty"`
	Model  string `json:"model,omitempty"`
}

// Succeeded reports whether the call produced text.
func (r AssistResult) Succeeded() bool {
	return r.Status == AssistSucceeded
}

// Display is what the response region shows: the text, or the failure notice.
func (r AssistResult) Display() string {
	if r.Succeeded() {
		return r.Text
	}
	return "Error: " + r.Reason
}

// AssistTaskView is the serializable state of an asynchronous assist call.
type AssistTaskView struct {
	ID         string        `json:"id"`
	Mode       string        `json:"mode"`
	Status     string        `json:"status"`
	Result     *AssistResult `json:"result,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}
