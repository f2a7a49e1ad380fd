package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendNotification is the task type for delivering tenant notices.
	TaskTypeSendNotification = "notify:send"
)

// SendNotificationPayload describes a message queued for a tenant.
type SendNotificationPayload struct {
	TenantID int64  `json:"tenant_id"`
	Channel  string `json:"channel"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// NewSendNotificationTask constructs an Asynq task.
func NewSendNotificationTask(payload SendNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendNotification, data), nil
}

// HandleSendNotificationTask processes TaskTypeSendNotification tasks.
func HandleSendNotificationTask(ctx context.Context, t *asynq.Task) error {
	var payload SendNotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/WhatsApp gateway in phase 2.
	fmt.Printf("[jobs] notify tenant=%d channel=%s subject=%s\n", payload.TenantID, payload.Channel, payload.Subject)
	return nil
}
