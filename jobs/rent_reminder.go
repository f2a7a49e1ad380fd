package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rentdesk/rentdesk/internal/billing"
	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
	"github.com/rentdesk/rentdesk/internal/tenants"
)

const (
	// TaskRentReminder triggers the monthly rent reminder sweep.
	TaskRentReminder = "billing:rent_reminder"
)

// RentReminderPayload carries scheduling metadata.
type RentReminderPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewRentReminderTask constructs an Asynq task for the rent reminder sweep.
func NewRentReminderTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(RentReminderPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRentReminder, body, asynq.Queue(QueueDefault)), nil
}

// NotificationEnqueuer queues notices for delivery.
type NotificationEnqueuer interface {
	EnqueueSendNotification(ctx context.Context, payload SendNotificationPayload) (*asynq.TaskInfo, error)
}

// RentReminderJob notifies active tenants that still owe rent for the
// current period.
type RentReminderJob struct {
	Tenants  *tenants.Service
	Billing  *billing.Service
	Notifier NotificationEnqueuer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	printer  *message.Printer
}

// NewRentReminderJob initialises the rent reminder handler.
func NewRentReminderJob(tenantSvc *tenants.Service, billingSvc *billing.Service, notifier NotificationEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *RentReminderJob {
	return &RentReminderJob{
		Tenants:  tenantSvc,
		Billing:  billingSvc,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  metrics,
		printer:  message.NewPrinter(language.English),
	}
}

// Handle executes the reminder sweep.
func (j *RentReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("rent reminder: handler not configured")
	}
	var payload RentReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskRentReminder)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	active, err := j.Tenants.List(ctx, tenants.ListFilter{Status: tenants.StatusActive})
	if err != nil {
		resultErr = err
		return resultErr
	}

	reminded := 0
	for _, tenant := range active {
		period, err := j.Billing.CurrentPeriodFor(ctx, tenant.ID)
		if err != nil {
			if errors.Is(err, billing.ErrNoActivePeriod) {
				continue
			}
			j.logger().Warn("resolve period", slog.Int64("tenant_id", tenant.ID), slog.Any("error", err))
			continue
		}
		status, err := j.Billing.RentStatusFor(ctx, tenant.ID, period)
		if err != nil {
			j.logger().Warn("load rent status", slog.Int64("tenant_id", tenant.ID), slog.Any("error", err))
			continue
		}
		if status.RemainingAmount <= 0 {
			continue
		}
		due, err := j.Billing.NextDueDateFor(ctx, tenant.ID)
		if err != nil {
			due = status.DueAt
		}
		notice := SendNotificationPayload{
			TenantID: tenant.ID,
			Channel:  "email",
			Subject:  fmt.Sprintf("Rent reminder for %s", period),
			Body: j.printer.Sprintf("You have %.2f outstanding for %s, due on %s.",
				status.RemainingAmount, period, due.Format("2 January 2006")),
		}
		if _, err := j.Notifier.EnqueueSendNotification(ctx, notice); err != nil {
			j.logger().Error("enqueue reminder", slog.Int64("tenant_id", tenant.ID), slog.Any("error", err))
			continue
		}
		reminded++
	}
	j.Metrics.AddReminders("email", reminded)
	j.logger().Info("completed rent reminder sweep",
		slog.Int("active_tenants", len(active)),
		slog.Int("reminded", reminded),
	)
	return resultErr
}

func (j *RentReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
