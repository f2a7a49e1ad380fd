package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
	"github.com/rentdesk/rentdesk/internal/tenants"
	"github.com/rentdesk/rentdesk/internal/units"
)

const (
	// TaskOccupancyAudit checks occupied units against tenant lifecycle state.
	TaskOccupancyAudit = "units:occupancy_audit"
)

// OccupancyAuditPayload carries scheduling metadata.
type OccupancyAuditPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOccupancyAuditTask constructs an Asynq task for the occupancy audit.
func NewOccupancyAuditTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OccupancyAuditPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOccupancyAudit, body, asynq.Queue(QueueDefault)), nil
}

// OccupancyAuditJob flags units still marked occupied whose tenant is no
// longer active.
type OccupancyAuditJob struct {
	Units   *units.Service
	Tenants *tenants.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOccupancyAuditJob initialises the occupancy audit handler.
func NewOccupancyAuditJob(unitSvc *units.Service, tenantSvc *tenants.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *OccupancyAuditJob {
	return &OccupancyAuditJob{Units: unitSvc, Tenants: tenantSvc, Logger: logger, Metrics: metrics}
}

// Handle executes the audit.
func (j *OccupancyAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("occupancy audit: handler not configured")
	}
	var payload OccupancyAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskOccupancyAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	occupied, err := j.Units.List(ctx, units.ListFilter{Occupancy: units.OccupancyOccupied})
	if err != nil {
		resultErr = err
		return resultErr
	}

	stale := 0
	for _, unit := range occupied {
		if unit.TenantID == 0 {
			j.logger().Warn("occupied unit without tenant", slog.Int64("unit_id", unit.ID), slog.String("code", unit.Code))
			stale++
			continue
		}
		tenant, err := j.Tenants.Get(ctx, unit.TenantID)
		if err != nil {
			j.logger().Warn("occupied unit with unknown tenant",
				slog.Int64("unit_id", unit.ID), slog.Int64("tenant_id", unit.TenantID))
			stale++
			continue
		}
		if tenant.Status != tenants.StatusActive {
			j.logger().Warn("occupied unit held by inactive tenant",
				slog.Int64("unit_id", unit.ID),
				slog.Int64("tenant_id", tenant.ID),
				slog.String("tenant_status", string(tenant.Status)),
			)
			stale++
		}
	}

	j.logger().Info("completed occupancy audit",
		slog.Int("occupied", len(occupied)),
		slog.Int("stale", stale),
	)
	return resultErr
}

func (j *OccupancyAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
