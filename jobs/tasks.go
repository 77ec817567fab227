package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hisab-pos/hisab/internal/billing"
	jobmetrics "github.com/hisab-pos/hisab/internal/jobs"
	"github.com/hisab-pos/hisab/internal/loyalty"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSequenceRecovery heals primary-key sequences after restores.
	TaskSequenceRecovery = "maintenance:sequence_recovery"
	// TaskLoyaltyTierReview recomputes customer tiers for every tenant.
	TaskLoyaltyTierReview = "loyalty:tier_review"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SequenceRecoveryPayload carries the sequence recovery options.
type SequenceRecoveryPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewSequenceRecoveryTask constructs an Asynq task.
func NewSequenceRecoveryTask(payload SequenceRecoveryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSequenceRecovery, data), nil
}

// TierReviewPayload scopes a tier review run. A zero TenantID reviews all
// tenants.
type TierReviewPayload struct {
	TenantID int64 `json:"tenant_id,omitempty"`
}

// NewTierReviewTask constructs an Asynq task.
func NewTierReviewTask(payload TierReviewPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoyaltyTierReview, data), nil
}

// SequenceRecoveryJob advances table sequences past their MAX(id).
type SequenceRecoveryJob struct {
	Billing *billing.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSequenceRecoveryJob wires dependencies for the recovery handler.
func NewSequenceRecoveryJob(billingSvc *billing.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SequenceRecoveryJob {
	return &SequenceRecoveryJob{Billing: billingSvc, Logger: logger, Metrics: metrics}
}

// Handle processes sequence recovery tasks.
func (j *SequenceRecoveryJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Billing == nil {
		return errors.New("sequence recovery: handler not configured")
	}
	var payload SequenceRecoveryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskSequenceRecovery)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	if payload.Reason != "" {
		logger = logger.With(slog.String("reason", payload.Reason))
	}
	logger.Info("starting sequence recovery")

	if err := j.Billing.RecoverSequences(ctx); err != nil {
		resultErr = err
		logger.Error("recover sequences", slog.Any("error", err))
		return resultErr
	}
	logger.Info("completed sequence recovery")
	return resultErr
}

func (j *SequenceRecoveryJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSequenceRecovery))
	}
	return slog.Default().With(slog.String("job", TaskSequenceRecovery))
}

func (j *SequenceRecoveryJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// TierReviewJob recomputes loyalty tiers and backfills missing enrollments.
type TierReviewJob struct {
	Loyalty *loyalty.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewTierReviewJob wires dependencies for the tier review handler.
func NewTierReviewJob(loyaltySvc *loyalty.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *TierReviewJob {
	return &TierReviewJob{
		Loyalty: loyaltySvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes tier review tasks.
func (j *TierReviewJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Loyalty == nil {
		return errors.New("tier review: handler not configured")
	}
	var payload TierReviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLoyaltyTierReview)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	now := j.now()

	tenantIDs := []int64{payload.TenantID}
	if payload.TenantID == 0 {
		ids, err := j.Loyalty.TenantIDs(ctx)
		if err != nil {
			resultErr = err
			logger.Error("load tenants", slog.Any("error", err))
			return resultErr
		}
		tenantIDs = ids
	}

	logger.Info("starting tier review", slog.Int("tenants", len(tenantIDs)))
	for _, tenantID := range tenantIDs {
		// Give each tenant its own timeout so one slow tenant cannot
		// stall the whole run.
		tenantCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := j.Loyalty.ReviewTenantTiers(tenantCtx, tenantID, now)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("review tenant tiers", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
			return resultErr
		}
	}
	logger.Info("completed tier review", slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *TierReviewJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLoyaltyTierReview))
	}
	return slog.Default().With(slog.String("job", TaskLoyaltyTierReview))
}

func (j *TierReviewJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TierReviewJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
