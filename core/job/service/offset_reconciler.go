package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goto/salt/log"
	"github.com/kushsharma/parallel"
	"github.com/robfig/cron/v3"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/internal/errors"
	"github.com/goto/batchboard/internal/telemetry"
)

const (
	ReconcileTicketPerSec = 20
	ReconcileLimit        = 10

	reconcileTimeout = 5 * time.Minute

	// seconds from the start of an event until its last job is expected to finish
	MetricEventSpan = "job_event_span_seconds"
)

type EventLister interface {
	ListEventIDs(ctx context.Context) ([]job.EventID, error)
}

type Recomputer interface {
	Recompute(ctx context.Context, eventID job.EventID) (*EventPlan, error)
}

// OffsetReconciler periodically recomputes the offsets of every event, fixing
// rows written outside the service and reporting how many had drifted.
type OffsetReconciler struct {
	logger     log.Logger
	lister     EventLister
	recomputer Recomputer

	interval time.Duration
	schedule *cron.Cron
}

type ReconcileSummary struct {
	Events  int
	Failed  int
	Drifted int
}

func NewOffsetReconciler(logger log.Logger, lister EventLister, recomputer Recomputer, interval time.Duration) *OffsetReconciler {
	return &OffsetReconciler{
		logger:     logger,
		lister:     lister,
		recomputer: recomputer,
		interval:   interval,
		schedule: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
	}
}

func (r *OffsetReconciler) Initialize() error {
	_, err := r.schedule.AddFunc(fmt.Sprintf("@every %s", r.interval), r.reconcileLoop)
	if err != nil {
		return errors.InternalError(job.EntityJob, "unable to schedule offset reconciler", err)
	}
	r.schedule.Start()
	return nil
}

func (r *OffsetReconciler) Close() {
	<-r.schedule.Stop().Done()
}

func (r *OffsetReconciler) reconcileLoop() {
	ctx, cancelFn := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancelFn()

	summary, err := r.Reconcile(ctx)
	if err != nil {
		r.logger.Error("offset reconcile failed", "err", err)
		return
	}
	r.logger.Info("offset reconcile finished", "events", summary.Events, "failed", summary.Failed, "drifted", summary.Drifted)
}

// Reconcile recomputes every event. An event that cannot be planned is logged
// and skipped, only failing to list events is returned as error.
func (r *OffsetReconciler) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	eventIDs, err := r.lister.ListEventIDs(ctx)
	if err != nil {
		return ReconcileSummary{}, err
	}

	runner := parallel.NewRunner(parallel.WithTicket(ReconcileTicketPerSec), parallel.WithLimit(ReconcileLimit))
	for _, eventID := range eventIDs {
		runner.Add(func(id job.EventID) func() (interface{}, error) {
			return func() (interface{}, error) {
				plan, err := r.recomputer.Recompute(ctx, id)
				if err != nil {
					r.logger.Warn("unable to recompute event offsets", "event", id, "err", err)
					return nil, err
				}
				return plan, nil
			}
		}(eventID))
	}

	summary := ReconcileSummary{Events: len(eventIDs)}
	for _, result := range runner.Run() {
		if result.Err != nil {
			summary.Failed++
			continue
		}
		plan := result.Val.(*EventPlan)
		if len(plan.Drifted) > 0 {
			r.logger.Warn("event offsets drifted", "event", plan.EventID, "jobs", len(plan.Drifted))
		}
		summary.Drifted += len(plan.Drifted)

		telemetry.NewGauge(MetricEventSpan, map[string]string{"event": plan.EventID.String()}).Set(plan.Span())
	}
	job.OffsetDriftMetric.Add(float64(summary.Drifted))

	return summary, nil
}
