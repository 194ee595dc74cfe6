package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"equipment-rental-backend/internal/domain"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/metrics"
	"equipment-rental-backend/internal/repository"
)

// effects collects the activity produced inside one transaction. Nothing is
// dispatched until the transaction has committed.
type effects struct {
	actor    domain.Actor
	entries  []domain.ActivityEntry
	lowStock map[int32]*domain.Equipment
}

func newEffects(actor domain.Actor) *effects {
	return &effects{actor: actor, lowStock: map[int32]*domain.Equipment{}}
}

func (fx *effects) record(action, entity string, entityID int32, description string, metadata map[string]any) {
	if fx == nil {
		return
	}
	fx.entries = append(fx.entries, domain.ActivityEntry{
		TenantID:    fx.actor.TenantID,
		UserID:      fx.actor.UserID,
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Description: description,
		Metadata:    metadata,
	})
}

// touch remembers the latest counters of eq; the final state decides
// whether a low-stock signal is raised.
func (fx *effects) touch(eq *domain.Equipment) {
	if fx == nil {
		return
	}
	snapshot := *eq
	fx.lowStock[eq.ID] = &snapshot
}

func (fx *effects) flush(ctx context.Context, sink ActivityLogger) {
	if fx == nil || sink == nil {
		return
	}
	for _, e := range fx.entries {
		sink.Log(ctx, e)
	}
	for _, eq := range fx.lowStock {
		if !eq.IsLowStock() {
			continue
		}
		metrics.LowStockSignals.Inc()
		sink.Log(ctx, domain.ActivityEntry{
			TenantID:    fx.actor.TenantID,
			UserID:      fx.actor.UserID,
			Action:      domain.ActivityLowStock,
			Entity:      "equipment",
			EntityID:    eq.ID,
			Description: fmt.Sprintf("%s is below its minimum stock level (%d < %d)", eq.Name, eq.Stock.Available, eq.MinStockLevel),
			Metadata: map[string]any{
				"availableStock": eq.Stock.Available,
				"minStockLevel":  eq.MinStockLevel,
			},
		})
	}
}

type activityJob struct {
	entry   domain.ActivityEntry
	retries int
}

// ActivityQueue writes activity entries from a small worker pool so audit
// writes never sit on a request path or inside a booking transaction.
type ActivityQueue struct {
	repo       repository.ActivityRepository
	jobs       chan activityJob
	workers    int
	maxRetries int
	backoff    time.Duration
	wg         sync.WaitGroup
}

func NewActivityQueue(repo repository.ActivityRepository, workers, queueSize, maxRetries int) *ActivityQueue {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &ActivityQueue{
		repo:       repo,
		jobs:       make(chan activityJob, queueSize),
		workers:    workers,
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// Start launches the workers. They exit when ctx is cancelled, after
// draining whatever is already queued.
func (q *ActivityQueue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (q *ActivityQueue) Wait() {
	q.wg.Wait()
}

func (q *ActivityQueue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	logger.Debug("Activity worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			q.drain()
			logger.Debug("Activity worker stopping", "worker", id)
			return
		case job := <-q.jobs:
			q.process(context.WithoutCancel(ctx), job)
		}
	}
}

func (q *ActivityQueue) drain() {
	for {
		select {
		case job := <-q.jobs:
			job.retries = q.maxRetries
			q.process(context.Background(), job)
		default:
			return
		}
	}
}

func (q *ActivityQueue) process(ctx context.Context, job activityJob) {
	entry := job.entry
	if err := q.repo.Create(ctx, &entry); err != nil {
		if job.retries < q.maxRetries {
			job.retries++
			wait := time.Duration(job.retries*job.retries) * q.backoff
			logger.Warn("Activity write failed, retrying",
				"action", entry.Action, "entity", entry.Entity, "attempt", job.retries, "in", wait, "error", err)
			time.AfterFunc(wait, func() { q.enqueue(job) })
			return
		}
		metrics.ActivityDropped.Inc()
		logger.Error("Activity write failed, giving up",
			"action", entry.Action, "entity", entry.Entity, "entity_id", entry.EntityID, "error", err)
	}
}

// Log enqueues entry without blocking. A full queue drops the entry.
func (q *ActivityQueue) Log(ctx context.Context, entry domain.ActivityEntry) {
	if entry.CreatedOn.IsZero() {
		entry.CreatedOn = time.Now()
	}
	if !q.enqueue(activityJob{entry: entry}) {
		logger.FromContext(ctx).Warn("Activity queue full, dropping entry",
			"action", entry.Action, "entity", entry.Entity, "entity_id", entry.EntityID)
	}
}

func (q *ActivityQueue) enqueue(job activityJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		metrics.ActivityDropped.Inc()
		return false
	}
}
