// Package worker applies bill change events to the audit trail and the Sheets mirror.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bills/internal/amqp"
	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/storage"
)

// Event handling outcomes, used as the metrics result label.
const (
	ResultOK        = "ok"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

// Auditor appends events to the audit trail. RecordEvent reports false for an
// event ID that is already recorded.
type Auditor interface {
	RecordEvent(ctx context.Context, e storage.AuditEvent) (bool, error)
}

// Mirror keeps a copy of the ledger keyed by bill ID. Both calls are idempotent.
type Mirror interface {
	Upsert(ctx context.Context, b core.Bill) (string, error)
	Delete(ctx context.Context, id string) error
}

// Consumer delivers events until ctx is done. A handler error requeues the event.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, amqp.BillEvent) error) error
}

// SyncWorker handles bill events from AMQP
type SyncWorker struct {
	audit   Auditor
	mirror  Mirror
	metrics *metrics.Metrics
	logger  *log.Logger
	loc     *time.Location
}

type Options struct {
	// Mirror is optional; without it only the audit trail is written.
	Mirror   Mirror
	Metrics  *metrics.Metrics
	Logger   *log.Logger
	Location *time.Location
}

func NewSyncWorker(audit Auditor, o Options) *SyncWorker {
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return &SyncWorker{
		audit:   audit,
		mirror:  o.Mirror,
		metrics: o.Metrics,
		logger:  o.Logger.WithComponent(log.ComponentWorker),
		loc:     o.Location,
	}
}

// Run consumes events until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Sync worker started", "mirror", w.mirror != nil)
	return c.Consume(ctx, w.Handle)
}

// Handle applies e to the mirror first and then records it. A failed mirror call
// returns an error before anything is recorded, so the redelivery retries both.
// Redelivered events reach the mirror again and are counted as duplicates.
// Events whose bill cannot be decoded are dropped, since a retry cannot fix them.
func (w *SyncWorker) Handle(ctx context.Context, e amqp.BillEvent) error {
	result := ResultError
	defer func() {
		if w.metrics != nil {
			w.metrics.EventsHandled.WithLabelValues(string(e.Kind), result).Inc()
		}
	}()

	b, err := e.Bill.ToBill(w.loc)
	if err != nil {
		result = ResultInvalid
		w.logger.ErrorContext(ctx, "Dropping event with invalid bill",
			log.FieldEventID, e.EventID,
			log.FieldBillID, e.Bill.ID,
			log.FieldError, err.Error())
		return nil
	}
	if err := w.applyToMirror(ctx, e.Kind, b); err != nil {
		return err
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.EventID, err)
	}
	inserted, err := w.audit.RecordEvent(ctx, storage.AuditEvent{
		EventID:    e.EventID,
		Kind:       string(e.Kind),
		BillID:     e.Bill.ID,
		Payload:    payload,
		OccurredAt: e.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("audit event %s: %w", e.EventID, err)
	}

	result = ResultOK
	if !inserted {
		result = ResultDuplicate
		w.logger.DebugContext(ctx, "Event already recorded", log.FieldEventID, e.EventID)
		return nil
	}
	w.logger.InfoContext(ctx, "Bill event handled",
		log.FieldEventID, e.EventID,
		log.FieldOperation, string(e.Kind),
		log.FieldBillID, e.Bill.ID)
	return nil
}

func (w *SyncWorker) applyToMirror(ctx context.Context, kind amqp.EventKind, b core.Bill) error {
	if w.mirror == nil {
		return nil
	}
	if kind == amqp.BillDeleted {
		if err := w.mirror.Delete(ctx, b.ID); err != nil {
			return fmt.Errorf("mirror delete %s: %w", b.ID, err)
		}
		return nil
	}
	ref, err := w.mirror.Upsert(ctx, b)
	if err != nil {
		return fmt.Errorf("mirror upsert %s: %w", b.ID, err)
	}
	w.logger.DebugContext(ctx, "Bill mirrored", log.FieldBillID, b.ID, "range", ref)
	return nil
}
