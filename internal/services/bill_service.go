package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bills/internal/amqp"
	"bills/internal/cache"
	"bills/internal/chart"
	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/store"
)

const ledgerKey = "ledger"

// Publisher sends bill change events.
type Publisher interface {
	Publish(ctx context.Context, e amqp.BillEvent) error
}

// BillService orchestrates ledger reads and writes across the store, the read
// cache, AMQP events and metrics. Writes succeed once the store accepts them;
// event publishing failures are logged only.
type BillService struct {
	store     store.Store
	ledger    *cache.Loading[[]core.Bill]
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	newID     func() string
	closers   []io.Closer
}

type Options struct {
	// Cache holds the sorted ledger. Defaults to a one-entry LRU with a one minute TTL.
	Cache     cache.Cache[[]core.Bill]
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *log.Logger
	NewID     func() string
	// Closers are closed, in order, by Close.
	Closers []io.Closer
}

func NewBillService(s store.Store, o Options) *BillService {
	if o.Cache == nil {
		o.Cache = cache.NewLRUCache[[]core.Bill](1, time.Minute)
	}
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
	if o.NewID == nil {
		o.NewID = store.NewID
	}
	return &BillService{
		store:     s,
		ledger:    cache.NewLoading(o.Cache),
		publisher: o.Publisher,
		metrics:   o.Metrics,
		logger:    o.Logger.WithComponent(log.ComponentBills),
		newID:     o.NewID,
		closers:   o.Closers,
	}
}

// List returns every bill, newest first. The slice is the caller's to modify.
func (s *BillService) List(ctx context.Context) ([]core.Bill, error) {
	bills, hit, err := s.ledger.GetOrLoad(ledgerKey, func() ([]core.Bill, error) {
		return s.store.List(ctx)
	})
	if s.metrics != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return append([]core.Bill(nil), bills...), nil
}

func (s *BillService) Get(ctx context.Context, id string) (core.Bill, error) {
	return s.store.Get(ctx, id)
}

// Week filters the ledger to week w and label.
func (s *BillService) Week(ctx context.Context, w core.Week, label core.Label) (core.WeekSummary, error) {
	bills, err := s.List(ctx)
	if err != nil {
		return core.WeekSummary{}, err
	}
	return core.FilterWeek(bills, w, label), nil
}

// ChartTotals aggregates the whole ledger by label, largest first.
func (s *BillService) ChartTotals(ctx context.Context) ([]core.LabelTotal, error) {
	bills, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return chart.Totals(bills), nil
}

// AddBatch stores one bill per priced item of form. A form without prices stores nothing.
func (s *BillService) AddBatch(ctx context.Context, form core.BatchForm) ([]core.Bill, error) {
	bills := form.Bills(s.newID)
	if len(bills) == 0 {
		return nil, nil
	}
	if err := s.store.Append(ctx, bills...); err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}
	s.ledger.Invalidate()

	for _, b := range bills {
		s.changed(ctx, log.OpCreate, amqp.BillCreated, b)
	}
	return bills, nil
}

func (s *BillService) Update(ctx context.Context, b core.Bill) error {
	if err := s.store.Update(ctx, b); err != nil {
		return fmt.Errorf("save bill: %w", err)
	}
	s.ledger.Invalidate()
	s.changed(ctx, log.OpUpdate, amqp.BillUpdated, b)
	return nil
}

// Remove deletes the bill with id. A missing bill yields store.ErrNotFound.
func (s *BillService) Remove(ctx context.Context, id string) (core.Bill, error) {
	b, err := s.store.Remove(ctx, id)
	if err != nil {
		return core.Bill{}, err
	}
	s.ledger.Invalidate()
	s.changed(ctx, log.OpDelete, amqp.BillDeleted, b)
	return b, nil
}

// Ready reports whether the store answers a listing.
func (s *BillService) Ready(ctx context.Context) error {
	_, err := s.store.List(ctx)
	return err
}

func (s *BillService) changed(ctx context.Context, op string, kind amqp.EventKind, b core.Bill) {
	s.logger.InfoContext(ctx, "Bill changed",
		log.FieldOperation, op,
		log.FieldBillID, b.ID,
		log.FieldLabel, string(b.Label),
		log.FieldPriceCents, b.Price.Cents)
	if s.metrics != nil {
		s.metrics.BillChanges.WithLabelValues(op, string(b.Label)).Inc()
	}
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, amqp.NewBillEvent(kind, b))
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(metrics.Result(err)).Inc()
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish bill event",
			log.FieldBillID, b.ID,
			log.FieldOperation, op,
			log.FieldError, err)
	}
}

// Close closes every configured resource and joins their errors.
func (s *BillService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close bill service: %w", err)
	}
	return nil
}
