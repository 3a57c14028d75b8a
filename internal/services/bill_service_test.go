package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"bills/internal/amqp"
	"bills/internal/core"
	"bills/internal/log"
	"bills/internal/metrics"
	"bills/internal/store"
	"bills/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.BillEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.BillEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type countingStore struct {
	store.Store
	mu    sync.Mutex
	lists int
}

func (s *countingStore) List(ctx context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return s.Store.List(ctx)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func price(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func newTestService(t *testing.T, pub Publisher) (*BillService, *countingStore, *metrics.Metrics) {
	t.Helper()
	st := &countingStore{Store: memory.New()}
	m := metrics.New()
	var buf bytes.Buffer
	svc := NewBillService(st, Options{
		Publisher: pub,
		Metrics:   m,
		Logger:    log.New(log.Config{Format: log.FormatJSON, Output: &buf}),
		NewID:     seqIDs(),
	})
	return svc, st, m
}

func TestAddBatchStoresPricedItemsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _, m := newTestService(t, pub)
	ctx := context.Background()

	form := core.NewBatchForm(day(8))
	form.Place = "Store"
	form.Set(core.Food, price(1250), "")
	form.Set(core.Daily, price(0), "free sample")

	bills, err := svc.AddBatch(ctx, form)
	if err != nil {
		t.Fatalf("add batch: %v", err)
	}
	if len(bills) != 2 || bills[0].ID != "id-1" || bills[1].Label != core.Daily {
		t.Fatalf("unexpected bills: %+v", bills)
	}
	if len(pub.events) != 2 || pub.events[0].Kind != amqp.BillCreated || pub.events[0].Bill.ID != "id-1" {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
	if got := testutil.ToFloat64(m.BillChanges.WithLabelValues(log.OpCreate, "food")); got != 1 {
		t.Fatalf("create metric = %v", got)
	}

	empty, err := svc.AddBatch(ctx, core.NewBatchForm(day(8)))
	if err != nil || empty != nil {
		t.Fatalf("empty batch must store nothing: %v %v", empty, err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _, m := newTestService(t, pub)
	ctx := context.Background()

	form := core.NewBatchForm(day(8))
	form.Set(core.Food, price(100), "")
	if _, err := svc.AddBatch(ctx, form); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("bill must be stored, got %d", len(list))
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues("error")); got != 1 {
		t.Fatalf("failed publish metric = %v", got)
	}
}

func TestListIsCachedAndInvalidatedByWrites(t *testing.T) {
	svc, st, m := newTestService(t, nil)
	ctx := context.Background()

	svc.List(ctx)
	svc.List(ctx)
	if st.lists != 1 {
		t.Fatalf("store listed %d times, want 1", st.lists)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("cache hits = %v", got)
	}

	form := core.NewBatchForm(day(8))
	form.Set(core.Health, price(500), "")
	bills, _ := svc.AddBatch(ctx, form)

	list, _ := svc.List(ctx)
	if st.lists != 2 || len(list) != 1 {
		t.Fatalf("write must invalidate the cache: lists=%d len=%d", st.lists, len(list))
	}

	list[0].Place = "mutated"
	again, _ := svc.List(ctx)
	if again[0].Place == "mutated" {
		t.Fatalf("List must return a copy")
	}

	upd := bills[0]
	upd.Price = core.Money{Cents: 700}
	if err := svc.Update(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ = svc.List(ctx)
	if list[0].Price.Cents != 700 {
		t.Fatalf("stale read after update: %+v", list[0])
	}
}

func TestWeekAndChartTotals(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	for _, it := range []struct {
		d     int
		label core.Label
		cents int64
	}{{8, core.Food, 1000}, {10, core.Transport, 2500}, {15, core.Food, 700}} {
		form := core.NewBatchForm(day(it.d))
		form.Set(it.label, price(it.cents), "")
		if _, err := svc.AddBatch(ctx, form); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	sum, err := svc.Week(ctx, core.WeekOf(day(10)), core.LabelAll)
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if sum.Total.Cents != 3500 || len(sum.Bills) != 2 {
		t.Fatalf("week summary = %+v", sum)
	}

	totals, err := svc.ChartTotals(ctx)
	if err != nil {
		t.Fatalf("chart totals: %v", err)
	}
	if totals[0].Label != core.Transport || totals[1].Total.Cents != 1700 {
		t.Fatalf("chart totals must span every week: %+v", totals)
	}
}

func TestRemove(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _, _ := newTestService(t, pub)
	ctx := context.Background()

	form := core.NewBatchForm(day(8))
	form.Set(core.Food, price(100), "")
	form.Set(core.Others, price(200), "")
	bills, _ := svc.AddBatch(ctx, form)

	removed, err := svc.Remove(ctx, bills[0].ID)
	if err != nil || removed.ID != bills[0].ID {
		t.Fatalf("remove: %+v %v", removed, err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("length after remove = %d, want 1", len(list))
	}
	if last := pub.events[len(pub.events)-1]; last.Kind != amqp.BillDeleted {
		t.Fatalf("expected delete event, got %s", last.Kind)
	}
	if _, err := svc.Remove(ctx, bills[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second remove: %v", err)
	}
}

func TestClose(t *testing.T) {
	t.Run("no closers", func(t *testing.T) {
		svc := NewBillService(memory.New(), Options{})
		if err := svc.Close(); err != nil {
			t.Fatalf("Close with no resources: %v", err)
		}
	})

	t.Run("errors are joined", func(t *testing.T) {
		var closed []string
		svc := NewBillService(memory.New(), Options{Closers: []io.Closer{
			closerFunc(func() error { closed = append(closed, "a"); return errors.New("a failed") }),
			closerFunc(func() error { closed = append(closed, "b"); return nil }),
		}})
		err := svc.Close()
		if err == nil || !strings.Contains(err.Error(), "a failed") {
			t.Fatalf("expected joined error, got %v", err)
		}
		if strings.Join(closed, ",") != "a,b" {
			t.Fatalf("every closer must run in order: %v", closed)
		}
	})
}

// slowStore reads the ledger, then holds its first List call until release is closed.
type slowStore struct {
	store.Store
	first   sync.Once
	listed  chan struct{}
	release chan struct{}
}

func (s *slowStore) List(ctx context.Context) ([]core.Bill, error) {
	bills, err := s.Store.List(ctx)
	block := false
	s.first.Do(func() { block = true })
	if block {
		close(s.listed)
		<-s.release
	}
	return bills, err
}

func TestWriteDuringLoadIsVisibleToNextRead(t *testing.T) {
	st := &slowStore{Store: memory.New(), listed: make(chan struct{}), release: make(chan struct{})}
	svc := NewBillService(st, Options{
		Logger: log.New(log.Config{Format: log.FormatJSON, Output: io.Discard}),
		NewID:  seqIDs(),
	})
	ctx := context.Background()

	loaded := make(chan []core.Bill, 1)
	go func() {
		bills, _ := svc.List(ctx)
		loaded <- bills
	}()
	<-st.listed

	form := core.NewBatchForm(day(8))
	form.Set(core.Food, price(500), "")
	if _, err := svc.AddBatch(ctx, form); err != nil {
		t.Fatalf("add batch: %v", err)
	}
	close(st.release)
	if stale := <-loaded; len(stale) != 0 {
		t.Fatalf("load started before the write returned %d bills", len(stale))
	}

	bills, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("after the write List returned %d bills, want 1", len(bills))
	}
}
