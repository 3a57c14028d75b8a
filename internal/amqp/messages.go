package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bills/internal/core"
)

// EventKind names a bill change.
type EventKind string

const (
	BillCreated EventKind = "bill.created"
	BillUpdated EventKind = "bill.updated"
	BillDeleted EventKind = "bill.deleted"
)

// BillPayload is the wire form of a bill. Dates travel as RFC 3339 timestamps.
type BillPayload struct {
	ID         string    `json:"id"`
	Place      string    `json:"place"`
	Date       time.Time `json:"date"`
	Label      string    `json:"label"`
	PriceCents int64     `json:"price_cents"`
	Note       string    `json:"note,omitempty"`
}

// BillEvent carries the full bill state after the change; deletions carry the removed bill.
// EventID identifies one change across redeliveries.
type BillEvent struct {
	EventID   string      `json:"event_id"`
	Kind      EventKind   `json:"kind"`
	Bill      BillPayload `json:"bill"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewBillEvent(kind EventKind, b core.Bill) BillEvent {
	return BillEvent{
		EventID: uuid.NewString(),
		Kind:    kind,
		Bill: BillPayload{
			ID:         b.ID,
			Place:      b.Place,
			Date:       b.Date,
			Label:      string(b.Label),
			PriceCents: b.Price.Cents,
			Note:       b.Note,
		},
		Timestamp: time.Now(),
	}
}

func (e BillEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BillEventFromJSON decodes and validates an event body.
func BillEventFromJSON(data []byte) (BillEvent, error) {
	var e BillEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return BillEvent{}, err
	}
	switch e.Kind {
	case BillCreated, BillUpdated, BillDeleted:
	default:
		return BillEvent{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.EventID == "" || e.Bill.ID == "" {
		return BillEvent{}, fmt.Errorf("event without id")
	}
	return e, nil
}

// ToBill converts the payload back to a bill with its date in loc.
func (p BillPayload) ToBill(loc *time.Location) (core.Bill, error) {
	label, err := core.ParseLabel(p.Label)
	if err != nil {
		return core.Bill{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return core.Bill{
		ID:    p.ID,
		Place: p.Place,
		Date:  p.Date.In(loc),
		Label: label,
		Price: core.Money{Cents: p.PriceCents},
		Note:  p.Note,
	}, nil
}
