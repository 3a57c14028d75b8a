// Package store defines the bill store port shared by the memory and sqlite backends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"bills/internal/core"
)

// ErrNotFound is returned when no bill has the requested ID.
var ErrNotFound = errors.New("bill not found")

type (
	// Reader lists bills. List is sorted by date, newest first; bills on the
	// same instant keep insertion order.
	Reader interface {
		List(ctx context.Context) ([]core.Bill, error)
		Get(ctx context.Context, id string) (core.Bill, error)
	}

	// Writer mutates the ledger. Append stores every bill or none.
	Writer interface {
		Append(ctx context.Context, bills ...core.Bill) error
		Update(ctx context.Context, b core.Bill) error
		Remove(ctx context.Context, id string) (core.Bill, error)
	}

	Store interface {
		Reader
		Writer
	}
)

// NewID returns a fresh bill identifier.
func NewID() string {
	return uuid.NewString()
}

// seedBill is the JSON shape of a seed record. Price is a decimal string.
type seedBill struct {
	ID    string `json:"id"`
	Place string `json:"place"`
	Date  string `json:"date"`
	Label string `json:"label"`
	Price string `json:"price"`
	Note  string `json:"note"`
}

// DecodeSeed reads a JSON array of bills. Missing IDs are generated.
func DecodeSeed(r io.Reader, loc *time.Location) ([]core.Bill, error) {
	var raw []seedBill
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	out := make([]core.Bill, 0, len(raw))
	for i, sb := range raw {
		date, err := core.ParseDate(sb.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		label, err := core.ParseLabel(sb.Label)
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		price, err := core.ParseMoney(sb.Price)
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		id := sb.ID
		if id == "" {
			id = NewID()
		}
		out = append(out, core.Bill{ID: id, Place: sb.Place, Date: date, Label: label, Price: price, Note: sb.Note})
	}
	return out, nil
}

// LoadSeedFile decodes the seed file at path. A missing file yields no bills.
func LoadSeedFile(path string, loc *time.Location) ([]core.Bill, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f, loc)
}
