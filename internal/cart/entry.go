package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// Product is the display metadata the catalog returns. The cart only ever
// looks at ID.
type Product struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Image      string `json:"image"`
}

type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// Entry is one cart line. Product fields are flattened next to amount in
// the snapshot, the same shape the storefront has always stored.
type Entry struct {
	Product
	Amount int `json:"amount"`
}

// EncodeSnapshot serialises entries in cart order. An empty cart is "[]".
func EncodeSnapshot(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

// DecodeSnapshot is the inverse of EncodeSnapshot. Empty input is an empty
// cart; anything that breaks the one-line-per-product or amount >= 1
// invariants is ErrCorruptSnapshot.
func DecodeSnapshot(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if entries == nil {
		return []Entry{}, nil
	}

	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.Amount < 1 {
			return nil, fmt.Errorf("%w: product %d has amount %d", ErrCorruptSnapshot, e.ID, e.Amount)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: product %d listed twice", ErrCorruptSnapshot, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return entries, nil
}

func indexOf(entries []Entry, productID int) int {
	for i := range entries {
		if entries[i].ID == productID {
			return i
		}
	}
	return -1
}

func TotalAmount(entries []Entry) int {
	var n int
	for _, e := range entries {
		n += e.Amount
	}
	return n
}

func TotalCents(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.PriceCents * int64(e.Amount)
	}
	return total
}
