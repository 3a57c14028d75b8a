package google

import (
	"fmt"
	"strings"

	"bills/internal/core"
)

// BillRow renders b in Header column order.
func BillRow(b core.Bill) []any {
	return []any{b.ID, b.Date.Format(core.DateLayout), b.Place, string(b.Label), b.Price.String(), b.Note}
}

func rowOf(column [][]any, id string) int {
	for i, cells := range column {
		if i == 0 || len(cells) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cells[0])) == id {
			return i + 1
		}
	}
	return 0
}
