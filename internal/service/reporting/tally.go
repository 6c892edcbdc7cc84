package reporting

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/service/aggregation"
)

// SalesTally accumulates sales statistics for whoever owns it. Each consumer
// keeps its own tally; nothing is shared through package state.
type SalesTally struct {
	mu      sync.Mutex
	orders  int
	units   int
	revenue decimal.Decimal
	order   []string
	perItem map[string]*ItemSales
}

// ItemSales is the per-item part of a tally snapshot.
type ItemSales struct {
	ItemID   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Units    int             `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// TallySnapshot is a point-in-time copy of a tally.
type TallySnapshot struct {
	Orders  int             `json:"orders"`
	Units   int             `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
	Items   []ItemSales     `json:"items"`
}

// NewSalesTally returns an empty tally.
func NewSalesTally() *SalesTally {
	return &SalesTally{revenue: decimal.Zero, perItem: make(map[string]*ItemSales)}
}

// Record adds a committed sale.
func (t *SalesTally) Record(receipt models.SaleReceipt) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.orders++
	t.units += receipt.Quantity
	t.revenue = t.revenue.Add(receipt.Total)

	row, ok := t.perItem[receipt.ItemID]
	if !ok {
		row = &ItemSales{ItemID: receipt.ItemID, ItemName: receipt.ItemName, Revenue: decimal.Zero}
		t.perItem[receipt.ItemID] = row
		t.order = append(t.order, receipt.ItemID)
	}
	row.Units += receipt.Quantity
	row.Revenue = row.Revenue.Add(receipt.Total)
}

// RecordSale lets a tally sit behind the inventory service's sale hook.
func (t *SalesTally) RecordSale(_ context.Context, receipt models.SaleReceipt) error {
	t.Record(receipt)
	return nil
}

// Snapshot copies the tally. Items are ordered by units sold, highest first;
// ties keep the order items were first sold in.
func (t *SalesTally) Snapshot() TallySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	items := make([]ItemSales, 0, len(t.order))
	for _, id := range t.order {
		items = append(items, *t.perItem[id])
	}

	return TallySnapshot{
		Orders:  t.orders,
		Units:   t.units,
		Revenue: t.revenue,
		Items:   aggregation.TopN(items, func(a, b ItemSales) bool { return a.Units < b.Units }, len(items)),
	}
}

// Best returns the best-selling item, if any sale was recorded.
func (s TallySnapshot) Best() (ItemSales, bool) {
	if len(s.Items) == 0 {
		return ItemSales{}, false
	}
	return s.Items[0], true
}
