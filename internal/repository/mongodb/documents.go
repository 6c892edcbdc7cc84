package mongodb

import (
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/repository"
)

var seqCounter atomic.Int64

// nextSeq mixes wall time with a counter so concurrent inserts stay ordered.
func nextSeq() int64 {
	now := time.Now().UnixNano()
	for {
		prev := seqCounter.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if seqCounter.CompareAndSwap(prev, next) {
			return next
		}
	}
}

type stockDocument struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Category    string               `bson:"category"`
	UnitPrice   primitive.Decimal128 `bson:"unit_price"`
	Quantity    int                  `bson:"quantity"`
	Description string               `bson:"description,omitempty"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newStockDocument(item models.StockItem) (stockDocument, error) {
	price, err := toDecimal128(item.UnitPrice)
	if err != nil {
		return stockDocument{}, err
	}
	return stockDocument{
		ID:          item.ID,
		Name:        item.Name,
		Category:    item.Category,
		UnitPrice:   price,
		Quantity:    item.Quantity,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}, nil
}

func (d stockDocument) toModel() (models.StockItem, error) {
	price, err := fromDecimal128(d.UnitPrice)
	if err != nil {
		return models.StockItem{}, err
	}
	return models.StockItem{
		ID:          d.ID,
		Name:        d.Name,
		Category:    d.Category,
		UnitPrice:   price,
		Quantity:    d.Quantity,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

type entryDocument struct {
	ID           string               `bson:"_id"`
	Date         time.Time            `bson:"date"`
	Amount       primitive.Decimal128 `bson:"amount"`
	Direction    string               `bson:"direction"`
	Category     string               `bson:"category"`
	Description  string               `bson:"description,omitempty"`
	DepartmentID string               `bson:"department_id"`
}

func newEntryDocument(entry models.LedgerEntry) (entryDocument, error) {
	amount, err := toDecimal128(entry.Amount)
	if err != nil {
		return entryDocument{}, err
	}
	return entryDocument{
		ID:           entry.ID,
		Date:         entry.Date,
		Amount:       amount,
		Direction:    string(entry.Direction),
		Category:     entry.Category,
		Description:  entry.Description,
		DepartmentID: entry.DepartmentID,
	}, nil
}

func (d entryDocument) toModel() (models.LedgerEntry, error) {
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return models.LedgerEntry{
		ID:           d.ID,
		Date:         d.Date,
		Amount:       amount,
		Direction:    models.Direction(d.Direction),
		Category:     d.Category,
		Description:  d.Description,
		DepartmentID: d.DepartmentID,
	}, nil
}

type departmentDocument struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	BudgetCeiling primitive.Decimal128 `bson:"budget_ceiling"`
}

func newDepartmentDocument(dept models.Department) (departmentDocument, error) {
	ceiling, err := toDecimal128(dept.BudgetCeiling)
	if err != nil {
		return departmentDocument{}, err
	}
	return departmentDocument{ID: dept.ID, Name: dept.Name, BudgetCeiling: ceiling}, nil
}

func (d departmentDocument) toModel() (models.Department, error) {
	ceiling, err := fromDecimal128(d.BudgetCeiling)
	if err != nil {
		return models.Department{}, err
	}
	return models.Department{ID: d.ID, Name: d.Name, BudgetCeiling: ceiling}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("convert decimal128 %s: %w", v, err)
	}
	return d, nil
}

func stockQuery(f repository.StockFilter) bson.M {
	q := bson.M{}
	if f.NameContains != "" {
		q["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.NameContains), Options: "i"}
	}
	if f.Category != "" {
		q["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Category) + "$", Options: "i"}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		if v, err := toDecimal128(*f.MinPrice); err == nil {
			price["$gte"] = v
		}
	}
	if f.MaxPrice != nil {
		if v, err := toDecimal128(*f.MaxPrice); err == nil {
			price["$lte"] = v
		}
	}
	if len(price) > 0 {
		q["unit_price"] = price
	}
	if f.BelowQuantity > 0 {
		q["quantity"] = bson.M{"$lt": f.BelowQuantity}
	}
	return q
}

func entryQuery(f repository.EntryFilter) bson.M {
	q := bson.M{}
	date := bson.M{}
	if !f.From.IsZero() {
		date["$gte"] = f.From
	}
	if !f.To.IsZero() {
		date["$lt"] = f.To
	}
	if len(date) > 0 {
		q["date"] = date
	}
	if f.DepartmentID != "" {
		q["department_id"] = f.DepartmentID
	}
	if f.Direction != "" {
		q["direction"] = string(f.Direction)
	}
	if f.CategoryContains != "" {
		q["category"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.CategoryContains), Options: "i"}
	}
	return q
}
