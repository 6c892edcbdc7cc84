package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/locking"
	"github.com/mamadbah2/stockledger/internal/observability/metrics"
	"github.com/mamadbah2/stockledger/internal/repository"
	"github.com/mamadbah2/stockledger/internal/service/guard"
)

const (
	maxNameLength        = 100
	maxCategoryLength    = 50
	maxDescriptionLength = 500
	maxNoteLength        = 200
	// MaxSellQuantity caps a single sell call.
	MaxSellQuantity = 1000

	defaultPageSize = 10
	maxPageSize     = 100
)

// SaleRecorder receives committed sales. Failures are logged, never surfaced.
type SaleRecorder interface {
	RecordSale(ctx context.Context, receipt models.SaleReceipt) error
}

// SaleRecorders fans a receipt out to every recorder. All recorders run even
// if one fails.
type SaleRecorders []SaleRecorder

// RecordSale implements SaleRecorder.
func (r SaleRecorders) RecordSale(ctx context.Context, receipt models.SaleReceipt) error {
	var errs []error
	for _, rec := range r {
		if err := rec.RecordSale(ctx, receipt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Service owns stock item mutations. Every quantity change for an item runs
// under that item's lock.
type Service struct {
	repo   repository.Store
	locks  *locking.KeyedMutex
	sales  SaleRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the inventory service. sales may be nil.
func NewService(repo repository.Store, locks *locking.KeyedMutex, sales SaleRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = locking.NewKeyedMutex()
	}
	return &Service{
		repo:   repo,
		locks:  locks,
		sales:  sales,
		logger: logger,
		now:    time.Now,
	}
}

// ItemInput carries the caller-editable fields of a stock item.
type ItemInput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
}

func (in ItemInput) validate() error {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	case len(name) > maxNameLength:
		return fmt.Errorf("%w: name must not exceed %d characters", models.ErrInvalidInput, maxNameLength)
	case category == "":
		return fmt.Errorf("%w: category is required", models.ErrInvalidInput)
	case len(category) > maxCategoryLength:
		return fmt.Errorf("%w: category must not exceed %d characters", models.ErrInvalidInput, maxCategoryLength)
	case in.UnitPrice.IsNegative():
		return fmt.Errorf("%w: unit price must not be negative", models.ErrInvalidInput)
	case in.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", models.ErrInvalidInput)
	case len(in.Description) > maxDescriptionLength:
		return fmt.Errorf("%w: description must not exceed %d characters", models.ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}

// Create stores a new item. A missing ID is generated.
func (s *Service) Create(ctx context.Context, in ItemInput) (models.StockItem, error) {
	if err := in.validate(); err != nil {
		return models.StockItem{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := s.repo.GetStockItem(ctx, id); err == nil {
		return models.StockItem{}, fmt.Errorf("%w: stock item %s already exists", models.ErrInvalidInput, id)
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.StockItem{}, fmt.Errorf("check stock item %s: %w", id, err)
	}

	now := s.now().UTC()
	item := models.StockItem{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		UnitPrice:   in.UnitPrice,
		Quantity:    in.Quantity,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.SaveStockItem(ctx, item); err != nil {
		return models.StockItem{}, fmt.Errorf("save stock item: %w", err)
	}

	s.logger.Info("stock item created", zap.String("item_id", item.ID), zap.Int("quantity", item.Quantity))
	return item, nil
}

// Get loads one item.
func (s *Service) Get(ctx context.Context, id string) (models.StockItem, error) {
	item, err := s.repo.GetStockItem(ctx, id)
	if err != nil {
		return models.StockItem{}, fmt.Errorf("load stock item %s: %w", id, err)
	}
	return item, nil
}

// Update replaces the editable fields of an existing item.
func (s *Service) Update(ctx context.Context, id string, in ItemInput) (models.StockItem, error) {
	if err := in.validate(); err != nil {
		return models.StockItem{}, err
	}

	unlock := s.locks.Lock(stockKey(id))
	defer unlock()

	item, err := s.repo.GetStockItem(ctx, id)
	if err != nil {
		return models.StockItem{}, fmt.Errorf("load stock item %s: %w", id, err)
	}

	item.Name = strings.TrimSpace(in.Name)
	item.Category = strings.TrimSpace(in.Category)
	item.UnitPrice = in.UnitPrice
	item.Quantity = in.Quantity
	item.Description = in.Description
	item.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveStockItem(ctx, item); err != nil {
		return models.StockItem{}, fmt.Errorf("save stock item: %w", err)
	}
	return item, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(stockKey(id))
	defer unlock()

	if err := s.repo.DeleteStockItem(ctx, id); err != nil {
		return fmt.Errorf("delete stock item %s: %w", id, err)
	}
	s.logger.Info("stock item deleted", zap.String("item_id", id))
	return nil
}

// Restock adds quantity units to an item.
func (s *Service) Restock(ctx context.Context, id string, quantity int) (models.StockItem, error) {
	if quantity <= 0 {
		return models.StockItem{}, models.ErrInvalidQuantity
	}

	unlock := s.locks.Lock(stockKey(id))
	defer unlock()

	item, err := s.repo.GetStockItem(ctx, id)
	if err != nil {
		return models.StockItem{}, fmt.Errorf("load stock item %s: %w", id, err)
	}

	item.Quantity += quantity
	item.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveStockItem(ctx, item); err != nil {
		return models.StockItem{}, fmt.Errorf("save stock item: %w", err)
	}

	s.logger.Info("stock item restocked", zap.String("item_id", id), zap.Int("added", quantity), zap.Int("quantity", item.Quantity))
	return item, nil
}

// Sell removes quantity units from an item. The stock check and the
// decrement happen under the item's lock, so concurrent sellers cannot
// oversell.
func (s *Service) Sell(ctx context.Context, id string, quantity int, note string) (receipt models.SaleReceipt, err error) {
	defer func() { metrics.ObserveSale(quantity, err) }()

	if quantity <= 0 {
		return models.SaleReceipt{}, models.ErrInvalidQuantity
	}
	if quantity > MaxSellQuantity {
		return models.SaleReceipt{}, fmt.Errorf("%w: at most %d units per sale", models.ErrInvalidQuantity, MaxSellQuantity)
	}
	if len(note) > maxNoteLength {
		return models.SaleReceipt{}, fmt.Errorf("%w: note must not exceed %d characters", models.ErrInvalidInput, maxNoteLength)
	}

	unlock := s.locks.Lock(stockKey(id))
	defer unlock()

	item, err := s.repo.GetStockItem(ctx, id)
	if err != nil {
		return models.SaleReceipt{}, fmt.Errorf("load stock item %s: %w", id, err)
	}

	if err := guard.ApplySell(&item, quantity); err != nil {
		s.logger.Info("sell rejected", zap.String("item_id", id), zap.Int("requested", quantity), zap.Int("available", item.Quantity), zap.Error(err))
		return models.SaleReceipt{}, err
	}

	now := s.now().UTC()
	item.UpdatedAt = now
	if err := s.repo.SaveStockItem(ctx, item); err != nil {
		return models.SaleReceipt{}, fmt.Errorf("save stock item: %w", err)
	}

	receipt = models.SaleReceipt{
		ItemID:       item.ID,
		ItemName:     item.Name,
		Quantity:     quantity,
		UnitPrice:    item.UnitPrice,
		Total:        item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		RemainingQty: item.Quantity,
		Note:         note,
		SoldAt:       now,
	}

	if s.sales != nil {
		if err := s.sales.RecordSale(ctx, receipt); err != nil {
			s.logger.Warn("failed to mirror sale", zap.String("item_id", id), zap.Error(err))
		}
	}

	s.logger.Info("stock item sold", zap.String("item_id", id), zap.Int("quantity", quantity), zap.Int("remaining", item.Quantity))
	return receipt, nil
}

// ListQuery describes a filtered, sorted and paged listing.
type ListQuery struct {
	Filter    repository.StockFilter
	SortBy    string // name, price, stock, created
	SortOrder string // asc, desc
	Page      int
	PageSize  int
}

// Page is one page of a listing.
type Page[T any] struct {
	Data       []T `json:"data"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// List returns a page of items. Page is clamped to >= 1 and PageSize to
// [1, 100], defaulting to 10.
func (s *Service) List(ctx context.Context, q ListQuery) (Page[models.StockItem], error) {
	items, err := s.repo.ListStockItems(ctx, q.Filter)
	if err != nil {
		return Page[models.StockItem]{}, fmt.Errorf("list stock items: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	switch {
	case size == 0:
		size = defaultPageSize
	case size < 1:
		size = 1
	case size > maxPageSize:
		size = maxPageSize
	}

	sortItems(items, q.SortBy, strings.EqualFold(q.SortOrder, "desc"))

	total := len(items)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return Page[models.StockItem]{
		Data:       items[start:end],
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}, nil
}

func sortItems(items []models.StockItem, sortBy string, desc bool) {
	var less func(a, b models.StockItem) bool
	switch strings.ToLower(sortBy) {
	case "price":
		less = func(a, b models.StockItem) bool { return a.UnitPrice.LessThan(b.UnitPrice) }
	case "stock":
		less = func(a, b models.StockItem) bool { return a.Quantity < b.Quantity }
	case "created":
		less = func(a, b models.StockItem) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		less = func(a, b models.StockItem) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func stockKey(id string) string {
	return "stock:" + id
}
