package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/repository"
)

const (
	stockCollection      = "stock_items"
	entryCollection      = "ledger_entries"
	departmentCollection = "departments"
)

// MongoDBRepository implements repository.Store on top of MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

var _ repository.Store = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects, pings and returns a ready repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(entryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "department_id", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create ledger index: %w", err)
	}
	return nil
}

// GetStockItem loads one item by id.
func (r *MongoDBRepository) GetStockItem(ctx context.Context, id string) (models.StockItem, error) {
	var doc stockDocument
	if err := r.findOne(ctx, stockCollection, id, &doc); err != nil {
		return models.StockItem{}, err
	}
	return doc.toModel()
}

// ListStockItems returns the items matching filter in insertion order.
func (r *MongoDBRepository) ListStockItems(ctx context.Context, filter repository.StockFilter) ([]models.StockItem, error) {
	var docs []stockDocument
	if err := r.find(ctx, stockCollection, stockQuery(filter), &docs); err != nil {
		return nil, err
	}

	items := make([]models.StockItem, 0, len(docs))
	for _, doc := range docs {
		item, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveStockItem upserts the item.
func (r *MongoDBRepository) SaveStockItem(ctx context.Context, item models.StockItem) error {
	doc, err := newStockDocument(item)
	if err != nil {
		return err
	}
	return r.replace(ctx, stockCollection, item.ID, doc)
}

// DeleteStockItem removes the item.
func (r *MongoDBRepository) DeleteStockItem(ctx context.Context, id string) error {
	return r.deleteOne(ctx, stockCollection, id)
}

// GetLedgerEntry loads one entry by id.
func (r *MongoDBRepository) GetLedgerEntry(ctx context.Context, id string) (models.LedgerEntry, error) {
	var doc entryDocument
	if err := r.findOne(ctx, entryCollection, id, &doc); err != nil {
		return models.LedgerEntry{}, err
	}
	return doc.toModel()
}

// ListLedgerEntries returns the entries matching filter in insertion order.
func (r *MongoDBRepository) ListLedgerEntries(ctx context.Context, filter repository.EntryFilter) ([]models.LedgerEntry, error) {
	var docs []entryDocument
	if err := r.find(ctx, entryCollection, entryQuery(filter), &docs); err != nil {
		return nil, err
	}

	entries := make([]models.LedgerEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveLedgerEntry upserts the entry.
func (r *MongoDBRepository) SaveLedgerEntry(ctx context.Context, entry models.LedgerEntry) error {
	doc, err := newEntryDocument(entry)
	if err != nil {
		return err
	}
	return r.replace(ctx, entryCollection, entry.ID, doc)
}

// DeleteLedgerEntry removes the entry.
func (r *MongoDBRepository) DeleteLedgerEntry(ctx context.Context, id string) error {
	return r.deleteOne(ctx, entryCollection, id)
}

// GetDepartment loads one department by id.
func (r *MongoDBRepository) GetDepartment(ctx context.Context, id string) (models.Department, error) {
	var doc departmentDocument
	if err := r.findOne(ctx, departmentCollection, id, &doc); err != nil {
		return models.Department{}, err
	}
	return doc.toModel()
}

// ListDepartments returns every department.
func (r *MongoDBRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var docs []departmentDocument
	if err := r.find(ctx, departmentCollection, bson.M{}, &docs); err != nil {
		return nil, err
	}

	depts := make([]models.Department, 0, len(docs))
	for _, doc := range docs {
		dept, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		depts = append(depts, dept)
	}
	return depts, nil
}

// SaveDepartment upserts the department.
func (r *MongoDBRepository) SaveDepartment(ctx context.Context, dept models.Department) error {
	doc, err := newDepartmentDocument(dept)
	if err != nil {
		return err
	}
	return r.replace(ctx, departmentCollection, dept.ID, doc)
}

// DeleteDepartment removes the department.
func (r *MongoDBRepository) DeleteDepartment(ctx context.Context, id string) error {
	return r.deleteOne(ctx, departmentCollection, id)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) findOne(ctx context.Context, coll, id string, out any) error {
	err := r.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s %s: %w", coll, id, err)
	}
	return nil
}

func (r *MongoDBRepository) find(ctx context.Context, coll string, query bson.M, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.db.Collection(coll).Find(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("query %s: %w", coll, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// replace upserts doc and stamps a monotonic seq on first insert so lists
// come back in insertion order.
func (r *MongoDBRepository) replace(ctx context.Context, coll, id string, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", coll, id, err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("encode %s %s: %w", coll, id, err)
	}
	delete(fields, "_id")

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"seq": nextSeq()},
	}
	_, err = r.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save %s %s: %w", coll, id, err)
	}
	r.logger.Debug("document saved", zap.String("collection", coll), zap.String("id", id))
	return nil
}

func (r *MongoDBRepository) deleteOne(ctx context.Context, coll, id string) error {
	res, err := r.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", coll, id, err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
