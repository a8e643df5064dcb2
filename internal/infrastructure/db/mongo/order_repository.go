package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

const collectionOrders = "orders"

// OrderRepository implements ports.OrderRepository using MongoDB.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

type orderItemDoc struct {
	ListingID string               `bson:"listing_id"`
	Title     string               `bson:"title"`
	SellerID  string               `bson:"seller_id"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID             string               `bson:"_id"`
	BuyerID        string               `bson:"buyer_id"`
	Items          []orderItemDoc       `bson:"items"`
	Total          primitive.Decimal128 `bson:"total"`
	Status         string               `bson:"status"`
	IdempotencyKey string               `bson:"idempotency_key,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
}

func toOrderDoc(o *domain.Order) (orderDoc, error) {
	total, err := toDecimal128(o.Total)
	if err != nil {
		return orderDoc{}, err
	}
	items := make([]orderItemDoc, len(o.Items))
	for i, it := range o.Items {
		price, err := toDecimal128(it.Price)
		if err != nil {
			return orderDoc{}, err
		}
		items[i] = orderItemDoc{ListingID: it.ListingID, Title: it.Title, SellerID: it.SellerID, Price: price}
	}
	return orderDoc{
		ID:             o.ID,
		BuyerID:        o.BuyerID,
		Items:          items,
		Total:          total,
		Status:         string(o.Status),
		IdempotencyKey: o.IdempotencyKey,
		CreatedAt:      o.CreatedAt.UTC(),
	}, nil
}

func (d orderDoc) toDomain() (domain.Order, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return domain.Order{}, err
	}
	items := make([]domain.OrderItem, len(d.Items))
	for i, it := range d.Items {
		price, err := fromDecimal128(it.Price)
		if err != nil {
			return domain.Order{}, err
		}
		items[i] = domain.OrderItem{ListingID: it.ListingID, Title: it.Title, SellerID: it.SellerID, Price: price}
	}
	return domain.Order{
		ID:             d.ID,
		BuyerID:        d.BuyerID,
		Items:          items,
		Total:          total,
		Status:         domain.OrderStatus(d.Status),
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt.UTC(),
	}, nil
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toOrderDoc(o)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByIdempotencyKey retrieves the order a buyer created with the given key.
func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, buyerID, key string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"buyer_id": buyerID, "idempotency_key": key})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc orderDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	o, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"buyer_id": buyerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
