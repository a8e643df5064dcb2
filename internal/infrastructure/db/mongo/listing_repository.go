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

const collectionListings = "listings"

// ListingRepository implements ports.ListingRepository using MongoDB.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

var _ ports.ListingRepository = (*ListingRepository)(nil)

type sellerDoc struct {
	ID       string `bson:"id"`
	Username string `bson:"username"`
}

// listingDoc is the stored shape. Seq is an ObjectID taken at insert time and
// gives the insertion order.
type listingDoc struct {
	ID          string               `bson:"_id"`
	Seq         primitive.ObjectID   `bson:"seq"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category"`
	ImageRef    string               `bson:"image_ref,omitempty"`
	Seller      sellerDoc            `bson:"seller"`
	Version     int64                `bson:"version"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func toListingDoc(l *domain.Listing, seq primitive.ObjectID) (listingDoc, error) {
	price, err := toDecimal128(l.Price)
	if err != nil {
		return listingDoc{}, err
	}
	return listingDoc{
		ID:          l.ID,
		Seq:         seq,
		Title:       l.Title,
		Description: l.Description,
		Price:       price,
		Category:    string(l.Category),
		ImageRef:    l.ImageRef,
		Seller:      sellerDoc{ID: l.Seller.ID, Username: l.Seller.Username},
		Version:     l.Version,
		CreatedAt:   l.CreatedAt.UTC(),
		UpdatedAt:   l.UpdatedAt.UTC(),
	}, nil
}

func (d listingDoc) toDomain() (domain.Listing, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return domain.Listing{}, err
	}
	return domain.Listing{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       price,
		Category:    domain.Category(d.Category),
		ImageRef:    d.ImageRef,
		Seller:      domain.Seller{ID: d.Seller.ID, Username: d.Seller.Username},
		Version:     d.Version,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

// Create inserts a new listing document.
func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toListingDoc(l, primitive.NewObjectID())
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc listingDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	l, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	return r.find(ctx, bson.M{})
}

func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Listing, error) {
	return r.find(ctx, bson.M{"seller.id": sellerID})
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	out := make([]domain.Listing, 0, len(docs))
	for _, d := range docs {
		l, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Replace swaps the document in one conditional write keyed on id and version.
func (r *ListingRepository) Replace(ctx context.Context, l *domain.Listing, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	price, err := toDecimal128(l.Price)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"title":       l.Title,
		"description": l.Description,
		"price":       price,
		"category":    string(l.Category),
		"image_ref":   l.ImageRef,
		"version":     l.Version,
		"updated_at":  l.UpdatedAt.UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": l.ID, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("replace listing: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": l.ID})
	if err != nil {
		return fmt.Errorf("replace listing: %w", err)
	}
	if n == 0 {
		return domain.ErrListingNotFound
	}
	return domain.ErrVersionConflict
}

func (r *ListingRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete listing: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// EnsureIndexes creates necessary indexes on the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "seller.id", Value: 1}, {Key: "seq", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
