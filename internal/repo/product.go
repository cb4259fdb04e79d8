package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/psmarket/product_api/internal/models"
)

type ProductRepo struct {
	Col *mongo.Collection
}

func NewProductRepo(db *mongo.Database) *ProductRepo {
	return &ProductRepo{Col: db.Collection("products")}
}

func (r *ProductRepo) Create(ctx context.Context, prod *models.Product) (*models.Product, error) {
	res, err := r.Col.InsertOne(ctx, prod)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		prod.ID = oid
	}
	return prod, nil
}

func (r *ProductRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	cur, err := r.Col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	items := []models.Product{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountAbovePrice counts documents with price > threshold via a
// $match/$count pipeline and returns the raw aggregate result, which is
// empty when nothing matches.
func (r *ProductRepo) CountAbovePrice(ctx context.Context, threshold float64) ([]bson.M, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "price", Value: bson.D{{Key: "$gt", Value: threshold}}}}}},
		{{Key: "$count", Value: "productCount"}},
	}

	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AveragePrice averages the price field across the collection. Documents
// without a price stay out of the average; an empty collection yields
// {averagePrice: 0}.
func (r *ProductRepo) AveragePrice(ctx context.Context) (bson.M, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "averagePrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
		}}},
	}

	cur, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return bson.M{"averagePrice": 0}, nil
	}
	return out[0], nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	prod := models.Product{}
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&prod)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// Patch applies a partial $set of the supplied fields and returns the
// post-update document. A missing id yields (nil, nil), matching the old
// findByIdAndUpdate contract.
func (r *ProductRepo) Patch(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	prod := models.Product{}
	err := r.Col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&prod)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
