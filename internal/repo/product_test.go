package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/psmarket/product_api/internal/models"
)

func TestProductRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns generated id", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		price := 49.9
		prod, err := r.Create(context.Background(), &models.Product{Name: "keyboard", Price: &price})
		require.NoError(mt, err)
		require.False(mt, prod.ID.IsZero())
	})

	mt.Run("get by id decodes document", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "keyboard"},
			{Key: "price", Value: 49.9},
		}))

		prod, err := r.GetByID(context.Background(), oid)
		require.NoError(mt, err)
		require.Equal(mt, oid, prod.ID)
		require.Equal(mt, "keyboard", prod.Name)
		require.NotNil(mt, prod.Price)
		require.Equal(mt, 49.9, *prod.Price)
	})

	mt.Run("get by id maps missing document to ErrNotFound", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		prod, err := r.GetByID(context.Background(), primitive.NewObjectID())
		require.Nil(mt, prod)
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("count above price returns raw aggregate result", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "productCount", Value: 2},
		}))

		out, err := r.CountAbovePrice(context.Background(), 7)
		require.NoError(mt, err)
		require.Len(mt, out, 1)
		require.EqualValues(mt, 2, out[0]["productCount"])
	})

	mt.Run("count above price empty aggregate", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		out, err := r.CountAbovePrice(context.Background(), 1000)
		require.NoError(mt, err)
		require.Empty(mt, out)
	})

	mt.Run("average price of empty collection is zero", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		out, err := r.AveragePrice(context.Background())
		require.NoError(mt, err)
		require.EqualValues(mt, 0, out["averagePrice"])
	})

	mt.Run("average price decodes group result", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "averagePrice", Value: 10.0},
		}))

		out, err := r.AveragePrice(context.Background())
		require.NoError(mt, err)
		require.EqualValues(mt, 10.0, out["averagePrice"])
	})

	mt.Run("delete maps zero deleted to ErrNotFound", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := r.Delete(context.Background(), primitive.NewObjectID())
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete succeeds when a document was removed", func(mt *mtest.T) {
		r := &ProductRepo{Col: mt.Coll}

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := r.Delete(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
	})
}

func TestUserRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by email decodes document", func(mt *mtest.T) {
		r := &UserRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "test user"},
			{Key: "email", Value: "a@b.com"},
			{Key: "password", Value: "$2a$10$hash"},
		}))

		user, err := r.FindByEmail(context.Background(), "a@b.com")
		require.NoError(mt, err)
		require.Equal(mt, oid, user.ID)
		require.Equal(mt, "a@b.com", user.Email)
		require.Equal(mt, "$2a$10$hash", user.PasswordHash)
	})

	mt.Run("find by email maps missing user to ErrNotFound", func(mt *mtest.T) {
		r := &UserRepo{Col: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		user, err := r.FindByEmail(context.Background(), "x@y.com")
		require.Nil(mt, user)
		require.ErrorIs(mt, err, ErrNotFound)
	})
}
