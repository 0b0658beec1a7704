package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "db." + Collection

func TestCartRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get decodes line items", func(mt *mtest.T) {
		id, owner, pid := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "user_id", Value: owner},
			{Key: "products", Value: bson.A{bson.D{{Key: "product_id", Value: pid}, {Key: "quantity", Value: 3}}}},
			{Key: "version", Value: int64(7)},
		}))

		repo := NewCartRepository(docstore.New(mt.DB))
		cart, err := repo.Get(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, owner, cart.UserID)
		assert.Equal(mt, []domain.LineItem{{ProductID: pid, Quantity: 3}}, cart.Items)
		assert.Equal(mt, int64(7), cart.Version)
	})

	mt.Run("get normalizes missing products", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "user_id", Value: primitive.NewObjectID()},
		}))

		repo := NewCartRepository(docstore.New(mt.DB))
		cart, err := repo.Get(ctx, id)
		require.NoError(mt, err)
		assert.NotNil(mt, cart.Items)
	})

	mt.Run("get missing cart", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		repo := NewCartRepository(docstore.New(mt.DB))
		_, err := repo.Get(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, domain.ErrCartNotFound)
	})

	mt.Run("create assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewCartRepository(docstore.New(mt.DB))
		cart := &domain.Cart{UserID: primitive.NewObjectID()}
		require.NoError(mt, repo.Create(ctx, cart))
		assert.False(mt, cart.ID.IsZero())
		assert.NotNil(mt, cart.Items)
	})

	mt.Run("save advances version", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		repo := NewCartRepository(docstore.New(mt.DB))
		cart := &domain.Cart{ID: primitive.NewObjectID(), Version: 4}
		require.NoError(mt, repo.Save(ctx, cart))
		assert.Equal(mt, int64(5), cart.Version)
		assert.False(mt, cart.UpdatedAt.IsZero())
	})

	mt.Run("save with stale version conflicts", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "version", Value: int64(5)},
			}),
		)

		repo := NewCartRepository(docstore.New(mt.DB))
		cart := &domain.Cart{ID: id, Version: 4}
		err := repo.Save(ctx, cart)
		assert.ErrorIs(mt, err, domain.ErrVersionConflict)
		assert.Equal(mt, int64(4), cart.Version)
	})

	mt.Run("save on deleted cart", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		repo := NewCartRepository(docstore.New(mt.DB))
		err := repo.Save(ctx, &domain.Cart{ID: primitive.NewObjectID()})
		assert.ErrorIs(mt, err, domain.ErrCartNotFound)
	})

	mt.Run("delete missing cart", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		repo := NewCartRepository(docstore.New(mt.DB))
		assert.ErrorIs(mt, repo.Delete(ctx, primitive.NewObjectID()), domain.ErrCartNotFound)
	})

	mt.Run("find ids containing product spans batches", func(mt *mtest.T) {
		a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(42, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: a}},
				bson.D{{Key: "_id", Value: b}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
				bson.D{{Key: "_id", Value: c}},
			),
		)

		repo := NewCartRepository(docstore.New(mt.DB))
		var got []primitive.ObjectID
		for id, err := range repo.FindIDsContainingProduct(ctx, primitive.NewObjectID()) {
			require.NoError(mt, err)
			got = append(got, id)
		}
		assert.Equal(mt, []primitive.ObjectID{a, b, c}, got)
	})

	mt.Run("find ids by owner surfaces storage error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		repo := NewCartRepository(docstore.New(mt.DB))
		var errs int
		for _, err := range repo.FindIDsByOwner(ctx, primitive.NewObjectID()) {
			assert.ErrorIs(mt, err, docstore.ErrUnavailable)
			errs++
		}
		assert.Equal(mt, 1, errs)
	})
}
