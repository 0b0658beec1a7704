package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "db." + Collection

func userDoc(id primitive.ObjectID, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: name},
		{Key: "email", Value: name + "@example.com"},
		{Key: "password", Value: "$2a$10$hash"},
	}
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get decodes user", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, userDoc(id, "alice")))

		repo := NewUserRepository(docstore.New(mt.DB))
		u, err := repo.Get(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "alice@example.com", u.Email)
		assert.Equal(mt, "$2a$10$hash", u.PasswordHash)
	})

	mt.Run("get missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		repo := NewUserRepository(docstore.New(mt.DB))
		_, err := repo.Get(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, domain.ErrUserNotFound)
	})

	mt.Run("exists", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: id}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		repo := NewUserRepository(docstore.New(mt.DB))
		ok, err := repo.Exists(ctx, id)
		require.NoError(mt, err)
		assert.True(mt, ok)

		ok, err = repo.Exists(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.False(mt, ok)
	})

	mt.Run("exists surfaces storage failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		repo := NewUserRepository(docstore.New(mt.DB))
		_, err := repo.Exists(ctx, primitive.NewObjectID())
		assert.ErrorIs(mt, err, docstore.ErrUnavailable)
	})

	mt.Run("list pages", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc(a, "alice"), userDoc(b, "bob")))

		repo := NewUserRepository(docstore.New(mt.DB))
		users, err := repo.List(ctx, 0, 10)
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "bob", users[1].Username)
	})

	mt.Run("create assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		repo := NewUserRepository(docstore.New(mt.DB))
		u := &domain.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x"}
		require.NoError(mt, repo.Create(ctx, u))
		assert.False(mt, u.ID.IsZero())
	})

	mt.Run("update password of missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		repo := NewUserRepository(docstore.New(mt.DB))
		err := repo.UpdatePassword(ctx, primitive.NewObjectID(), "x")
		assert.ErrorIs(mt, err, domain.ErrUserNotFound)
	})

	mt.Run("delete missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		repo := NewUserRepository(docstore.New(mt.DB))
		assert.ErrorIs(mt, repo.Delete(ctx, primitive.NewObjectID()), domain.ErrUserNotFound)
	})
}
