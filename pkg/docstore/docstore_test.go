package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type widget struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

func TestParseID(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, bad := range []string{"", "xyz", "0123456789abcdef0123456", id.Hex() + "00"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}
}

func TestGateway(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get decodes document", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.widgets", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "bolt"},
		}))

		g := New(mt.DB)
		var w widget
		require.NoError(mt, g.Get(context.Background(), "widgets", id, &w))
		assert.Equal(mt, id, w.ID)
		assert.Equal(mt, "bolt", w.Name)
	})

	mt.Run("get missing is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.widgets", mtest.FirstBatch))

		g := New(mt.DB)
		var w widget
		err := g.Get(context.Background(), "widgets", primitive.NewObjectID(), &w)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create returns generated id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		g := New(mt.DB)
		id, err := g.Create(context.Background(), "widgets", widget{Name: "nut"})
		require.NoError(mt, err)
		assert.False(mt, id.IsZero())
	})

	mt.Run("create duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		g := New(mt.DB)
		_, err := g.Create(context.Background(), "widgets", widget{Name: "nut"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("update without match is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		g := New(mt.DB)
		err := g.Update(context.Background(), "widgets", primitive.NewObjectID(), bson.M{"name": "x"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update with match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		g := New(mt.DB)
		err := g.Update(context.Background(), "widgets", primitive.NewObjectID(), bson.M{"name": "x"})
		assert.NoError(mt, err)
	})

	mt.Run("delete without match is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		g := New(mt.DB)
		err := g.Delete(context.Background(), "widgets", primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("command failure is unavailable", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		g := New(mt.DB)
		err := g.Delete(context.Background(), "widgets", primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrUnavailable)
		assert.NotErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find many streams all batches", func(mt *mtest.T) {
		first := mtest.CreateCursorResponse(1, "db.widgets", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "a"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "b"}},
		)
		second := mtest.CreateCursorResponse(0, "db.widgets", mtest.NextBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "c"}},
		)
		mt.AddMockResponses(first, second)

		g := New(mt.DB)
		var names []string
		for raw, err := range g.FindMany(context.Background(), "widgets", bson.M{}) {
			require.NoError(mt, err)
			var w widget
			require.NoError(mt, bson.Unmarshal(raw, &w))
			names = append(names, w.Name)
		}
		assert.Equal(mt, []string{"a", "b", "c"}, names)
	})
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(mongo.ErrNoDocuments), ErrNotFound)
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.NotErrorIs(t, classify(context.Canceled), ErrUnavailable)
	assert.ErrorIs(t, classify(errors.New("connection reset")), ErrUnavailable)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), ErrUnavailable)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "not_found", Outcome(ErrNotFound))
	assert.Equal(t, "unavailable", Outcome(classify(errors.New("boom"))))
}

func TestBreakerOpensOnConsecutiveFailures(t *testing.T) {
	g := New(nil, WithBreaker(BreakerConfig{ConsecutiveFailures: 2}))
	boom := errors.New("socket closed")

	for i := 0; i < 2; i++ {
		err := g.do(context.Background(), "widgets", "get", func(context.Context) error { return boom })
		require.ErrorIs(t, err, ErrUnavailable)
	}

	called := false
	err := g.do(context.Background(), "widgets", "get", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, called, "open breaker must short-circuit")
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	g := New(nil, WithBreaker(BreakerConfig{ConsecutiveFailures: 1}))

	for i := 0; i < 3; i++ {
		err := g.do(context.Background(), "widgets", "get", func(context.Context) error { return ErrNotFound })
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.NoError(t, g.do(context.Background(), "widgets", "get", func(context.Context) error { return nil }))
}
