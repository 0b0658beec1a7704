package mongo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection 购物车集合名
const Collection = "shopping_carts_data"

type cartRepository struct {
	store *docstore.Gateway
	now   func() time.Time
}

// NewCartRepository 创建基于文档网关的购物车仓储
func NewCartRepository(store *docstore.Gateway) domain.CartRepository {
	return &cartRepository{store: store, now: time.Now}
}

// EnsureIndexes 创建购物车集合的二级索引，级联清理按这两个字段扫描
func EnsureIndexes(ctx context.Context, store *docstore.Gateway) error {
	return store.EnsureIndexes(ctx, Collection,
		mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "products.product_id", Value: 1}}},
	)
}

func (r *cartRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	var cart domain.Cart
	if err := r.store.Get(ctx, Collection, id, &cart); err != nil {
		return nil, mapErr(err)
	}
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	if cart.Items == nil {
		cart.Items = []domain.LineItem{}
	}
	id, err := r.store.Create(ctx, Collection, cart)
	if err != nil {
		return mapErr(err)
	}
	cart.ID = id
	return nil
}

// Save 条件写回：仅当存储中的版本号仍等于 cart.Version 时生效
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	items := cart.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	now := r.now()

	err := r.store.UpdateWhere(ctx, Collection,
		bson.M{"_id": cart.ID, "version": cart.Version},
		bson.M{
			"$set": bson.M{"products": items, "updated_at": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err == nil {
		cart.Items = items
		cart.Version++
		cart.UpdatedAt = now
		return nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return err
	}

	// 未命中：区分文档已删除与版本已推进
	var probe struct {
		Version int64 `bson:"version"`
	}
	if err := r.store.Get(ctx, Collection, cart.ID, &probe); err != nil {
		return mapErr(err)
	}
	return fmt.Errorf("%w: expected version %d, found %d", domain.ErrVersionConflict, cart.Version, probe.Version)
}

func (r *cartRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return mapErr(r.store.Delete(ctx, Collection, id))
}

func (r *cartRepository) FindIDsByOwner(ctx context.Context, userID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error] {
	return r.findIDs(ctx, bson.M{"user_id": userID})
}

func (r *cartRepository) FindIDsContainingProduct(ctx context.Context, productID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error] {
	return r.findIDs(ctx, bson.M{"products.product_id": productID})
}

func (r *cartRepository) findIDs(ctx context.Context, filter bson.M) iter.Seq2[primitive.ObjectID, error] {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	return func(yield func(primitive.ObjectID, error) bool) {
		for raw, err := range r.store.FindMany(ctx, Collection, filter, opts) {
			if err != nil {
				yield(primitive.NilObjectID, err)
				return
			}
			id, ok := raw.Lookup("_id").ObjectIDOK()
			if !ok {
				yield(primitive.NilObjectID, fmt.Errorf("cart document without object id: %s", raw))
				return
			}
			if !yield(id, nil) {
				return
			}
		}
	}
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.ErrCartNotFound
	}
	return err
}
