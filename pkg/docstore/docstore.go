// Package docstore 提供基于 MongoDB 的通用文档集合访问层（CRUD、游标扫描、熔断、错误归类）
package docstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	// ErrNotFound 文档不存在
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID 标识符格式非法（不是 24 位十六进制的 ObjectID）
	ErrInvalidID = errors.New("invalid identifier")
	// ErrDuplicate 唯一索引冲突
	ErrDuplicate = errors.New("duplicate document")
	// ErrUnavailable 存储不可用（网络、超时、熔断打开）
	ErrUnavailable = errors.New("document store unavailable")
)

// Observer 存储操作观测钩子，由 metrics 实现
type Observer interface {
	ObserveStorage(collection, op, result string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveStorage(string, string, string, time.Duration) {}

// Gateway 文档集合的通用访问网关
// 每次调用都是一次独立的网络往返，不提供跨调用的事务语义
type Gateway struct {
	db       *mongo.Database
	breaker  *gobreaker.CircuitBreaker
	observer Observer
}

// Option 网关可选配置
type Option func(*Gateway)

// WithObserver 设置存储操作观测钩子
func WithObserver(o Observer) Option {
	return func(g *Gateway) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithBreaker 设置熔断器参数
func WithBreaker(cfg BreakerConfig) Option {
	return func(g *Gateway) {
		g.breaker = newBreaker(cfg)
	}
}

// New 创建文档访问网关
func New(db *mongo.Database, opts ...Option) *Gateway {
	g := &Gateway{
		db:       db,
		breaker:  newBreaker(BreakerConfig{}),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ParseID 解析边界上的字符串标识符
func ParseID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Get 按 _id 读取文档并解码到 out
func (g *Gateway) Get(ctx context.Context, collection string, id primitive.ObjectID, out any) error {
	var raw bson.Raw
	err := g.do(ctx, collection, "get", func(ctx context.Context) error {
		var err error
		raw, err = g.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Raw()
		return err
	})
	if err != nil {
		return err
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id.Hex(), err)
	}
	return nil
}

// Create 插入文档，返回生成的 ObjectID
func (g *Gateway) Create(ctx context.Context, collection string, doc any) (primitive.ObjectID, error) {
	var res *mongo.InsertOneResult
	err := g.do(ctx, collection, "create", func(ctx context.Context) error {
		var err error
		res, err = g.db.Collection(collection).InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

// Update 按 _id 覆盖写入字段（$set）
func (g *Gateway) Update(ctx context.Context, collection string, id primitive.ObjectID, fields bson.M) error {
	return g.UpdateWhere(ctx, collection, bson.M{"_id": id}, bson.M{"$set": fields})
}

// UpdateWhere 按过滤条件更新单个文档，未命中返回 ErrNotFound
// 条件更新（如版本号校验）依赖这里的命中语义
func (g *Gateway) UpdateWhere(ctx context.Context, collection string, filter, update bson.M) error {
	return g.do(ctx, collection, "update", func(ctx context.Context) error {
		res, err := g.db.Collection(collection).UpdateOne(ctx, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete 按 _id 删除文档，未命中返回 ErrNotFound
func (g *Gateway) Delete(ctx context.Context, collection string, id primitive.ObjectID) error {
	return g.do(ctx, collection, "delete", func(ctx context.Context) error {
		res, err := g.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// FindMany 惰性扫描满足条件的文档
// 游标在迭代结束或调用方提前 break 时关闭；产出的 bson.Raw 已拷贝，可安全持有
func (g *Gateway) FindMany(ctx context.Context, collection string, filter any, opts ...*options.FindOptions) iter.Seq2[bson.Raw, error] {
	return func(yield func(bson.Raw, error) bool) {
		var cur *mongo.Cursor
		err := g.do(ctx, collection, "find", func(ctx context.Context) error {
			var err error
			cur, err = g.db.Collection(collection).Find(ctx, filter, opts...)
			return err
		})
		if err != nil {
			yield(nil, err)
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			doc := make(bson.Raw, len(cur.Current))
			copy(doc, cur.Current)
			if !yield(doc, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, classify(err))
		}
	}
}

// EnsureIndexes 创建集合索引（幂等）
func (g *Gateway) EnsureIndexes(ctx context.Context, collection string, models ...mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	return g.do(ctx, collection, "create_indexes", func(ctx context.Context) error {
		_, err := g.db.Collection(collection).Indexes().CreateMany(ctx, models)
		return err
	})
}

// Ping 探测主节点可用性
func (g *Gateway) Ping(ctx context.Context) error {
	return g.do(ctx, "", "ping", func(ctx context.Context) error {
		return g.db.Client().Ping(ctx, readpref.Primary())
	})
}

func (g *Gateway) do(ctx context.Context, collection, op string, fn func(context.Context) error) error {
	start := time.Now()
	_, err := g.breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	err = classify(err)
	g.observer.ObserveStorage(collection, op, Outcome(err), time.Since(start))
	return err
}

// classify 把驱动错误归类为本包的哨兵错误
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case errors.Is(err, ErrUnavailable):
		return err
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

// Outcome 把错误映射为指标标签
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unavailable"
	}
}
