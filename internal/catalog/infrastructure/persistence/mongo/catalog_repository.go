package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection 商品集合名
const Collection = "products_data"

// productDocument 商品的存储形态，价格以 Decimal128 保存
type productDocument struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty"`
	Name     string               `bson:"name"`
	Theme    string               `bson:"theme"`
	Price    primitive.Decimal128 `bson:"price"`
	Quantity int                  `bson:"quantity"`
}

func toDocument(p *domain.Product) (productDocument, error) {
	price, err := primitive.ParseDecimal128(p.Price.String())
	if err != nil {
		return productDocument{}, fmt.Errorf("encode price %s: %w", p.Price, err)
	}
	return productDocument{
		ID:       p.ID,
		Name:     p.Name,
		Theme:    string(p.Theme),
		Price:    price,
		Quantity: p.Quantity,
	}, nil
}

func (d productDocument) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("decode price of product %s: %w", d.ID.Hex(), err)
	}
	return &domain.Product{
		ID:       d.ID,
		Name:     d.Name,
		Theme:    domain.Theme(d.Theme),
		Price:    price,
		Quantity: d.Quantity,
	}, nil
}

// ProductRepository 商品仓储的文档存储实现
type ProductRepository struct {
	store *docstore.Gateway
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository 创建商品仓储，同时作为购物车对账的库存读取方
func NewProductRepository(store *docstore.Gateway) *ProductRepository {
	return &ProductRepository{store: store}
}

// EnsureIndexes 创建商品集合的主题索引
func EnsureIndexes(ctx context.Context, store *docstore.Gateway) error {
	return store.EnsureIndexes(ctx, Collection, mongo.IndexModel{Keys: bson.D{{Key: "theme", Value: 1}}})
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	doc, err := toDocument(product)
	if err != nil {
		return err
	}
	doc.ID = primitive.NilObjectID
	id, err := r.store.Create(ctx, Collection, doc)
	if err != nil {
		return err
	}
	product.ID = id
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var doc productDocument
	if err := r.store.Get(ctx, Collection, id, &doc); err != nil {
		return nil, mapErr(err)
	}
	return doc.toDomain()
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	query := bson.M{}
	if filter.Theme != "" {
		query["theme"] = string(filter.Theme)
	}

	opts := options.Find().SetSkip(filter.Skip).SetLimit(filter.Limit)
	if filter.SortBy != "" {
		order := 1
		if filter.Descending {
			order = -1
		}
		opts.SetSort(bson.D{{Key: sortColumn(filter.SortBy), Value: order}})
	}

	products := make([]*domain.Product, 0, filter.Limit)
	for raw, err := range r.store.FindMany(ctx, Collection, query, opts) {
		if err != nil {
			return nil, err
		}
		var doc productDocument
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) Replace(ctx context.Context, product *domain.Product) error {
	doc, err := toDocument(product)
	if err != nil {
		return err
	}
	return mapErr(r.store.Update(ctx, Collection, product.ID, bson.M{
		"name":     doc.Name,
		"theme":    doc.Theme,
		"price":    doc.Price,
		"quantity": doc.Quantity,
	}))
}

func (r *ProductRepository) UpdateStock(ctx context.Context, id primitive.ObjectID, quantity int) error {
	return mapErr(r.store.Update(ctx, Collection, id, bson.M{"quantity": quantity}))
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return mapErr(r.store.Delete(ctx, Collection, id))
}

// Stock 购物车对账使用的库存读取；商品不存在时 found 为 false
func (r *ProductRepository) Stock(ctx context.Context, id primitive.ObjectID) (int, bool, error) {
	var doc struct {
		Quantity int `bson:"quantity"`
	}
	err := r.store.Get(ctx, Collection, id, &doc)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return doc.Quantity, true, nil
}

func sortColumn(f domain.SortField) string {
	if f == domain.SortByID {
		return "_id"
	}
	return string(f)
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.ErrProductNotFound
	}
	return err
}
