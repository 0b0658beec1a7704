package application

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStorage = errors.New("storage unavailable")

// memRepo 内存购物车仓储，Save 遵循版本号条件写语义
type memRepo struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]domain.Cart
	order []primitive.ObjectID

	// 接下来 conflicts 次 Save 模拟并发写入
	conflicts  int
	deleteErrs map[primitive.ObjectID]error
	scanErr    error
	saves      int
}

func newMemRepo() *memRepo {
	return &memRepo{
		carts:      map[primitive.ObjectID]domain.Cart{},
		deleteErrs: map[primitive.ObjectID]error{},
	}
}

func (r *memRepo) put(c domain.Cart) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Items = slices.Clone(c.Items)
	r.carts[c.ID] = c
	r.order = append(r.order, c.ID)
	return c.ID
}

func (r *memRepo) items(id primitive.ObjectID) []domain.LineItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.carts[id].Items)
}

func (r *memRepo) exists(id primitive.ObjectID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.carts[id]
	return ok
}

func (r *memRepo) Get(_ context.Context, id primitive.ObjectID) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	c.Items = slices.Clone(c.Items)
	if c.Items == nil {
		c.Items = []domain.LineItem{}
	}
	return &c, nil
}

func (r *memRepo) Create(_ context.Context, cart *domain.Cart) error {
	cart.ID = r.put(*cart)
	return nil
}

func (r *memRepo) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	stored, ok := r.carts[cart.ID]
	if !ok {
		return domain.ErrCartNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		stored.Version++
		r.carts[cart.ID] = stored
	}
	if stored.Version != cart.Version {
		return domain.ErrVersionConflict
	}
	cart.Version++
	stored.Items = slices.Clone(cart.Items)
	stored.Version = cart.Version
	r.carts[cart.ID] = stored
	return nil
}

func (r *memRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.deleteErrs[id]; err != nil {
		return err
	}
	if _, ok := r.carts[id]; !ok {
		return domain.ErrCartNotFound
	}
	delete(r.carts, id)
	return nil
}

func (r *memRepo) FindIDsByOwner(_ context.Context, userID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error] {
	return r.scan(func(c domain.Cart) bool { return c.UserID == userID })
}

func (r *memRepo) FindIDsContainingProduct(_ context.Context, productID primitive.ObjectID) iter.Seq2[primitive.ObjectID, error] {
	return r.scan(func(c domain.Cart) bool {
		return slices.ContainsFunc(c.Items, func(li domain.LineItem) bool { return li.ProductID == productID })
	})
}

func (r *memRepo) scan(match func(domain.Cart) bool) iter.Seq2[primitive.ObjectID, error] {
	r.mu.Lock()
	var ids []primitive.ObjectID
	for _, id := range r.order {
		if c, ok := r.carts[id]; ok && match(c) {
			ids = append(ids, id)
		}
	}
	scanErr := r.scanErr
	r.mu.Unlock()

	return func(yield func(primitive.ObjectID, error) bool) {
		for _, id := range ids {
			if !yield(id, nil) {
				return
			}
		}
		if scanErr != nil {
			yield(primitive.NilObjectID, scanErr)
		}
	}
}

type memStock struct {
	mu      sync.Mutex
	stock   map[primitive.ObjectID]int
	lookups int
	err     error
}

func (s *memStock) Stock(_ context.Context, id primitive.ObjectID) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.err != nil {
		return 0, false, s.err
	}
	q, ok := s.stock[id]
	return q, ok, nil
}

type memOwners map[primitive.ObjectID]bool

func (o memOwners) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	return o[id], nil
}

type published struct {
	topic string
	key   string
	event any
}

type memPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *memPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, key: key, event: event})
	return nil
}

func (p *memPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

func (p *memPublisher) on(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}

type countingRecorder struct {
	mu        sync.Mutex
	mutations map[string]int
	conflicts int
	cascades  int
	failures  int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{mutations: map[string]int{}}
}

func (r *countingRecorder) RecordCartMutation(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mutations[op+"/"+result]++
}

func (r *countingRecorder) RecordSaveConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *countingRecorder) RecordCascade(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cascades++
	if err != nil {
		r.failures++
	}
}
