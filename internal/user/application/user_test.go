package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/user/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUsers struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]domain.User
	deleteErr error
	lastSkip  int64
	lastLimit int64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[primitive.ObjectID]domain.User{}}
}

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = primitive.NewObjectID()
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) Get(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) List(_ context.Context, skip, limit int64) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSkip, r.lastLimit = skip, limit
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, &u)
	}
	return out, nil
}

func (r *memUsers) Replace(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[u.ID] = *u
	return nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUsers) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

type memCarts struct {
	owners  []primitive.ObjectID
	err     error
	deleted []primitive.ObjectID
}

func (c *memCarts) CreateCartFor(_ context.Context, userID primitive.ObjectID) (primitive.ObjectID, error) {
	if c.err != nil {
		return primitive.NilObjectID, c.err
	}
	c.owners = append(c.owners, userID)
	return primitive.NewObjectID(), nil
}

func (c *memCarts) OnUserDeleted(_ context.Context, userID primitive.ObjectID) error {
	c.deleted = append(c.deleted, userID)
	return c.err
}

type memPublisher struct {
	topics []string
}

func (p *memPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	p.topics = append(p.topics, topic)
	return nil
}

func newService(repo *memUsers, carts *memCarts, pub *memPublisher) *UserService {
	return NewUserService(
		NewUserCommandService(repo, carts, carts, pub),
		NewUserQueryService(repo, 200),
	)
}

func alice() CreateUserCommand {
	return CreateUserCommand{Username: "alice", Email: "alice@example.com", Password: "pw"}
}

func TestCreateUserCreatesCart(t *testing.T) {
	ctx := context.Background()
	repo, carts, pub := newMemUsers(), &memCarts{}, &memPublisher{}
	svc := newService(repo, carts, pub)

	res, err := svc.CreateUser(ctx, alice())
	require.NoError(t, err)
	assert.False(t, res.UserID.IsZero())
	assert.False(t, res.CartID.IsZero())
	assert.Equal(t, []primitive.ObjectID{res.UserID}, carts.owners)
	assert.Equal(t, []string{domain.TopicUserCreated}, pub.topics)

	stored, err := svc.GetUser(ctx, res.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw", stored.PasswordHash)
	assert.True(t, stored.CheckPassword("pw"))
}

func TestCreateUserCompensatesWhenCartFails(t *testing.T) {
	ctx := context.Background()
	repo, pub := newMemUsers(), &memPublisher{}
	cartErr := errors.New("storage unavailable")
	svc := newService(repo, &memCarts{err: cartErr}, pub)

	_, err := svc.CreateUser(ctx, alice())
	assert.ErrorIs(t, err, cartErr)
	assert.Empty(t, repo.users)
	assert.Empty(t, pub.topics)
}

func TestCreateUserCompensationFailureStillReturnsCartError(t *testing.T) {
	repo := newMemUsers()
	repo.deleteErr = errors.New("delete failed")
	cartErr := errors.New("cart insert failed")
	svc := newService(repo, &memCarts{err: cartErr}, &memPublisher{})

	_, err := svc.CreateUser(context.Background(), alice())
	assert.ErrorIs(t, err, cartErr)
}

func TestCreateUserValidation(t *testing.T) {
	carts := &memCarts{}
	svc := newService(newMemUsers(), carts, &memPublisher{})
	_, err := svc.CreateUser(context.Background(), CreateUserCommand{Username: "x", Email: "nope", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
	assert.Empty(t, carts.owners)
}

func TestReplaceUser(t *testing.T) {
	ctx := context.Background()
	repo := newMemUsers()
	svc := newService(repo, &memCarts{}, &memPublisher{})
	res, err := svc.CreateUser(ctx, alice())
	require.NoError(t, err)

	err = svc.ReplaceUser(ctx, ReplaceUserCommand{ID: res.UserID, Username: "alicia", Email: "alicia@example.com", Password: "new"})
	require.NoError(t, err)
	u := repo.users[res.UserID]
	assert.Equal(t, "alicia", u.Username)
	assert.True(t, u.CheckPassword("new"))

	err = svc.ReplaceUser(ctx, ReplaceUserCommand{ID: primitive.NewObjectID(), Username: "x", Email: "x@y.z", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo, pub := newMemUsers(), &memPublisher{}
	svc := newService(repo, &memCarts{}, pub)
	res, err := svc.CreateUser(ctx, alice())
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, ChangePasswordCommand{ID: res.UserID, Password: "rotated"}))
	u := repo.users[res.UserID]
	assert.True(t, u.CheckPassword("rotated"))
	assert.Contains(t, pub.topics, domain.TopicUserPasswordChanged)

	assert.ErrorIs(t, svc.ChangePassword(ctx, ChangePasswordCommand{ID: res.UserID}), domain.ErrInvalidUser)
	assert.ErrorIs(t, svc.ChangePassword(ctx, ChangePasswordCommand{ID: primitive.NewObjectID(), Password: "x"}), domain.ErrUserNotFound)
}

func TestDeleteUserRunsCascade(t *testing.T) {
	ctx := context.Background()
	repo, carts := newMemUsers(), &memCarts{}
	svc := newService(repo, carts, &memPublisher{})
	res, err := svc.CreateUser(ctx, alice())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, res.UserID))
	assert.Equal(t, []primitive.ObjectID{res.UserID}, carts.deleted)
	_, err = svc.GetUser(ctx, res.UserID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, res.UserID), domain.ErrUserNotFound)
	assert.Len(t, carts.deleted, 1)
}

func TestDeleteUserCascadeFailureIsNotReturned(t *testing.T) {
	ctx := context.Background()
	repo, carts := newMemUsers(), &memCarts{}
	svc := newService(repo, carts, &memPublisher{})
	res, err := svc.CreateUser(ctx, alice())
	require.NoError(t, err)

	carts.err = errors.New("cart 1: storage unavailable")
	assert.NoError(t, svc.DeleteUser(ctx, res.UserID))
	assert.Empty(t, repo.users)
}

func TestListUsersPaging(t *testing.T) {
	ctx := context.Background()
	repo := newMemUsers()
	svc := newService(repo, &memCarts{}, &memPublisher{})

	_, err := svc.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(200), repo.lastLimit)

	_, err = svc.ListUsers(ctx, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), repo.lastSkip)
	assert.Equal(t, int64(7), repo.lastLimit)

	_, err = svc.ListUsers(ctx, 0, 201)
	assert.ErrorIs(t, err, domain.ErrPageTooLarge)
	_, err = svc.ListUsers(ctx, -1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidPage)
}
