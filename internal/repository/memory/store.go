// Package memory is an in-process domain.Store. Transactions are serialized
// by a single mutex and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

type state struct {
	products    map[uuid.UUID]domain.Product
	images      map[uuid.UUID][]domain.ProductImage
	productTags map[uuid.UUID][]uuid.UUID
	reviews     map[uuid.UUID]domain.Review
	votes       map[uuid.UUID]domain.ReviewVote
	categories  map[uuid.UUID]domain.Category
	tags        map[uuid.UUID]domain.Tag
	users       map[uuid.UUID]domain.User
}

func newState() *state {
	return &state{
		products:    map[uuid.UUID]domain.Product{},
		images:      map[uuid.UUID][]domain.ProductImage{},
		productTags: map[uuid.UUID][]uuid.UUID{},
		reviews:     map[uuid.UUID]domain.Review{},
		votes:       map[uuid.UUID]domain.ReviewVote{},
		categories:  map[uuid.UUID]domain.Category{},
		tags:        map[uuid.UUID]domain.Tag{},
		users:       map[uuid.UUID]domain.User{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.images {
		c.images[k] = append([]domain.ProductImage(nil), v...)
	}
	for k, v := range s.productTags {
		c.productTags[k] = append([]uuid.UUID(nil), v...)
	}
	for k, v := range s.reviews {
		v.Pros = append(domain.StringList(nil), v.Pros...)
		v.Cons = append(domain.StringList(nil), v.Cons...)
		c.reviews[k] = v
	}
	for k, v := range s.votes {
		c.votes[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	return c
}

type db struct {
	mu sync.Mutex
	st *state
}

// Store implements domain.Store in memory
type Store struct {
	db   *db
	inTx bool
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{db: &db{st: newState()}}
}

// lock takes the store mutex unless the caller already holds it through a transaction
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *Store) Products() domain.ProductRepository { return &productRepo{s} }
func (s *Store) Reviews() domain.ReviewRepository { return &reviewRepo{s} }
func (s *Store) Votes() domain.VoteRepository { return &voteRepo{s} }
func (s *Store) Categories() domain.CategoryRepository { return &categoryRepo{s} }
func (s *Store) Tags() domain.TagRepository { return &tagRepo{s} }
func (s *Store) Users() domain.UserRepository { return &userRepo{s} }
func (s *Store) Stats() domain.StatsRepository { return &statsRepo{s} }
func (s *Store) Aggregates() domain.AggregateStore { return &aggregateStore{s} }

// WithinTx runs fn with exclusive access, restoring the previous state if fn fails or panics
func (s *Store) WithinTx(ctx context.Context, fn domain.TxFunc) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.db.st = snapshot
		}
	}()

	if err := fn(ctx, &Store{db: s.db, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadOnly runs fn with exclusive access so that its reads agree
func (s *Store) ReadOnly(ctx context.Context, fn domain.TxFunc) error {
	return s.WithinTx(ctx, fn)
}

// AddUser registers reference user data
func (s *Store) AddUser(u domain.User) domain.User {
	defer s.lock()()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	u.CreatedAt, u.UpdatedAt = now(), now()
	s.db.st.users[u.ID] = u
	return u
}

// AddCategory registers reference category data
func (s *Store) AddCategory(c domain.Category) domain.Category {
	defer s.lock()()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt, c.UpdatedAt = now(), now()
	s.db.st.categories[c.ID] = c
	return c
}

// AddTag registers reference tag data
func (s *Store) AddTag(t domain.Tag) domain.Tag {
	defer s.lock()()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = now()
	s.db.st.tags[t.ID] = t
	return t
}
