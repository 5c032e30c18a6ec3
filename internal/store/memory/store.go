// Package memory is an in-process store used for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	products []models.Product
	reviews  []models.Review
	orders   []models.Order
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]models.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close(context.Context) error {
	return nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpsertByEmail(_ context.Context, email string, profile models.UserProfile) (models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	user, ok := s.users[email]
	if !ok {
		user = models.User{Email: email, CreatedAt: now, UpdatedAt: now}
		profile.Apply(&user)
		s.users[email] = user
		return models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: email}, nil
	}
	result := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if profile.Apply(&user) {
		user.UpdatedAt = now
		s.users[email] = user
		result.ModifiedCount = 1
	}
	return result, nil
}

func (s *Store) SetRole(_ context.Context, email, role string) (models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return models.UpdateResult{Acknowledged: true}, nil
	}
	result := models.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if user.Role != role {
		user.Role = role
		user.UpdatedAt = s.now()
		s.users[email] = user
		result.ModifiedCount = 1
	}
	return result, nil
}

func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].Email < users[j].Email
	})
	return users, nil
}

func (s *Store) ListProducts(context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product{}, s.products...), nil
}

func (s *Store) GetProduct(_ context.Context, id string) (models.Product, error) {
	if !validID(id) {
		return models.Product{}, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, product := range s.products {
		if product.ID == id {
			return product, nil
		}
	}
	return models.Product{}, store.ErrNotFound
}

func (s *Store) InsertProduct(_ context.Context, product models.Product) (models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product.ID = uuid.NewString()
	product.CreatedAt = s.now()
	s.products = append(s.products, product)
	return models.InsertResult{Acknowledged: true, InsertedID: product.ID}, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) (models.DeleteResult, error) {
	if !validID(id) {
		return models.DeleteResult{}, store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, product := range s.products {
		if product.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return models.DeleteResult{Acknowledged: true}, nil
}

func (s *Store) ListReviews(context.Context) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Review{}, s.reviews...), nil
}

func (s *Store) InsertReview(_ context.Context, review models.Review) (models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	review.ID = uuid.NewString()
	review.CreatedAt = s.now()
	s.reviews = append(s.reviews, review)
	return models.InsertResult{Acknowledged: true, InsertedID: review.ID}, nil
}

func (s *Store) InsertOrder(_ context.Context, order models.Order) (models.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = uuid.NewString()
	order.CreatedAt = s.now()
	s.orders = append(s.orders, order)
	return models.InsertResult{Acknowledged: true, InsertedID: order.ID}, nil
}

func (s *Store) ListOrders(context.Context) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order{}, s.orders...), nil
}

func (s *Store) ListOrdersByEmail(_ context.Context, email string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := []models.Order{}
	for _, order := range s.orders {
		if order.Email == email {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (models.Order, error) {
	if !validID(id) {
		return models.Order{}, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, order := range s.orders {
		if order.ID == id {
			return order, nil
		}
	}
	return models.Order{}, store.ErrNotFound
}

func (s *Store) DeleteOrder(_ context.Context, id string) (models.DeleteResult, error) {
	if !validID(id) {
		return models.DeleteResult{}, store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, order := range s.orders {
		if order.ID == id {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			return models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return models.DeleteResult{Acknowledged: true}, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
