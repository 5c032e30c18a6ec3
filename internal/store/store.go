package store

import (
	"context"

	"carparts/catalog-service/internal/models"
)

// UserStore is the credential store: user records keyed by email.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpsertByEmail(ctx context.Context, email string, profile models.UserProfile) (models.UpdateResult, error)
	// SetRole never inserts; a missing email yields MatchedCount == 0.
	SetRole(ctx context.Context, email, role string) (models.UpdateResult, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type CatalogStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	InsertProduct(ctx context.Context, product models.Product) (models.InsertResult, error)
	DeleteProduct(ctx context.Context, id string) (models.DeleteResult, error)

	ListReviews(ctx context.Context) ([]models.Review, error)
	InsertReview(ctx context.Context, review models.Review) (models.InsertResult, error)

	InsertOrder(ctx context.Context, order models.Order) (models.InsertResult, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	DeleteOrder(ctx context.Context, id string) (models.DeleteResult, error)
}

type Store interface {
	UserStore
	CatalogStore
	Close(ctx context.Context) error
}
