package postgres

import (
	"context"
	"errors"
	"time"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	row := s.pool.QueryRow(ctx, `
		SELECT email, name, phone, address, image, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	if err := row.Scan(&user.Email, &user.Name, &user.Phone, &user.Address, &user.Image, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// UpsertByEmail keeps stored values for empty profile fields. The conflict
// branch only fires when something changes, so no returned row means the
// record matched but was left as is.
func (s *Store) UpsertByEmail(ctx context.Context, email string, profile models.UserProfile) (models.UpdateResult, error) {
	var inserted bool
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, phone, address, image)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), users.phone),
			address = COALESCE(NULLIF(EXCLUDED.address, ''), users.address),
			image = COALESCE(NULLIF(EXCLUDED.image, ''), users.image),
			updated_at = NOW()
		WHERE (users.name, users.phone, users.address, users.image) IS DISTINCT FROM (
			COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
			COALESCE(NULLIF(EXCLUDED.phone, ''), users.phone),
			COALESCE(NULLIF(EXCLUDED.address, ''), users.address),
			COALESCE(NULLIF(EXCLUDED.image, ''), users.image)
		)
		RETURNING (xmax = 0)
	`, email, profile.Name, profile.Phone, profile.Address, profile.Image)
	if err := row.Scan(&inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.UpdateResult{Acknowledged: true, MatchedCount: 1}, nil
		}
		return models.UpdateResult{}, err
	}
	if inserted {
		return models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: email}, nil
	}
	return models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *Store) SetRole(ctx context.Context, email, role string) (models.UpdateResult, error) {
	var matched, modified int64
	row := s.pool.QueryRow(ctx, `
		WITH target AS (
			SELECT email, role FROM users WHERE email = $1 FOR UPDATE
		), changed AS (
			UPDATE users u
			SET role = $2, updated_at = NOW()
			FROM target t
			WHERE u.email = t.email AND t.role <> $2
			RETURNING u.email
		)
		SELECT (SELECT COUNT(*) FROM target), (SELECT COUNT(*) FROM changed)
	`, email, role)
	if err := row.Scan(&matched, &modified); err != nil {
		return models.UpdateResult{}, err
	}
	return models.UpdateResult{Acknowledged: true, MatchedCount: matched, ModifiedCount: modified}, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email, name, phone, address, image, role, created_at, updated_at
		FROM users
		ORDER BY created_at ASC, email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Email, &user.Name, &user.Phone, &user.Address, &user.Image, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id::text, name, description, image, price, minimum_quantity, available_quantity, created_at
		FROM products
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := rows.Scan(&product.ID, &product.Name, &product.Description, &product.Image, &product.Price, &product.MinimumQuantity, &product.AvailableQuantity, &product.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	if !isValidUUID(id) {
		return models.Product{}, store.ErrInvalidID
	}
	var product models.Product
	row := s.pool.QueryRow(ctx, `
		SELECT product_id::text, name, description, image, price, minimum_quantity, available_quantity, created_at
		FROM products
		WHERE product_id = $1
	`, id)
	if err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Image, &product.Price, &product.MinimumQuantity, &product.AvailableQuantity, &product.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, store.ErrNotFound
		}
		return models.Product{}, err
	}
	return product, nil
}

func (s *Store) InsertProduct(ctx context.Context, product models.Product) (models.InsertResult, error) {
	productID := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (product_id, name, description, image, price, minimum_quantity, available_quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, productID, product.Name, product.Description, product.Image, product.Price, product.MinimumQuantity, product.AvailableQuantity, time.Now().UTC())
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: productID}, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (models.DeleteResult, error) {
	if !isValidUUID(id) {
		return models.DeleteResult{}, store.ErrInvalidID
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}

func (s *Store) ListReviews(ctx context.Context) ([]models.Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT review_id::text, name, email, rating, comment, image, created_at
		FROM reviews
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var review models.Review
		if err := rows.Scan(&review.ID, &review.Name, &review.Email, &review.Rating, &review.Comment, &review.Image, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *Store) InsertReview(ctx context.Context, review models.Review) (models.InsertResult, error) {
	reviewID := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reviews (review_id, name, email, rating, comment, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reviewID, review.Name, review.Email, review.Rating, review.Comment, review.Image, time.Now().UTC())
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: reviewID}, nil
}

func (s *Store) InsertOrder(ctx context.Context, order models.Order) (models.InsertResult, error) {
	orderID := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (order_id, email, name, product_id, product_name, quantity, price, address, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, orderID, order.Email, order.Name, order.ProductID, order.ProductName, order.Quantity, order.Price, order.Address, order.Phone, time.Now().UTC())
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: orderID}, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx, `
		SELECT order_id::text, email, name, product_id, product_name, quantity, price, address, phone, created_at
		FROM orders
		ORDER BY created_at ASC
	`)
}

func (s *Store) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	return s.queryOrders(ctx, `
		SELECT order_id::text, email, name, product_id, product_name, quantity, price, address, phone, created_at
		FROM orders
		WHERE email = $1
		ORDER BY created_at ASC
	`, email)
}

func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	if !isValidUUID(id) {
		return models.Order{}, store.ErrInvalidID
	}
	orders, err := s.queryOrders(ctx, `
		SELECT order_id::text, email, name, product_id, product_name, quantity, price, address, phone, created_at
		FROM orders
		WHERE order_id = $1
	`, id)
	if err != nil {
		return models.Order{}, err
	}
	if len(orders) == 0 {
		return models.Order{}, store.ErrNotFound
	}
	return orders[0], nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (models.DeleteResult, error) {
	if !isValidUUID(id) {
		return models.DeleteResult{}, store.ErrInvalidID
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := rows.Scan(&order.ID, &order.Email, &order.Name, &order.ProductID, &order.ProductName, &order.Quantity, &order.Price, &order.Address, &order.Phone, &order.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
