// Package mongo stores the catalog in MongoDB, one collection per resource
// with orders kept in "orders2".
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	reviewsCollection  = "reviews"
	ordersCollection   = "orders2"
)

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	products *mongo.Collection
	reviews  *mongo.Collection
	orders   *mongo.Collection
}

// Connect dials uri and verifies the deployment with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	st := NewStore(client, database)
	if err := st.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return st, nil
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
		reviews:  db.Collection(reviewsCollection),
		orders:   db.Collection(ordersCollection),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) UpsertByEmail(ctx context.Context, email string, profile models.UserProfile) (models.UpdateResult, error) {
	now := time.Now().UTC()
	set := bson.M{"email": email}
	for field, value := range map[string]string{
		"name":    profile.Name,
		"phone":   profile.Phone,
		"address": profile.Address,
		"image":   profile.Image,
	} {
		if value != "" {
			set[field] = value
		}
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now, "updated_at": now},
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return models.UpdateResult{}, err
	}
	result := updateResult(res)
	if result.UpsertedCount > 0 {
		result.UpsertedID = email
	}
	if result.ModifiedCount > 0 {
		if _, err := s.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"updated_at": now}}); err != nil {
			return models.UpdateResult{}, err
		}
	}
	return result, nil
}

func (s *Store) SetRole(ctx context.Context, email, role string) (models.UpdateResult, error) {
	res, err := s.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return models.UpdateResult{}, err
	}
	return updateResult(res), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.findAll(ctx, s.users, bson.M{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.findAll(ctx, s.products, bson.M{}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	if err := s.findByID(ctx, s.products, id, &product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *Store) InsertProduct(ctx context.Context, product models.Product) (models.InsertResult, error) {
	product.ID = ""
	product.CreatedAt = time.Now().UTC()
	return insertOne(ctx, s.products, product)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (models.DeleteResult, error) {
	return deleteByID(ctx, s.products, id)
}

func (s *Store) ListReviews(ctx context.Context) ([]models.Review, error) {
	reviews := []models.Review{}
	if err := s.findAll(ctx, s.reviews, bson.M{}, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *Store) InsertReview(ctx context.Context, review models.Review) (models.InsertResult, error) {
	review.ID = ""
	review.CreatedAt = time.Now().UTC()
	return insertOne(ctx, s.reviews, review)
}

func (s *Store) InsertOrder(ctx context.Context, order models.Order) (models.InsertResult, error) {
	order.ID = ""
	order.CreatedAt = time.Now().UTC()
	return insertOne(ctx, s.orders, order)
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := s.findAll(ctx, s.orders, bson.M{}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	orders := []models.Order{}
	if err := s.findAll(ctx, s.orders, bson.M{"email": email}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	if err := s.findByID(ctx, s.orders, id, &order); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (models.DeleteResult, error) {
	return deleteByID(ctx, s.orders, id)
}

func (s *Store) findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, out interface{}) error {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func (s *Store) findByID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrInvalidID
	}
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func insertOne(ctx context.Context, coll *mongo.Collection, doc interface{}) (models.InsertResult, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) (models.DeleteResult, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.DeleteResult{}, store.ErrInvalidID
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func updateResult(res *mongo.UpdateResult) models.UpdateResult {
	result := models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if res.UpsertedID != nil {
		result.UpsertedID = idString(res.UpsertedID)
	}
	return result
}

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
