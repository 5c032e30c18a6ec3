package postgres

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndSetRole(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	res, err := st.UpsertByEmail(ctx, "alice@x.com", models.UserProfile{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.UpsertedCount)

	res, err = st.UpsertByEmail(ctx, "alice@x.com", models.UserProfile{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, models.UpdateResult{Acknowledged: true, MatchedCount: 1}, res)

	res, err = st.UpsertByEmail(ctx, "alice@x.com", models.UserProfile{Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ModifiedCount)

	user, err := st.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "555", user.Phone)
	assert.False(t, user.IsAdmin())

	res, err = st.SetRole(ctx, "alice@x.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, res)

	res, err = st.SetRole(ctx, "alice@x.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateResult{Acknowledged: true, MatchedCount: 1}, res)

	res, err = st.SetRole(ctx, "ghost@x.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, res.MatchedCount)
	_, err = st.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentLoginKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.UpsertByEmail(ctx, "race@x.com", models.UserProfile{Name: "Race"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	ins, err := st.InsertProduct(ctx, models.Product{Name: "Spark plug", Price: 4.25, AvailableQuantity: 100})
	require.NoError(t, err)
	product, err := st.GetProduct(ctx, ins.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "Spark plug", product.Name)

	_, err = st.GetProduct(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrInvalidID)
	_, err = st.GetProduct(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	orderRes, err := st.InsertOrder(ctx, models.Order{Email: "bob@x.com", ProductID: ins.InsertedID, Quantity: 2})
	require.NoError(t, err)
	orders, err := st.ListOrdersByEmail(ctx, "bob@x.com")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderRes.InsertedID, orders[0].ID)

	del, err := st.DeleteOrder(ctx, orderRes.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	_, err = st.InsertReview(ctx, models.Review{Name: "Bob", Rating: 5})
	require.NoError(t, err)
	reviews, err := st.ListReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t, ctx)

	require.NoError(t, Migrate(ctx, st.pool))
	_, err := st.UpsertByEmail(ctx, "again@x.com", models.UserProfile{})
	require.NoError(t, err)
}

func setupTestStore(t *testing.T, ctx context.Context) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	require.NoError(t, execOnce(ctx, dsn, "CREATE SCHEMA "+schema))

	scoped := withSearchPath(t, dsn, schema)
	pool, err := pgxpool.New(ctx, scoped)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Close()
		_ = execOnce(context.Background(), dsn, "DROP SCHEMA "+schema+" CASCADE")
	})

	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, pool.Ping(ctx), "pool must stay usable after migrating")
	return NewStore(pool)
}

func execOnce(ctx context.Context, dsn, statement string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, statement)
	return err
}

func withSearchPath(t *testing.T, dsn, schema string) string {
	t.Helper()
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String()
}
