package mongo

import (
	"context"
	"os"
	"strings"
	"testing"

	"carparts/catalog-service/internal/models"
	"carparts/catalog-service/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is required for integration tests")
	}
	ctx := context.Background()
	database := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	st, err := Connect(ctx, uri, database)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.client.Database(database).Drop(context.Background())
		_ = st.Close(context.Background())
	})
	return st
}

func TestUpsertAndSetRole(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)

	res, err := st.UpsertByEmail(ctx, "alice@x.com", models.UserProfile{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.UpsertedCount)
	assert.Equal(t, "alice@x.com", res.UpsertedID)

	res, err = st.UpsertByEmail(ctx, "alice@x.com", models.UserProfile{Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Zero(t, res.ModifiedCount)

	res, err = st.SetRole(ctx, "alice@x.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ModifiedCount)

	user, err := st.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, "Alice", user.Name)

	res, err = st.SetRole(ctx, "ghost@x.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, res.MatchedCount)
	_, err = st.FindByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductIDs(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)

	ins, err := st.InsertProduct(ctx, models.Product{Name: "Air filter"})
	require.NoError(t, err)
	require.Len(t, ins.InsertedID, 24)

	product, err := st.GetProduct(ctx, ins.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, ins.InsertedID, product.ID)

	_, err = st.GetProduct(ctx, "xyz")
	assert.ErrorIs(t, err, store.ErrInvalidID)

	del, err := st.DeleteProduct(ctx, ins.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	_, err = st.GetProduct(ctx, ins.InsertedID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
