package main

import (
	"context"
	"testing"

	"carparts/catalog-service/internal/config"
	"carparts/catalog-service/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreDriver = config.DriverMemory

	st, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, st)
	assert.NoError(t, st.Close(context.Background()))
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.StoreDriver = "sqlite"

	_, err := openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store driver")
}
