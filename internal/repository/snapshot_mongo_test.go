package repository

import (
	"context"
	"testing"

	"github.com/hearthbakery/storefront/internal/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (*MongoSnapshotStore, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	store := NewMongoSnapshotStore(db)
	require.NoError(t, store.CreateIndexes(ctx))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func TestMongoSnapshot_NotFound(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	data, err := store.Load(context.Background(), "cart:nobody")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
	assert.Nil(t, data)
}

func TestMongoSnapshot_UpsertAndDelete(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "cart:default", []byte(`{"version":1}`)))
	require.NoError(t, store.Save(ctx, "cart:default", []byte(`{"version":1,"isOpen":true}`)))

	data, err := store.Load(ctx, "cart:default")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"isOpen":true}`, string(data))

	require.NoError(t, store.Delete(ctx, "cart:default"))
	_, err = store.Load(ctx, "cart:default")
	assert.ErrorIs(t, err, cart.ErrSnapshotNotFound)
}
