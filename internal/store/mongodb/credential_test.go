package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Harshitk-cp/crmgate/internal/domain"
	"github.com/Harshitk-cp/crmgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCredentialStore_Mongo(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, uri, "crmgate-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	const d = "mongo-test.bitrix24.com"
	_, _ = s.tokens.DeleteMany(ctx, bson.D{{Key: "domain", Value: d}})

	_, err = s.Get(ctx, d)
	assert.ErrorIs(t, err, store.ErrNotFound)

	first, err := s.UpsertActive(ctx, d, "access-1", "refresh-1", 3600)
	require.NoError(t, err)
	second, err := s.UpsertActive(ctx, d, "access-2", "refresh-2", 3600)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	n, err := s.tokens.CountDocuments(ctx, bson.D{{Key: "domain", Value: d}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.MarkInvalid(ctx, d))
	_, err = s.UpdateTokens(ctx, d, "access-3", "refresh-3", 60)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Get(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, domain.CredentialInvalid, got.Status)
	assert.Equal(t, "access-2", got.AccessToken)
}
