package subscriptions

import (
	"context"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/storyshelf/storyshelf/internal/client/database"
	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/common"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db)
}

func sub(endpoint string, created time.Time) *models.PushSubscription {
	return &models.PushSubscription{
		Endpoint:             endpoint,
		Keys:                 webpush.Keys{P256dh: "p256dh-" + endpoint, Auth: "auth-" + endpoint},
		PrivateKey:           []byte{1, 2, 3},
		AuthSecret:           []byte{4, 5, 6},
		ApplicationServerKey: "server-key",
		CreatedAt:            created,
	}
}

func TestCurrent_Empty(t *testing.T) {
	r := newRepo(t)

	_, err := r.Current(context.Background())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSaveCurrentAndGet(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	older := sub("http://127.0.0.1/push/a", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sub("http://127.0.0.1/push/b", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, r.Save(ctx, older))
	require.NoError(t, r.Save(ctx, newer))

	got, err := r.Current(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(newer, got); diff != "" {
		t.Fatalf("current mismatch (-want +got):\n%s", diff)
	}

	got, err = r.GetByEndpoint(ctx, older.Endpoint)
	require.NoError(t, err)
	if diff := cmp.Diff(older, got); diff != "" {
		t.Fatalf("by endpoint mismatch (-want +got):\n%s", diff)
	}

	_, err = r.GetByEndpoint(ctx, "http://127.0.0.1/push/none")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteAll(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sub("e1", time.Now())))
	require.NoError(t, r.DeleteAll(ctx))

	_, err := r.Current(ctx)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, r.DeleteAll(ctx))
}
