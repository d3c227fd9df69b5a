package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/require"

	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/database"
	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/client/repositories/metadata"
	"github.com/storyshelf/storyshelf/internal/common"
)

func newHandle(t *testing.T) *database.Handle {
	t.Helper()
	h := database.NewHandle(":memory:", nil)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func setMeta(t *testing.T, h *database.Handle, key, value string) {
	t.Helper()
	db, err := h.DB(context.Background())
	require.NoError(t, err)
	require.NoError(t, metadata.SetString(context.Background(), metadata.NewSQLiteRepository(db), key, value))
}

func getMeta(t *testing.T, h *database.Handle, key string) string {
	t.Helper()
	db, err := h.DB(context.Background())
	require.NoError(t, err)
	v, err := metadata.GetString(context.Background(), metadata.NewSQLiteRepository(db), key)
	require.NoError(t, err)
	return v
}

func signIn(t *testing.T, h *database.Handle) {
	t.Helper()
	setMeta(t, h, common.TokenMetadataKey, "opaque-token")
}

type staticOpener struct {
	db  *sql.DB
	err error
}

func (o staticOpener) DB(ctx context.Context) (*sql.DB, error) { return o.db, o.err }

type fakeOnline struct{ online bool }

func (f *fakeOnline) CheckOnlineStatus() bool { return f.online }

// fakeClient is an in-memory remote authority.
type fakeClient struct {
	mu sync.Mutex

	stories    map[string]models.Story
	vapidKey   string
	vapidCalls int

	loginRes *client.LoginResult
	loginErr error

	subscribeErr   error
	unsubscribeErr error
	registered     map[string]webpush.Subscription

	calls  []string
	tokens []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{stories: map[string]models.Story{}, registered: map[string]webpush.Subscription{}}
}

func (f *fakeClient) record(call, token string) {
	f.calls = append(f.calls, call)
	f.tokens = append(f.tokens, token)
}

func (f *fakeClient) Register(ctx context.Context, name, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("register", "")
	return nil
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*client.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("login", "")
	return f.loginRes, f.loginErr
}

func (f *fakeClient) ListStories(ctx context.Context, token string, q client.StoryQuery) ([]models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list", token)
	out := make([]models.Story, 0, len(f.stories))
	for _, s := range f.stories {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeClient) GetStory(ctx context.Context, token, id string) (*models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get", token)
	s, ok := f.stories[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (f *fakeClient) VAPIDPublicKey(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vapidCalls++
	f.record("vapid", "")
	return f.vapidKey, nil
}

func (f *fakeClient) Subscribe(ctx context.Context, token string, sub *webpush.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("subscribe", token)
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.registered[sub.Endpoint] = *sub
	return nil
}

func (f *fakeClient) Unsubscribe(ctx context.Context, token, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unsubscribe", token)
	if f.unsubscribeErr != nil {
		return f.unsubscribeErr
	}
	delete(f.registered, endpoint)
	return nil
}

func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) networkCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeWorker struct{}

func (fakeWorker) Register(ctx context.Context) error             { return nil }
func (fakeWorker) Push(ctx context.Context, payload []byte) error { return nil }

type fakePrompter struct {
	mu     sync.Mutex
	answer bool
	calls  int
}

func (f *fakePrompter) Prompt(ctx context.Context, q string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.answer, nil
}
