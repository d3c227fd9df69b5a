// Package platform is the device side of push messaging: it owns the
// notification permission, the worker registration and the push
// subscription (endpoint plus key material), and runs the HTTP receiver
// that push messages are delivered to.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/client/repositories/metadata"
	"github.com/storyshelf/storyshelf/internal/client/repositories/subscriptions"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/cryptox"
	"github.com/storyshelf/storyshelf/internal/dbx"
	"github.com/storyshelf/storyshelf/internal/logging"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

var (
	ErrNoWorker              = errors.New("no worker registered")
	ErrPermissionNotGranted  = errors.New("notification permission not granted")
	ErrApplicationKeyChanged = errors.New("a subscription with a different application server key already exists")
)

// Worker is the background worker as seen by the platform: something that
// can be registered and that receives decrypted push payloads.
type Worker interface {
	Register(ctx context.Context) error
	Push(ctx context.Context, payload []byte) error
}

// Prompter asks the user a yes/no question. It may block indefinitely.
type Prompter interface {
	Prompt(ctx context.Context, question string) (bool, error)
}

const permissionQuestion = "Allow Dicoding Story to show notifications?"

type Platform struct {
	db          dbx.Opener
	worker      Worker
	prompter    Prompter
	receiverURL string
	log         logging.Logger
	now         func() time.Time

	mu         sync.Mutex
	denied     bool
	registered bool
}

// New returns a platform whose subscriptions point at receiverURL, the base
// URL the Receiver is reachable on.
func New(db dbx.Opener, worker Worker, prompter Prompter, receiverURL string, log logging.Logger) *Platform {
	return &Platform{
		db:          db,
		worker:      worker,
		prompter:    prompter,
		receiverURL: strings.TrimRight(receiverURL, "/"),
		log:         logging.OrNop(log).With("component", "platform"),
		now:         time.Now,
	}
}

// RegisterWorker registers the background worker. Repeated calls are cheap.
func (p *Platform) RegisterWorker(ctx context.Context) error {
	if p.worker == nil {
		return ErrNoWorker
	}
	if err := p.worker.Register(ctx); err != nil {
		return fmt.Errorf("register worker: %w", err)
	}
	p.mu.Lock()
	p.registered = true
	p.mu.Unlock()
	return nil
}

// Permission reports the current notification permission without prompting.
func (p *Platform) Permission(ctx context.Context) (Permission, error) {
	p.mu.Lock()
	denied := p.denied
	p.mu.Unlock()
	if denied {
		return PermissionDenied, nil
	}

	db, err := p.db.DB(ctx)
	if err != nil {
		return PermissionDefault, err
	}
	v, err := metadata.GetString(ctx, metadata.NewSQLiteRepository(db), common.PermissionMetadataKey)
	if err != nil {
		return PermissionDefault, err
	}
	if Permission(v) == PermissionGranted {
		return PermissionGranted, nil
	}
	return PermissionDefault, nil
}

// RequestPermission prompts the user unless a decision already exists.
// A grant is persisted; a denial lasts for the lifetime of the process.
func (p *Platform) RequestPermission(ctx context.Context) (Permission, error) {
	perm, err := p.Permission(ctx)
	if err != nil || perm != PermissionDefault {
		return perm, err
	}
	if p.prompter == nil {
		return p.deny(ctx), nil
	}

	ok, err := p.prompter.Prompt(ctx, permissionQuestion)
	if err != nil {
		return PermissionDefault, fmt.Errorf("permission prompt: %w", err)
	}
	if !ok {
		return p.deny(ctx), nil
	}

	db, err := p.db.DB(ctx)
	if err != nil {
		return PermissionDefault, err
	}
	if err := metadata.SetString(ctx, metadata.NewSQLiteRepository(db), common.PermissionMetadataKey, string(PermissionGranted)); err != nil {
		return PermissionDefault, err
	}
	p.log.Info(ctx, "notification permission granted")
	return PermissionGranted, nil
}

func (p *Platform) deny(ctx context.Context) Permission {
	p.mu.Lock()
	p.denied = true
	p.mu.Unlock()
	p.log.Info(ctx, "notification permission denied")
	return PermissionDenied
}

// Subscription returns the current subscription, or nil when there is none.
func (p *Platform) Subscription(ctx context.Context) (*models.PushSubscription, error) {
	db, err := p.db.DB(ctx)
	if err != nil {
		return nil, err
	}
	s, err := subscriptions.NewSQLiteRepository(db).Current(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	return s, err
}

// Subscribe creates a push subscription bound to applicationServerKey, or
// returns the existing one when it was created for the same key.
func (p *Platform) Subscribe(ctx context.Context, applicationServerKey []byte) (*models.PushSubscription, error) {
	p.mu.Lock()
	registered := p.registered
	p.mu.Unlock()
	if !registered {
		return nil, ErrNoWorker
	}
	perm, err := p.Permission(ctx)
	if err != nil {
		return nil, err
	}
	if perm != PermissionGranted {
		return nil, ErrPermissionNotGranted
	}

	key := cryptox.EncodeKey(applicationServerKey)
	existing, err := p.Subscription(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.ApplicationServerKey != key {
			return nil, ErrApplicationKeyChanged
		}
		return existing, nil
	}

	priv, err := cryptox.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate subscription key: %w", err)
	}
	auth := common.GenerateRandByteArray(cryptox.AuthKeySize)

	sub := &models.PushSubscription{
		Endpoint:             p.receiverURL + "/push/" + uuid.NewString(),
		PrivateKey:           priv.Bytes(),
		AuthSecret:           auth,
		ApplicationServerKey: key,
		CreatedAt:            p.now().UTC(),
	}
	sub.Keys.P256dh = cryptox.EncodeKey(priv.PublicKey().Bytes())
	sub.Keys.Auth = cryptox.EncodeKey(auth)

	db, err := p.db.DB(ctx)
	if err != nil {
		return nil, err
	}
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := subscriptions.NewSQLiteRepository(tx)
		if err := repo.DeleteAll(ctx); err != nil {
			return err
		}
		return repo.Save(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	p.log.Info(ctx, "push subscription created", "endpoint", sub.Endpoint)
	return sub, nil
}

// Unsubscribe removes the subscription and reports whether one existed.
// Messages sent to the old endpoint are rejected from then on.
func (p *Platform) Unsubscribe(ctx context.Context) (bool, error) {
	existing, err := p.Subscription(ctx)
	if err != nil || existing == nil {
		return false, err
	}

	db, err := p.db.DB(ctx)
	if err != nil {
		return false, err
	}
	if err := subscriptions.NewSQLiteRepository(db).DeleteAll(ctx); err != nil {
		return false, err
	}
	p.log.Info(ctx, "push subscription removed", "endpoint", existing.Endpoint)
	return true, nil
}
