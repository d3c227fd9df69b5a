package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/client/platform"
	"github.com/storyshelf/storyshelf/internal/client/repositories/metadata"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/cryptox"
	"github.com/storyshelf/storyshelf/internal/dbx"
	"github.com/storyshelf/storyshelf/internal/logging"
)

// PushState is where the device stands in the subscription lifecycle.
type PushState int

const (
	Unregistered PushState = iota
	PermissionGranted
	LocallySubscribed
	FullySubscribed
)

func (s PushState) String() string {
	switch s {
	case PermissionGranted:
		return "permission granted"
	case LocallySubscribed:
		return "subscribed on this device only"
	case FullySubscribed:
		return "subscribed"
	default:
		return "not subscribed"
	}
}

// PushPlatform is the device side of push messaging.
type PushPlatform interface {
	RegisterWorker(ctx context.Context) error
	Permission(ctx context.Context) (platform.Permission, error)
	RequestPermission(ctx context.Context) (platform.Permission, error)
	Subscription(ctx context.Context) (*models.PushSubscription, error)
	Subscribe(ctx context.Context, applicationServerKey []byte) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context) (bool, error)
}

// PushService keeps notification permission, the device subscription and
// the remote authority's record of it consistent for the signed-in user.
//
// Subscribe walks Unregistered -> PermissionGranted -> LocallySubscribed ->
// FullySubscribed. When the server step fails the device subscription is
// kept and RegisterWithServer can retry that step alone. Unsubscribe tears
// the device subscription down first and then deletes the remote record; a
// failed remote delete is reported as *PartialUnsubscribeError and can be
// retried with RetryRemoteDeletion.
type PushService interface {
	Subscribe(ctx context.Context) (*models.PushSubscription, error)
	RegisterWithServer(ctx context.Context) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context) error
	RetryRemoteDeletion(ctx context.Context) error
	CheckSubscription(ctx context.Context) (*models.PushSubscription, error)
	State(ctx context.Context) (PushState, error)
	PendingRemoteDeletion(ctx context.Context) (string, error)
}

const serverKeyCacheKey = "application_server_key"

type pushService struct {
	client   client.Client
	platform PushPlatform
	tokens   TokenSource
	db       dbx.Opener
	online   Connectivity
	fixedKey string
	keys     *cache.Cache
	log      logging.Logger
}

// NewPushService builds the manager. fixedKey is the server's public key;
// when empty it is fetched from the API and cached for an hour.
func NewPushService(c client.Client, p PushPlatform, tokens TokenSource, db dbx.Opener, online Connectivity, fixedKey string, log logging.Logger) PushService {
	return &pushService{
		client:   c,
		platform: p,
		tokens:   tokens,
		db:       db,
		online:   online,
		fixedKey: fixedKey,
		keys:     cache.New(time.Hour, 10*time.Minute),
		log:      logging.OrNop(log).With("component", "push"),
	}
}

func (s *pushService) meta(ctx context.Context) (metadata.Repository, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return nil, storageErr("open", err)
	}
	return metadata.NewSQLiteRepository(db), nil
}

// precheck fails fast before any network call.
func (s *pushService) precheck(ctx context.Context) (string, error) {
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return "", err
	}
	if isOffline(s.online) {
		return "", ErrOffline
	}
	return tok, nil
}

func (s *pushService) applicationServerKey(ctx context.Context) ([]byte, error) {
	raw := s.fixedKey
	if raw == "" {
		if v, ok := s.keys.Get(serverKeyCacheKey); ok {
			raw = v.(string)
		} else {
			k, err := s.client.VAPIDPublicKey(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetch server key: %w", err)
			}
			s.keys.SetDefault(serverKeyCacheKey, k)
			raw = k
		}
	}
	return cryptox.DecodeApplicationServerKey(raw)
}

func (s *pushService) Subscribe(ctx context.Context) (*models.PushSubscription, error) {
	tok, err := s.precheck(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.platform.RegisterWorker(ctx); err != nil {
		return nil, err
	}
	perm, err := s.platform.RequestPermission(ctx)
	if err != nil {
		return nil, err
	}
	if perm != platform.PermissionGranted {
		return nil, ErrPermissionDenied
	}

	key, err := s.applicationServerKey(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := s.platform.Subscribe(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("subscribe on device: %w", err)
	}

	return sub, s.register(ctx, tok, sub)
}

func (s *pushService) RegisterWithServer(ctx context.Context) (*models.PushSubscription, error) {
	tok, err := s.precheck(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := s.platform.Subscription(ctx)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotSubscribed
	}
	return sub, s.register(ctx, tok, sub)
}

// register posts sub to the remote authority and records the
// acknowledgment.
func (s *pushService) register(ctx context.Context, tok string, sub *models.PushSubscription) error {
	if err := s.client.Subscribe(ctx, tok, sub.Wire()); err != nil {
		status, msg := remoteDetail(err)
		s.log.Warn(ctx, "server registration failed", "endpoint", sub.Endpoint, "status", status, "error", err)
		return &ServerRegistrationError{Endpoint: sub.Endpoint, Status: status, Message: msg, Err: err}
	}

	repo, err := s.meta(ctx)
	if err != nil {
		return err
	}
	if err := metadata.SetString(ctx, repo, common.PushRegisteredMetadataKey, sub.Endpoint); err != nil {
		return storageErr("record registration", err)
	}
	s.log.Info(ctx, "push subscription registered", "endpoint", sub.Endpoint)
	return nil
}

func (s *pushService) Unsubscribe(ctx context.Context) error {
	tok, err := s.precheck(ctx)
	if err != nil {
		return err
	}

	sub, err := s.platform.Subscription(ctx)
	if err != nil {
		return err
	}
	repo, err := s.meta(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		return storageErr("forget registration", repo.Delete(ctx, common.PushRegisteredMetadataKey))
	}

	// The pending marker goes first: once the device side is gone, the
	// endpoint is only known from here.
	if err := metadata.SetString(ctx, repo, common.PushPendingDeleteMetadataKey, sub.Endpoint); err != nil {
		return storageErr("record pending deletion", err)
	}
	if _, err := s.platform.Unsubscribe(ctx); err != nil {
		if derr := repo.Delete(ctx, common.PushPendingDeleteMetadataKey); derr != nil {
			s.log.Warn(ctx, "could not clear pending deletion", "error", derr)
		}
		return fmt.Errorf("unsubscribe on device: %w", err)
	}
	if err := repo.Delete(ctx, common.PushRegisteredMetadataKey); err != nil {
		s.log.Warn(ctx, "could not forget registration", "endpoint", sub.Endpoint, "error", err)
	}

	if err := s.client.Unsubscribe(ctx, tok, sub.Endpoint); err != nil {
		status, msg := remoteDetail(err)
		s.log.Warn(ctx, "remote unsubscribe failed", "endpoint", sub.Endpoint, "status", status, "error", err)
		return &PartialUnsubscribeError{Endpoint: sub.Endpoint, Status: status, Message: msg, Err: err}
	}
	if err := repo.Delete(ctx, common.PushPendingDeleteMetadataKey); err != nil {
		s.log.Warn(ctx, "could not clear pending deletion", "endpoint", sub.Endpoint, "error", err)
	}

	s.log.Info(ctx, "push subscription removed", "endpoint", sub.Endpoint)
	return nil
}

func (s *pushService) RetryRemoteDeletion(ctx context.Context) error {
	endpoint, err := s.PendingRemoteDeletion(ctx)
	if err != nil || endpoint == "" {
		return err
	}
	tok, err := s.precheck(ctx)
	if err != nil {
		return err
	}

	if err := s.client.Unsubscribe(ctx, tok, endpoint); err != nil {
		status, msg := remoteDetail(err)
		return &PartialUnsubscribeError{Endpoint: endpoint, Status: status, Message: msg, Err: err}
	}
	repo, err := s.meta(ctx)
	if err != nil {
		return err
	}
	return storageErr("clear pending deletion", repo.Delete(ctx, common.PushPendingDeleteMetadataKey))
}

func (s *pushService) PendingRemoteDeletion(ctx context.Context) (string, error) {
	repo, err := s.meta(ctx)
	if err != nil {
		return "", err
	}
	v, err := metadata.GetString(ctx, repo, common.PushPendingDeleteMetadataKey)
	return v, storageErr("read pending deletion", err)
}

// CheckSubscription only inspects the device subscription.
func (s *pushService) CheckSubscription(ctx context.Context) (*models.PushSubscription, error) {
	return s.platform.Subscription(ctx)
}

// State derives the lifecycle state without changing anything.
func (s *pushService) State(ctx context.Context) (PushState, error) {
	sub, err := s.platform.Subscription(ctx)
	if err != nil {
		return Unregistered, err
	}
	if sub != nil {
		repo, err := s.meta(ctx)
		if err != nil {
			return Unregistered, err
		}
		registered, err := metadata.GetString(ctx, repo, common.PushRegisteredMetadataKey)
		if err != nil {
			return Unregistered, storageErr("read registration", err)
		}
		if registered == sub.Endpoint {
			return FullySubscribed, nil
		}
		return LocallySubscribed, nil
	}

	perm, err := s.platform.Permission(ctx)
	if err != nil {
		return Unregistered, err
	}
	if perm == platform.PermissionGranted {
		return PermissionGranted, nil
	}
	return Unregistered, nil
}
