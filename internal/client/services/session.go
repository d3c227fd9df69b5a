package services

import (
	"context"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/repositories/metadata"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/dbx"
	"github.com/storyshelf/storyshelf/internal/logging"
)

// Connectivity reports whether network operations may be attempted.
type Connectivity interface {
	CheckOnlineStatus() bool
}

func isOffline(c Connectivity) bool {
	return c != nil && !c.CheckOnlineStatus()
}

// AuthService manages the session with the story API.
//
// Contract:
//   - Register and Login need connectivity and fail with ErrOffline otherwise.
//   - Login persists the token and display name for later runs.
//   - Logout forgets them; bookmarks and push state are kept.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     dbx.Opener
	online Connectivity
	log    logging.Logger
}

func NewAuthService(c client.Client, db dbx.Opener, online Connectivity, log logging.Logger) AuthService {
	return &authService{client: c, db: db, online: online, log: logging.OrNop(log)}
}

func (a *authService) Register(ctx context.Context, name, email, password string) error {
	if isOffline(a.online) {
		return ErrOffline
	}
	if err := a.client.Register(ctx, name, email, password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	a.log.Info(ctx, "account registered", "email", email)
	return nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*client.LoginResult, error) {
	if isOffline(a.online) {
		return nil, ErrOffline
	}
	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := a.saveSession(ctx, res); err != nil {
		return nil, err
	}
	a.log.Info(ctx, "signed in", "user_id", res.UserID)
	return res, nil
}

// saveSession stores the token and user name in a single transaction.
func (a *authService) saveSession(ctx context.Context, res *client.LoginResult) error {
	db, err := a.db.DB(ctx)
	if err != nil {
		return storageErr("open", err)
	}
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := metadata.SetString(ctx, repo, common.TokenMetadataKey, res.Token); err != nil {
			return err
		}
		return metadata.SetString(ctx, repo, common.UserNameMetadataKey, res.Name)
	})
	return storageErr("save session", err)
}

func (a *authService) Logout(ctx context.Context) error {
	db, err := a.db.DB(ctx)
	if err != nil {
		return storageErr("open", err)
	}
	err = metadata.NewSQLiteRepository(db).Delete(ctx, common.TokenMetadataKey, common.UserNameMetadataKey)
	return storageErr("logout", err)
}

func (a *authService) CurrentUser(ctx context.Context) (string, error) {
	db, err := a.db.DB(ctx)
	if err != nil {
		return "", storageErr("open", err)
	}
	name, err := metadata.GetString(ctx, metadata.NewSQLiteRepository(db), common.UserNameMetadataKey)
	return name, storageErr("read user", err)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
