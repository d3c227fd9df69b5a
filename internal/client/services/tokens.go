package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storyshelf/storyshelf/internal/client/repositories/metadata"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/dbx"
)

// TokenSource yields the bearer token of the signed-in user.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// MetadataTokenSource reads the token stored under common.TokenMetadataKey.
// It never writes it.
type MetadataTokenSource struct {
	db  dbx.Opener
	now func() time.Time
}

func NewMetadataTokenSource(db dbx.Opener) *MetadataTokenSource {
	return &MetadataTokenSource{db: db, now: time.Now}
}

// Token returns ErrUnauthenticated when no token is stored or when the
// token is a JWT whose exp has passed. Opaque tokens are returned as is;
// the server remains the authority on their validity.
func (s *MetadataTokenSource) Token(ctx context.Context) (string, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return "", storageErr("open", err)
	}
	tok, err := metadata.GetString(ctx, metadata.NewSQLiteRepository(db), common.TokenMetadataKey)
	if err != nil {
		return "", storageErr("read token", err)
	}
	if tok == "" {
		return "", ErrUnauthenticated
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return tok, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, common.ErrInvalidToken)
	}
	if exp != nil && !s.now().Before(exp.Time) {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, common.ErrTokenExpired)
	}
	return tok, nil
}
