package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/common"
	"github.com/storyshelf/storyshelf/internal/dbx"
)

const columns = `endpoint, p256dh, auth, private_key, auth_secret, application_server_key, created_at`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.PushSubscription) error {
	query := `INSERT INTO push_subscription (` + columns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(endpoint) DO UPDATE SET p256dh = excluded.p256dh,
				auth = excluded.auth,
				private_key = excluded.private_key,
				auth_secret = excluded.auth_secret,
				application_server_key = excluded.application_server_key`
	_, err := r.db.ExecContext(ctx, query,
		s.Endpoint, s.Keys.P256dh, s.Keys.Auth, s.PrivateKey, s.AuthSecret,
		s.ApplicationServerKey, s.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Current(ctx context.Context) (*models.PushSubscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM push_subscription ORDER BY created_at DESC LIMIT 1`)
	return scan(row)
}

func (r *SQLiteRepository) GetByEndpoint(ctx context.Context, endpoint string) (*models.PushSubscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM push_subscription WHERE endpoint = ?`, endpoint)
	return scan(row)
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM push_subscription`); err != nil {
		return fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return nil
}

func scan(row *sql.Row) (*models.PushSubscription, error) {
	var (
		s       models.PushSubscription
		created string
	)
	err := row.Scan(&s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &s.PrivateKey, &s.AuthSecret,
		&s.ApplicationServerKey, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("subscription %s: bad created_at: %w", s.Endpoint, err)
	}
	return &s, nil
}
