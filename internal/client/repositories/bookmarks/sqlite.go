package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/dbx"
)

const timeLayout = time.RFC3339Nano

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert adds b. Conflicts on id are detected through the affected row count
// so the existing row is never touched.
func (r *SQLiteRepository) Insert(ctx context.Context, b *models.Bookmark) error {
	query := `INSERT INTO bookmarked_stories
			(id, name, description, photo_url, lat, lon, created_at, bookmarked_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		b.ID, b.Name, b.Description, b.PhotoURL,
		nullFloat(b.Lat), nullFloat(b.Lon),
		b.CreatedAt.UTC().Format(timeLayout), b.BookmarkedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return ErrDuplicateKey
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Bookmark, error) {
	query := `SELECT id, name, description, photo_url, lat, lon, created_at, bookmarked_at
			FROM bookmarked_stories`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select bookmarks: %w", err)
	}
	defer rows.Close()

	result := []models.Bookmark{}
	for rows.Next() {
		var (
			b                   models.Bookmark
			lat, lon            sql.NullFloat64
			created, bookmarked string
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.PhotoURL, &lat, &lon, &created, &bookmarked); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark row: %w", err)
		}
		if b.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("bookmark %s: bad created_at: %w", b.ID, err)
		}
		if b.BookmarkedAt, err = time.Parse(timeLayout, bookmarked); err != nil {
			return nil, fmt.Errorf("bookmark %s: bad bookmarked_at: %w", b.ID, err)
		}
		b.Lat = floatPtr(lat)
		b.Lon = floatPtr(lon)
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmark rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarked_stories WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookmarked_stories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete bookmark %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookmarked_stories`); err != nil {
		return fmt.Errorf("failed to clear bookmarks: %w", err)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
