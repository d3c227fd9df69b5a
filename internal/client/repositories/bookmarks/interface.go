package bookmarks

import (
	"context"
	"errors"

	"github.com/storyshelf/storyshelf/internal/client/models"
)

// ErrDuplicateKey is returned by Insert when a bookmark with the same story id
// already exists.
var ErrDuplicateKey = errors.New("bookmark already exists")

// Repository describes storage operations for bookmarked stories.
type Repository interface {
	// Insert stores b. It never overwrites an existing record.
	Insert(ctx context.Context, b *models.Bookmark) error

	// GetAll returns every record in store order; an empty store yields an
	// empty slice.
	GetAll(ctx context.Context) ([]models.Bookmark, error)

	// Exists reports whether a record with id is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// DeleteByID removes the record with id. Absent ids are not an error.
	DeleteByID(ctx context.Context, id string) error

	// Clear removes every record.
	Clear(ctx context.Context) error
}
