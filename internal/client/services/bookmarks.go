package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/client/repositories/bookmarks"
	"github.com/storyshelf/storyshelf/internal/dbx"
	"github.com/storyshelf/storyshelf/internal/logging"
)

// BookmarkService is the durable bookmark store.
//
// Every method opens the database on first use, so callers never have to
// call Initialize first. Storage engine failures come back as
// *StorageError; Save of an existing id fails with bookmarks.ErrDuplicateKey
// and leaves the stored record as it was.
type BookmarkService interface {
	Initialize(ctx context.Context) error
	Save(ctx context.Context, s models.Story) (*models.Bookmark, error)
	GetAll(ctx context.Context) ([]models.Bookmark, error)
	Remove(ctx context.Context, id string) error
	IsBookmarked(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error

	// BookmarkStory fetches story id from the API and saves its snapshot.
	BookmarkStory(ctx context.Context, id string) (*models.Bookmark, error)
	// Toggle removes the bookmark for id if present, otherwise creates it
	// through BookmarkStory. It reports whether id is bookmarked afterwards.
	Toggle(ctx context.Context, id string) (bool, error)
}

type bookmarkService struct {
	db      dbx.Opener
	stories StoryService
	log     logging.Logger
	now     func() time.Time
}

func NewBookmarkService(db dbx.Opener, stories StoryService, log logging.Logger) BookmarkService {
	return &bookmarkService{
		db:      db,
		stories: stories,
		log:     logging.OrNop(log).With("component", "bookmarks"),
		now:     time.Now,
	}
}

func (s *bookmarkService) conn(ctx context.Context) (*sql.DB, error) {
	db, err := s.db.DB(ctx)
	if err != nil {
		return nil, storageErr("open", err)
	}
	return db, nil
}

func (s *bookmarkService) getRepo(ctx context.Context) (bookmarks.Repository, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return bookmarks.NewSQLiteRepository(db), nil
}

func (s *bookmarkService) Initialize(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *bookmarkService) Save(ctx context.Context, story models.Story) (*models.Bookmark, error) {
	repo, err := s.getRepo(ctx)
	if err != nil {
		return nil, err
	}

	b := models.NewBookmark(story, s.now())
	if err := repo.Insert(ctx, &b); err != nil {
		if errors.Is(err, bookmarks.ErrDuplicateKey) {
			return nil, err
		}
		return nil, storageErr("save", err)
	}
	s.log.Info(ctx, "bookmark saved", "story_id", b.ID)
	return &b, nil
}

func (s *bookmarkService) GetAll(ctx context.Context) ([]models.Bookmark, error) {
	repo, err := s.getRepo(ctx)
	if err != nil {
		return nil, err
	}
	all, err := repo.GetAll(ctx)
	if err != nil {
		return nil, storageErr("get all", err)
	}
	return all, nil
}

func (s *bookmarkService) Remove(ctx context.Context, id string) error {
	repo, err := s.getRepo(ctx)
	if err != nil {
		return err
	}
	if err := repo.DeleteByID(ctx, id); err != nil {
		return storageErr("remove", err)
	}
	s.log.Info(ctx, "bookmark removed", "story_id", id)
	return nil
}

func (s *bookmarkService) IsBookmarked(ctx context.Context, id string) (bool, error) {
	repo, err := s.getRepo(ctx)
	if err != nil {
		return false, err
	}
	ok, err := repo.Exists(ctx, id)
	if err != nil {
		return false, storageErr("lookup", err)
	}
	return ok, nil
}

func (s *bookmarkService) Clear(ctx context.Context) error {
	repo, err := s.getRepo(ctx)
	if err != nil {
		return err
	}
	return storageErr("clear", repo.Clear(ctx))
}

func (s *bookmarkService) BookmarkStory(ctx context.Context, id string) (*models.Bookmark, error) {
	story, err := s.stories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, *story)
}

func (s *bookmarkService) Toggle(ctx context.Context, id string) (bool, error) {
	ok, err := s.IsBookmarked(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		return false, s.Remove(ctx, id)
	}
	if _, err := s.BookmarkStory(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
