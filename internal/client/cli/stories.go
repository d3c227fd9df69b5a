package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/storyshelf/storyshelf/internal/client/client"
	"github.com/storyshelf/storyshelf/internal/client/connectivity"
	"github.com/storyshelf/storyshelf/internal/client/models"
)

const (
	pageSize       = 10
	descriptionMax = 60
)

// Stories lists one page of stories. Bookmarked ones are marked with '*'.
func (a *App) Stories(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(a.out, "Usage: stories [page]")
			return fmt.Errorf("bad page %q", args[0])
		}
		page = n
	}

	list, err := a.stories.List(ctx, client.StoryQuery{Page: page, Size: pageSize})
	if err != nil {
		return a.fail(connectivity.FallbackStories, err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No stories on this page.")
		return nil
	}
	for _, s := range list {
		mark := " "
		if ok, err := a.bookmarks.IsBookmarked(ctx, s.ID); err == nil && ok {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %s: %s (%s)\n", mark, s.ID, s.Name, excerpt(s.Description), a.ago(s))
	}
	return nil
}

// Bookmark saves a snapshot of story id.
func (a *App) Bookmark(ctx context.Context, id string) error {
	b, err := a.bookmarks.BookmarkStory(ctx, id)
	if err != nil {
		return a.fail(connectivity.FallbackStories, err)
	}
	fmt.Fprintf(a.out, "Bookmarked %q by %s.\n", b.ID, b.Name)
	return nil
}

func (a *App) Unbookmark(ctx context.Context, id string) error {
	if err := a.bookmarks.Remove(ctx, id); err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	fmt.Fprintf(a.out, "Removed bookmark %q.\n", id)
	return nil
}

// Bookmarks lists saved stories, most recently bookmarked first. It works
// offline.
func (a *App) Bookmarks(ctx context.Context) error {
	all, err := a.bookmarks.GetAll(ctx)
	if err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	if len(all) == 0 {
		fmt.Fprintln(a.out, "No bookmarks yet.")
		return nil
	}
	models.SortNewestFirst(all)
	for _, b := range all {
		fmt.Fprintf(a.out, "%s  %s: %s (saved %s)\n", b.ID, b.Name, excerpt(b.Description),
			humanize.RelTime(b.BookmarkedAt, a.now(), "ago", "from now"))
	}
	return nil
}

func (a *App) ago(s models.Story) string {
	if s.CreatedAt.IsZero() {
		return "unknown date"
	}
	return humanize.RelTime(s.CreatedAt, a.now(), "ago", "from now")
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= descriptionMax {
		return s
	}
	r := []rune(s)
	return string(r[:descriptionMax-3]) + "..."
}
