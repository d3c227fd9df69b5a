// Package models defines the client-side data models of storyshelf.
package models

import (
	"slices"
	"time"
)

// Story is a story as served by the remote story API.
type Story struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Lat         *float64  `json:"lat"`
	Lon         *float64  `json:"lon"`
}

// Bookmark is a snapshot of a Story taken when the user bookmarked it.
// It is never refreshed from the server and never mutated in place;
// BookmarkedAt is assigned once, at write time.
type Bookmark struct {
	Story
	BookmarkedAt time.Time `json:"bookmarkedAt"`
}

// NewBookmark snapshots s with the given bookmark time.
func NewBookmark(s Story, at time.Time) Bookmark {
	return Bookmark{Story: s, BookmarkedAt: at.UTC()}
}

// SortNewestFirst orders bookmarks by BookmarkedAt, most recent first.
// Ties keep their store order.
func SortNewestFirst(b []Bookmark) {
	slices.SortStableFunc(b, func(x, y Bookmark) int {
		return y.BookmarkedAt.Compare(x.BookmarkedAt)
	})
}
