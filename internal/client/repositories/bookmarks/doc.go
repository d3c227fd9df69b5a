// Package bookmarks persists bookmarked story snapshots in the local SQLite
// database.
//
// Records are keyed by story id and are never updated in place: Insert fails
// with ErrDuplicateKey when the id is already present and leaves the stored
// record untouched. The repository works over dbx.DBTX, so every method can
// run on a *sql.DB or inside a transaction.
//
//	repo := bookmarks.NewSQLiteRepository(db)
//	err := repo.Insert(ctx, &b)
//	all, _ := repo.GetAll(ctx)
package bookmarks
