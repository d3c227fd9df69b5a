// Package services contains the application services of the storyshelf
// client: the bookmark store, story browsing, the session (login/logout and
// the bearer token source) and the push subscription manager.
//
// Services take their collaborators as interfaces and open the database
// through a dbx.Opener on each call, so the first operation of any service
// opens it and later ones share the same handle.
package services
