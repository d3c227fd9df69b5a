package cli

import (
	"context"
	"fmt"

	"github.com/storyshelf/storyshelf/internal/client/connectivity"
	"github.com/storyshelf/storyshelf/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a display name, email and password and creates an
// account. It does not sign in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, name, email, string(password)); err != nil {
		return a.fail(connectivity.FallbackLogin, err)
	}
	fmt.Fprintln(a.out, "Account created. You can log in now.")
	return nil
}

// Login prompts for credentials and starts a session. The token survives
// restarts until Logout.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		return a.fail(connectivity.FallbackLogin, err)
	}
	a.userName = res.Name
	fmt.Fprintf(a.out, "Welcome, %s!\n", res.Name)
	return nil
}

// Logout forgets the session. Bookmarks and push state stay on the device.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.fail(connectivity.FallbackGeneral, err)
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
