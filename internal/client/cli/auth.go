package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/healthup/internal/client/models"
	"github.com/dmitrijs2005/healthup/internal/client/session"
	"github.com/dmitrijs2005/healthup/internal/common"
)

// Register prompts for the new account details and signs the user in on
// success. The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	if err := a.requireSignedOut(); err != nil {
		return err
	}

	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.session.Register(ctx, models.Registration{
		Username: username,
		Email:    email,
		Password: string(password),
		Name:     name,
	})
	return a.signedIn(res)
}

// Login prompts for email and password and signs the user in.
func (a *App) Login(ctx context.Context) error {
	if err := a.requireSignedOut(); err != nil {
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

	res := a.session.Login(ctx, models.Credentials{Email: email, Password: string(password)})
	return a.signedIn(res)
}

// GoogleLogin exchanges a Google ID token, given as the first argument or
// pasted at the prompt, for a session.
func (a *App) GoogleLogin(ctx context.Context, args []string) error {
	if err := a.requireSignedOut(); err != nil {
		return err
	}

	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		t, err := getSimpleText(a.reader, "Paste Google ID token", a.out)
		if err != nil {
			return err
		}
		token = t
	}

	res := a.session.FederatedLogin(ctx, token)
	return a.signedIn(res)
}

var errAlreadySignedIn = errors.New("already signed in")

// requireSignedOut refuses to sign in over an active session.
func (a *App) requireSignedOut() error {
	if !a.isLoggedIn() {
		return nil
	}
	a.println("Already logged in. Use 'logout' first.")
	return errAlreadySignedIn
}

func (a *App) signedIn(res session.Result) error {
	if !res.Success {
		a.println("Error:", res.Error)
		return errors.New(res.Error)
	}
	a.setLocation(homePath)
	a.printf("Welcome, %s!\n", res.User.DisplayName())
	return nil
}

// Logout ends the session on the server and locally. Local state is always
// cleared, even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("You are not logged in.")
		return nil
	}
	a.session.Logout(ctx)
	a.println("Logged out.")
	return nil
}

// Whoami prints the cached session record.
func (a *App) Whoami(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		return session.ErrNotAuthenticated
	}

	a.printf("ID:       %s\n", orDash(u.ID))
	a.printf("Username: %s\n", orDash(u.Username))
	a.printf("Email:    %s\n", orDash(u.Email))
	a.printf("Name:     %s\n", orDash(u.Name))

	exp, err := u.TokenExpiry()
	switch {
	case err != nil:
		a.println("Token:    expiry unknown")
	case time.Now().After(exp):
		a.printf("Token:    expired at %s\n", exp.Local().Format(time.DateTime))
	default:
		a.printf("Token:    valid until %s\n", exp.Local().Format(time.DateTime))
	}
	return nil
}

// Profile edits the locally cached display name. The server is not told.
func (a *App) Profile(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		return session.ErrNotAuthenticated
	}

	name, err := GetWithDefault(a.reader, "Display name", u.Name, a.out)
	if err != nil {
		return err
	}
	u.Name = strings.TrimSpace(name)

	if err := a.session.UpdateUser(ctx, u); err != nil {
		a.println("Error:", err)
		return err
	}
	a.println("Profile updated.")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
