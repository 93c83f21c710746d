package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lorekeeper/internal/client/api"
	"github.com/dmitrijs2005/lorekeeper/internal/client/forms"
	"github.com/dmitrijs2005/lorekeeper/internal/client/guard"
	"github.com/dmitrijs2005/lorekeeper/internal/client/services"
	"github.com/dmitrijs2005/lorekeeper/internal/common"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

// Login prompts for credentials and attempts a sign-in.
//
// Input is validated locally first; nothing reaches the network until the
// form is clean. Password buffers are wiped after the attempt, success or
// failure. On success the guard transitions and the app lands on the route
// requested before the login interception, if any.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if errs := forms.Validate(forms.Fields{Email: email, Password: password}, forms.ModeSignIn); !errs.Empty() {
		a.printFormErrors(errs)
		return nil
	}

	rememberMe, err := getYesNo(a.reader, "Stay signed in on this device?", a.out)
	if err != nil {
		return err
	}

	s, err := a.auth.SignIn(ctx, email, password, rememberMe)
	if err != nil {
		a.printAuthError(err)
		return nil
	}

	a.printf("Signed in as %s", s.Email)
	a.guard.SignedIn()
	a.navigate(a.guard.ConsumePending(guard.RouteHome))
	go a.refreshVerification(ctx)
	return nil
}

// Register prompts for email, password, and confirmation, and creates a new
// account. A verification email is sent in the background; the user is
// signed in right away and never blocked on it.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	fields := forms.Fields{Email: email, Password: password, ConfirmPassword: confirm}
	if errs := forms.Validate(fields, forms.ModeSignUp); !errs.Empty() {
		a.printFormErrors(errs)
		return nil
	}

	s, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		a.printAuthError(err)
		return nil
	}

	a.printf("Welcome, %s! Check your inbox to verify your email.", s.Email)
	a.guard.SignedIn()
	a.navigate(a.guard.ConsumePending(guard.RouteHome))
	return nil
}

// ResetPassword asks the backend to send a reset link. The confirmation
// message is identical whether or not the email is registered.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	if errs := forms.Validate(forms.Fields{Email: email, Password: []byte("unused")}, forms.ModeSignIn); errs[forms.FieldEmail] != "" {
		a.printf("%s: %s", forms.FieldEmail, errs[forms.FieldEmail])
		return nil
	}

	if err := a.auth.RequestPasswordReset(ctx, email); err != nil {
		a.printAuthError(err)
		return nil
	}

	a.printf("%s", msgResetSent)
	return nil
}

// Logout ends the session, clears the cached project list, and returns to
// the login screen.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	if err := a.project.ClearCache(ctx); err != nil {
		a.logger.Warn(ctx, "project cache cleanup failed", "error", err)
	}
	a.guard.SignedOut()
	a.route = guard.RouteLogin
	a.printf("Signed out")
	return nil
}

// Whoami shows the session, connectivity, and the advisory verification
// banner.
func (a *App) Whoami(ctx context.Context) error {
	s := a.auth.Current()
	if s == nil {
		a.printf("Not signed in")
		return nil
	}
	a.printf("Signed in as %s (session expires %s)", s.Email, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	if a.tracker.IsOnline() {
		a.printf("Backend: online")
	} else {
		a.printf("Backend: offline (cached data only)")
	}
	if !s.Verification.EmailVerified {
		a.printf("Note: your email address is not verified yet")
	}
	return nil
}

func (a *App) printFormErrors(errs forms.FormErrors) {
	for _, field := range []string{forms.FieldEmail, forms.FieldPassword, forms.FieldConfirmPassword} {
		if msg, ok := errs[field]; ok {
			a.printf("%s: %s", field, msg)
		}
	}
}

// printAuthError maps service errors to the fixed user-facing copy.
func (a *App) printAuthError(err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		a.printf("%s", msgInvalidCredentials)
	case errors.Is(err, common.ErrEmailTaken):
		a.printf("%s", msgEmailTaken)
	case errors.Is(err, services.ErrSubmitInFlight):
		a.printf("%s", msgBusy)
	case errors.Is(err, api.ErrUnavailable):
		a.printf("%s", msgSomethingWrong)
	default:
		a.printf("%s", msgSomethingWrong)
	}
}
