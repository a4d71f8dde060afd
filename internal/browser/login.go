package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoLoginDialog is returned when the site never confirms the login.
var ErrNoLoginDialog = errors.New("browser: login: no confirmation dialog")

// LoginForm describes the login page.
type LoginForm struct {
	URL      string
	Username string // CSS of the username input
	Password string // CSS of the password input
	Submit   string // CSS of the submit button
	// Wait bounds the search for each form element and for the
	// confirmation dialog.
	Wait time.Duration
	// Settle is the pause after the dialog is accepted.
	Settle time.Duration
}

// Login fills the form, submits it, accepts the JavaScript confirmation
// dialog and dismisses any in-page popup with Enter.
func Login(ctx context.Context, t *Tab, form LoginForm, username, password string) error {
	if err := t.Navigate(ctx, form.URL); err != nil {
		return fmt.Errorf("browser: login: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, form.Wait)
	defer cancel()
	page := t.Page.Context(wctx)

	user, err := page.Element(form.Username)
	if err != nil {
		return fmt.Errorf("browser: login: username field: %w", err)
	}
	pass, err := page.Element(form.Password)
	if err != nil {
		return fmt.Errorf("browser: login: password field: %w", err)
	}
	submit, err := page.Element(form.Submit)
	if err != nil {
		return fmt.Errorf("browser: login: submit button: %w", err)
	}
	if err := user.Input(username); err != nil {
		return fmt.Errorf("browser: login: type username: %w", err)
	}
	if err := pass.Input(password); err != nil {
		return fmt.Errorf("browser: login: type password: %w", err)
	}

	// The dialog blocks the page, so the click runs in its own goroutine.
	wait, handle := page.HandleDialog()
	clicked := make(chan error, 1)
	go func() {
		clicked <- submit.Click(proto.InputMouseButtonLeft, 1)
	}()

	dialog := wait()
	if dialog.Type == "" {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrNoLoginDialog
	}
	t.logger.Info("browser: login dialog", "message", dialog.Message)
	if err := handle(&proto.PageHandleJavaScriptDialog{Accept: true}); err != nil {
		return fmt.Errorf("browser: login: accept dialog: %w", err)
	}
	if err := <-clicked; err != nil {
		t.logger.Debug("browser: login click returned", "error", err)
	}

	if err := sleep(ctx, form.Settle); err != nil {
		return err
	}
	if err := t.Page.Keyboard.Press(input.Enter); err != nil {
		t.logger.Debug("browser: dismiss popup failed", "error", err)
	}
	return sleep(ctx, form.Settle)
}
