package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/recipebox/internal/models"
	"github.com/desertthunder/recipebox/internal/repositories"
	"github.com/desertthunder/recipebox/internal/session"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// timestamped is implemented by stores that record when a slot was written.
type timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

func (r *Runner) credentials(cmd *cli.Command) (models.Credentials, error) {
	email, err := r.prompt("Email", cmd.String("email"))
	if err != nil {
		return models.Credentials{}, err
	}
	password, err := r.prompt("Password", cmd.String("password"))
	if err != nil {
		return models.Credentials{}, err
	}

	creds := models.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return creds, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return creds, nil
}

// AuthLogin signs in with the password grant and stores the issued token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", creds.Email, "server", r.client.BaseURL())
	if _, err := r.session.Login(ctx, creds); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return r.writePlain("✓ Signed in as %s\n", r.session.Identity(ctx))
}

// AuthRegister creates an account, signing in afterwards only when --login is set.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	if err := r.session.Register(ctx, creds); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	r.writePlain("✓ Account created for %s\n", creds.Email)

	if !cmd.Bool("login") {
		return r.writePlain("Run 'recipebox auth login' to sign in\n")
	}

	if _, err := r.session.Login(ctx, creds); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return r.writePlain("✓ Signed in as %s\n", r.session.Identity(ctx))
}

// AuthLogout forgets the stored token and any records loaded in this process.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.session.CurrentState(ctx) == session.Anonymous {
		return r.writePlain("Not signed in\n")
	}

	identity := r.session.Identity(ctx)
	r.session.Logout(ctx)
	r.repo.Clear()
	return r.writePlain("✓ Signed out %s\n", identity)
}

// AuthStatus reports the local session state without contacting the server.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	state := r.session.CurrentState(ctx)
	if state == session.Anonymous {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in as %s\n", r.session.Identity(ctx))
	if store, ok := r.kv.(timestamped); ok {
		if at, found, err := store.UpdatedAt(ctx, repositories.TokenKey); err == nil && found {
			r.writePlain("  Since: %s\n", at.Local().Format(time.DateTime))
		}
	}
	return r.writePlain("  Server: %s\n", r.client.BaseURL())
}

// AuthWhoami prints the identity carried by the stored token, or the server's view with --remote.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("remote") {
		if r.session.CurrentState(ctx) == session.Anonymous {
			return shared.ErrNotAuthenticated
		}
		identity := r.session.Identity(ctx)
		if cmd.Bool("json") {
			return r.writeJSON(map[string]string{"identity": identity}, false)
		}
		return r.writePlain("%s\n", identity)
	}

	user, err := r.session.Me(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(user, false)
	}

	active := "active"
	if !user.IsActive {
		active = "inactive"
	}
	return r.writePlain("%s (id %d, %s)\n", user.Email, user.ID, active)
}

// Health calls the server's /health endpoint.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking server health", "server", r.client.BaseURL())

	status, err := r.auth.Health(ctx)
	if err != nil {
		return fmt.Errorf("server unavailable: %w", err)
	}

	r.writePlain("✓ Server is healthy\n")
	return r.writePlain("Status: %s\n", status)
}
