package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/recipebox/internal/prefs"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/urfave/cli/v3"
)

func kindArg(cmd *cli.Command) (prefs.Kind, error) {
	name := cmd.StringArg("kind")
	if name == "" {
		return "", fmt.Errorf("%w: preference name (theme or view)", shared.ErrMissingArgument)
	}
	return prefs.ParseKind(name)
}

// PrefsGet prints one preference, or every preference when no kind is given.
func (r *Runner) PrefsGet(ctx context.Context, cmd *cli.Command) error {
	if cmd.StringArg("kind") == "" {
		for _, k := range prefs.Kinds() {
			r.writePlain("%-6s %s\n", k, r.prefs.Get(ctx, k))
		}
		return nil
	}

	k, err := kindArg(cmd)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", r.prefs.Get(ctx, k))
}

// PrefsSet stores a preference value.
func (r *Runner) PrefsSet(ctx context.Context, cmd *cli.Command) error {
	k, err := kindArg(cmd)
	if err != nil {
		return err
	}

	value := cmd.StringArg("value")
	if value == "" {
		return fmt.Errorf("%w: value for %s", shared.ErrMissingArgument, k)
	}
	if err := r.prefs.Set(ctx, k, value); err != nil {
		return err
	}
	return r.writePlain("✓ %s = %s\n", k, r.prefs.Get(ctx, k))
}

// PrefsToggle flips a preference and prints the new value.
func (r *Runner) PrefsToggle(ctx context.Context, cmd *cli.Command) error {
	k, err := kindArg(cmd)
	if err != nil {
		return err
	}

	v, err := r.prefs.Toggle(ctx, k)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s = %s\n", k, v)
}
