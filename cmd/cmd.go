// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand creates the config file and local storage.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize local storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Recipe server address to save in the config",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your account and session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and store the session token locally",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account (does not sign in)",
				Flags: append(credentialFlags(), &cli.BoolFlag{
					Name:  "login",
					Usage: "Sign in after the account is created",
				}),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether a session token is stored",
				Action: r.AuthStatus,
			},
			{
				Name:  "whoami",
				Usage: "Show the signed-in account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "remote",
						Usage: "Ask the server instead of reading the stored token",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthWhoami,
			},
		},
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "email",
			Aliases: []string{"e"},
			Usage:   "Account email (prompted when omitted)",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (prompted when omitted)",
		},
	}
}

// recipesCommand handles collection operations
func recipesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recipes",
		Aliases: []string{"r"},
		Usage:   "Browse and edit your recipe collection",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every recipe",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "view",
						Usage: "list or grid (defaults to the saved view preference)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.RecipesList,
			},
			{
				Name:  "show",
				Usage: "Show one recipe",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Output Markdown",
					},
					&cli.BoolFlag{
						Name:  "open",
						Usage: "Open the recipe's source page in the browser",
					},
				},
				Action: r.RecipesShow,
			},
			{
				Name:      "add",
				Usage:     "Extract recipes from web pages and add them to the collection",
				ArgsUsage: "URL [URL...]",
				Action:    r.RecipesAdd,
			},
			{
				Name:  "edit",
				Usage: "Change fields of a recipe",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New name"},
					&cli.StringSliceFlag{Name: "ingredient", Usage: "Replace ingredients (repeatable)"},
					&cli.StringSliceFlag{Name: "instruction", Usage: "Replace instructions (repeatable)"},
					&cli.StringFlag{Name: "description", Usage: "New description"},
					&cli.StringFlag{Name: "prep", Usage: "New prep time"},
					&cli.StringFlag{Name: "cook", Usage: "New cook time"},
					&cli.StringFlag{Name: "servings", Usage: "New servings"},
					&cli.StringFlag{Name: "notes", Usage: "New notes"},
					&cli.StringFlag{Name: "image", Usage: "New image URL"},
					&cli.StringFlag{Name: "source", Usage: "New source URL"},
				},
				Action: r.RecipesEdit,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a recipe",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.RecipesDelete,
			},
			{
				Name:  "export",
				Usage: "Write the collection to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, markdown, txt or csv",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: recipebox_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers",
						Value: 4,
					},
				},
				Action: r.RecipesExport,
			},
		},
	}
}

// prefsCommand handles the theme and view preferences
func prefsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "prefs",
		Usage: "Read and change display preferences (theme, view)",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show one preference, or all of them",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
				},
				Action: r.PrefsGet,
			},
			{
				Name:  "set",
				Usage: "Change a preference",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
					&cli.StringArg{Name: "value"},
				},
				Action: r.PrefsSet,
			},
			{
				Name:  "toggle",
				Usage: "Flip a preference to its other value",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "kind"},
				},
				Action: r.PrefsToggle,
			},
		},
	}
}

// healthCommand checks that the recipe server is reachable.
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check the recipe server",
		Action: r.Health,
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive recipe browser",
		Action:  r.TUI,
	}
}
