// submodule cmd contains the equipx command tree
package main

import "github.com/urfave/cli/v3"

// app builds the root command. Every subcommand shares the runner set up by [Runner.Init].
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "equipx",
		Usage:   "Borrow, return and manage equipment from the terminal",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Lending API root (overrides EQUIPX_API_BASE_URL and the config file)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Init,
		After:    r.Close,
		Commands: r.register(),
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the configuration file and local database",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write config.toml from the bundled template",
				Action: r.SetupConfig,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, log out and manage your account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Username (prompted when empty)",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password (prompted when empty)",
					},
					&cli.StringFlag{
						Name:  "totp",
						Usage: "Six digit code from your authenticator app",
					},
					&cli.StringFlag{
						Name:  "recovery-code",
						Usage: "2FA recovery code",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session token",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show who is logged in",
				Flags: append(jsonFlags(), &cli.BoolFlag{
					Name:  "all",
					Usage: "List the sessions stored for every profile",
				}),
				Action: r.AuthStatus,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (at least 8 characters)"},
					&cli.StringFlag{Name: "first-name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "last-name", Usage: "Last name", Required: true},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "New password (at least 8 characters)"},
				},
				Action: r.AuthResetPassword,
			},
			{
				Name:  "2fa",
				Usage: "Two-factor authentication",
				Commands: []*cli.Command{
					{
						Name:   "enable",
						Usage:  "Start 2FA setup and print the secret",
						Flags:  jsonFlags(),
						Action: r.TwoFactorEnable,
					},
					{
						Name:      "verify",
						Usage:     "Confirm 2FA setup with a code from your app",
						Arguments: idArgument("code"),
						Action:    r.TwoFactorVerify,
					},
					{
						Name:   "disable",
						Usage:  "Turn 2FA off",
						Action: r.TwoFactorDisable,
					},
				},
			},
		},
	}
}

func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or update your profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Flags:  jsonFlags(),
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Change your name or email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
					&cli.StringFlag{Name: "email", Usage: "Email address"},
				},
				Action: r.ProfileUpdate,
			},
		},
	}
}

func equipmentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "equipment",
		Aliases: []string{"eq"},
		Usage:   "Browse and borrow equipment",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List equipment available to borrow",
				Flags: append(jsonFlags(),
					offlineFlag(),
					&cli.StringFlag{Name: "category", Usage: "Only show this category"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match name, specs or inventory number"},
					&cli.StringFlag{Name: "sort", Usage: "Sort by name, status or category (append :desc to reverse)"},
				),
				Action: r.EquipmentList,
			},
			{
				Name:   "search",
				Usage:  "Search the catalogue page by page",
				Flags:  append(jsonFlags(), searchFlags()...),
				Action: r.EquipmentSearch,
			},
			{
				Name:      "borrow",
				Usage:     "Borrow an item",
				Arguments: idArgument("id"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "until",
						Usage: "Expected return date (YYYY-MM-DD, default from the loan rules)",
					},
				},
				Action: r.EquipmentBorrow,
			},
			{
				Name:      "return",
				Usage:     "Return a borrowed item",
				Arguments: idArgument("id"),
				Action:    r.EquipmentReturn,
			},
			{
				Name:   "rules",
				Usage:  "Show the loan rules",
				Flags:  jsonFlags(),
				Action: r.EquipmentRules,
			},
		},
	}
}

func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search term"},
		&cli.StringFlag{Name: "category", Usage: "Category"},
		&cli.StringFlag{Name: "status", Usage: "Status"},
		&cli.IntFlag{Name: "page", Usage: "Page number (0-based)"},
		&cli.IntFlag{Name: "size", Usage: "Page size", Value: 20},
		&cli.StringFlag{Name: "sort-by", Usage: "Field to sort by"},
		&cli.StringFlag{Name: "direction", Usage: "asc or desc", Value: "asc"},
	}
}

func loansCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "loans",
		Usage: "Your loans",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your loans",
				Flags: append(jsonFlags(),
					offlineFlag(),
					&cli.StringFlag{Name: "tab", Usage: "All, Active, Returned or Overdue", Value: "All"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match equipment name or inventory number"},
					&cli.StringFlag{Name: "sort", Usage: "Sort by name, date or status (append :desc to reverse)", Value: "date:desc"},
				),
				Action: r.LoansList,
			},
			{
				Name:   "return-all",
				Usage:  "Return every active loan",
				Flags:  []cli.Flag{yesFlag()},
				Action: r.LoansReturnAll,
			},
		},
	}
}

func reservationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "reservations",
		Aliases: []string{"res"},
		Usage:   "Reserve equipment ahead of time",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your reservations",
				Flags: append(jsonFlags(),
					offlineFlag(),
					&cli.StringFlag{Name: "status", Usage: "Only show this status"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match equipment name or notes"},
				),
				Action: r.ReservationsList,
			},
			{
				Name:  "create",
				Usage: "Reserve an item for a date range",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "equipment", Aliases: []string{"e"}, Usage: "Equipment ID", Required: true},
					&cli.StringFlag{Name: "start", Usage: "First day (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "end", Usage: "Last day (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "notes", Usage: "Notes for the administrators"},
				},
				Action: r.ReservationsCreate,
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a reservation",
				Arguments: idArgument("id"),
				Action:    r.ReservationsCancel,
			},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export a dataset (equipment, loans, reservations, users, maintenance) to a file",
		Arguments: idArgument("dataset"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, json, yaml, markdown or txt"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default {dataset}.{ext})"},
			&cli.BoolFlag{Name: "all", Usage: "Use the admin endpoints (every user's data)"},
		},
		Action: r.ExportDataset,
		Commands: []*cli.Command{
			{
				Name:  "all",
				Usage: "Export every dataset you can read into a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, json, yaml, markdown or txt"},
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Output directory (default equipx_export_{epoch})"},
					&cli.StringSliceFlag{Name: "dataset", Usage: "Limit the export to these datasets"},
				},
				Action: r.ExportAll,
			},
		},
	}
}

func apiCommand(r *Runner) *cli.Command {
	raw := func(name, usage string, body bool) *cli.Command {
		c := &cli.Command{
			Name:      name,
			Usage:     usage,
			Arguments: idArgument("path"),
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
			},
			Action: r.APIRequest,
		}
		if body {
			c.Flags = append(c.Flags, &cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON body to send",
			})
		}
		return c
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the lending API with the stored session",
		Commands: []*cli.Command{
			raw("get", "GET a path, prints the raw response", false),
			raw("post", "POST a JSON body to a path", true),
			raw("put", "PUT a JSON body to a path", true),
			raw("delete", "DELETE a path", false),
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local web front",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (default from config)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the browser once listening"},
		},
		Action: r.Serve,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Action: r.TUI,
	}
}
