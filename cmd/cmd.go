// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// setupCommand creates the configuration file and local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the configuration file and run database migrations",
		Action: r.Setup,
	}
}

// authCommand manages the persisted session.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and inspect the current session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("MM_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("MM_PASSWORD"),
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Full name",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear stored credentials",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// meetingsCommand reads and edits meetings through the query cache.
func meetingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "meetings",
		Aliases: []string{"m"},
		Usage:   "Meeting operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List meetings",
				Flags: append(jsonFlags(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of meetings to return",
					},
					&cli.IntFlag{
						Name:  "skip",
						Usage: "Number of meetings to skip",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (scheduled, in_progress, completed, cancelled)",
					},
				),
				Action: r.MeetingsList,
			},
			{
				Name:      "get",
				Usage:     "Show one meeting with participants and action items",
				ArgsUsage: "<meeting-id>",
				Flags:     jsonFlags(),
				Action:    r.MeetingsGet,
			},
			{
				Name:  "create",
				Usage: "Create a meeting",
				Flags: append(jsonFlags(),
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Meeting title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Meeting description",
					},
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Meeting platform (zoom, meet, teams, ...)",
					},
					&cli.TimestampFlag{
						Name:  "scheduled-at",
						Usage: "Scheduled start (RFC 3339)",
						Config: cli.TimestampConfig{
							Layouts: []string{"2006-01-02T15:04:05Z07:00"},
						},
					},
				),
				Action: r.MeetingsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a meeting",
				ArgsUsage: "<meeting-id>",
				Flags: append(jsonFlags(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "New title",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "New description",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "New status",
					},
					&cli.StringFlag{
						Name:  "summary",
						Usage: "New summary",
					},
				),
				Action: r.MeetingsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a meeting",
				ArgsUsage: "<meeting-id>",
				Action:    r.MeetingsDelete,
			},
			{
				Name:      "transcripts",
				Usage:     "Print a meeting's transcript",
				ArgsUsage: "<meeting-id>",
				Flags: append(jsonFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (markdown, csv, txt, json)",
						Value:   "txt",
					},
				),
				Action: r.MeetingsTranscripts,
			},
			{
				Name:      "open",
				Usage:     "Open a meeting's recording in the browser",
				ArgsUsage: "<meeting-id>",
				Action:    r.MeetingsOpen,
			},
			{
				Name:      "action-item",
				Usage:     "Add an action item to a meeting",
				ArgsUsage: "<meeting-id>",
				Flags: append(jsonFlags(),
					&cli.StringFlag{
						Name:     "task",
						Usage:    "Task description",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "assignee",
						Usage: "Assignee name",
					},
					&cli.StringFlag{
						Name:  "assignee-email",
						Usage: "Assignee email",
					},
					&cli.StringFlag{
						Name:  "priority",
						Usage: "Priority (low, medium, high)",
						Value: "medium",
					},
					&cli.StringFlag{
						Name:  "due",
						Usage: "Due date (YYYY-MM-DD)",
					},
				),
				Action: r.MeetingsActionItem,
			},
		},
	}
}

// exportCommand writes transcripts to disk with a manifest.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export meeting transcripts to files",
		Commands: []*cli.Command{
			{
				Name:   "history",
				Usage:  "List previous export runs",
				Flags:  append(jsonFlags(), &cli.IntFlag{Name: "limit", Usage: "Maximum number of runs", Value: 20}),
				Action: r.ExportHistory,
			},
		},
		Flags: append(jsonFlags(),
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Meeting ID to export (repeatable); all meetings when omitted",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (markdown, csv, txt, json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Maximum meeting reads per second",
			},
		),
		Action: r.Export,
	}
}

// tuiCommand launches the interactive terminal UI.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse meetings interactively",
		Action: r.TUI,
	}
}
