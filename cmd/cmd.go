// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User ID or email that owns the tasks",
		Required: true,
	}
}

// taskCommand handles task tree operations
func taskCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "task",
		Aliases: []string{"t"},
		Usage:   "Manage tasks and subtasks",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a task, optionally under a parent",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Task description",
					},
					&cli.StringFlag{
						Name:  "due",
						Usage: "Due date (YYYY-MM-DD)",
					},
					&cli.IntFlag{
						Name:    "weight",
						Aliases: []string{"w"},
						Usage:   "Task weight (1-5)",
						Value:   1,
					},
					&cli.StringFlag{
						Name:  "parent",
						Usage: "Parent task ID",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TaskAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "Show the task tree ordered by priority",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, csv, markdown, txt)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Export file path",
					},
				},
				Action: r.TaskList,
			},
			{
				Name:  "update",
				Usage: "Update a task's fields and resync its event",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New title",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "New description",
					},
					&cli.StringFlag{
						Name:  "due",
						Usage: "New due date (YYYY-MM-DD)",
					},
					&cli.IntFlag{
						Name:    "weight",
						Aliases: []string{"w"},
						Usage:   "New weight (1-5)",
					},
				},
				Action: r.TaskUpdate,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a task; its subtasks become top-level",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{userFlag()},
				Action: r.TaskDelete,
			},
			{
				Name:  "reorder",
				Usage: "Swap the priority of two tasks",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "source"},
					&cli.StringArg{Name: "destination"},
				},
				Flags:  []cli.Flag{userFlag()},
				Action: r.TaskReorder,
			},
			{
				Name:  "complete",
				Usage: "Mark a task and all its subtasks complete",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{
						Name:  "undo",
						Usage: "Mark incomplete instead",
					},
				},
				Action: r.TaskComplete,
			},
		},
	}
}

// calendarCommand handles Google Calendar linkage and sync
func calendarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "calendar",
		Aliases: []string{"cal"},
		Usage:   "Google Calendar linkage and sync",
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Link a user's Google Calendar via OAuth2, then backfill",
				Flags:  []cli.Flag{userFlag()},
				Action: r.CalendarAuth,
			},
			{
				Name:  "backfill",
				Usage: "Create events for tasks that have no event yet",
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent sync workers",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Maximum calendar requests per second",
					},
				},
				Action: r.CalendarBackfill,
			},
			{
				Name:   "unlink",
				Usage:  "Drop stored tokens and forget synced event IDs",
				Flags:  []cli.Flag{userFlag()},
				Action: r.CalendarUnlink,
			},
		},
	}
}

// userCommand handles user records
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "User email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "User display name",
						Required: true,
					},
				},
				Action: r.UserCreate,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List users",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UserList,
			},
		},
	}
}

// dbCommand handles schema migrations
func dbCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Database maintenance",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply pending schema migrations",
				Action: r.DBMigrate,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.DBRollback,
			},
		},
	}
}

// serveCommand exposes the task service over HTTP
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP task service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind address (defaults to config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port (defaults to config)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log every request at debug level",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for interactive task management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for task management",
		Flags:   []cli.Flag{userFlag()},
		Action:  r.TUI,
	}
}
