// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func idArg() cli.Argument {
	return &cli.StringArg{Name: "id"}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "rollback", Usage: "Revert the most recent migration instead"},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	emailFlag := &cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email (prompted when omitted)"}
	passwordFlag := &cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)", Sources: cli.EnvVars("PATHWISE_PASSWORD")}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					emailFlag,
					passwordFlag,
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Display name"},
				},
				Action: r.on("/register", r.AuthRegister),
			},
			{
				Name:   "login",
				Usage:  "Sign in with email and password",
				Flags:  []cli.Flag{emailFlag, passwordFlag},
				Action: r.on("/login", r.AuthLogin),
			},
			{
				Name:  "google",
				Usage: "Sign in with Google in the browser",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "timeout", Usage: "How long to wait for the browser callback", Value: googleSignInTimeout},
				},
				Action: r.on("/login", r.AuthGoogle),
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the local session",
				Action: r.on("/logout", r.AuthLogout),
			},
			{
				Name:  "whoami",
				Usage: "Show the signed-in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "cached", Usage: "Use the locally cached profile"},
					jsonFlag(),
				},
				Action: r.on("/profile", r.AuthWhoami),
			},
			{
				Name:  "status",
				Usage: "Show session age and expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "verify", Usage: "Also ask the server whether the session is valid"},
					jsonFlag(),
				},
				Action: r.on("/profile", r.AuthStatus),
			},
			{
				Name:   "refresh",
				Usage:  "Renew the session now",
				Action: r.on("/profile", r.AuthRefresh),
			},
			{
				Name:  "password",
				Usage: "Password reset",
				Commands: []*cli.Command{
					{
						Name:   "request",
						Usage:  "Email a reset token",
						Flags:  []cli.Flag{emailFlag},
						Action: r.on("/login", r.AuthResetRequest),
					},
					{
						Name:      "verify",
						Usage:     "Check a reset token",
						Arguments: []cli.Argument{&cli.StringArg{Name: "token"}},
						Action:    r.on("/login", r.AuthResetVerify),
					},
					{
						Name:  "reset",
						Usage: "Set a new password with a reset token",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Reset token", Required: true},
							passwordFlag,
						},
						Action: r.on("/login", r.AuthReset),
					},
				},
			},
		},
	}
}

// pathwayCommand handles learning pathway operations
func pathwayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "pathway",
		Aliases: []string{"pw"},
		Usage:   "Learning pathway operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your pathways",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"},
				},
				Action: r.on("/pathways", r.PathwayList),
			},
			{
				Name:      "get",
				Usage:     "Show a pathway and its topics",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"},
					&cli.BoolFlag{Name: "markdown", Aliases: []string{"md"}, Usage: "Output Markdown"},
				},
				Action: r.on("/pathways", r.PathwayGet),
			},
			{
				Name:  "create",
				Usage: "Create a pathway from an ordered list of topics",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Pathway name", Required: true},
					&cli.StringSliceFlag{Name: "topic", Aliases: []string{"t"}, Usage: "Topic name, repeat in order"},
					jsonFlag(),
				},
				Action: r.on("/pathways/new", r.PathwayCreate),
			},
			{
				Name:  "generate",
				Usage: "Generate a pathway from topics you want to learn",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Pathway name (generated when omitted)"},
					&cli.StringSliceFlag{Name: "topic", Aliases: []string{"t"}, Usage: "Topic to learn, repeatable"},
					jsonFlag(),
				},
				Action: r.on("/pathways/new", r.PathwayGenerate),
			},
			{
				Name:      "status",
				Usage:     "Show completion progress",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep polling until every topic is completed"},
					jsonFlag(),
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"},
				},
				Action: r.on("/pathways", r.PathwayStatus),
			},
			{
				Name:  "status-all",
				Usage: "Show progress for every pathway",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent status checks (default from config)"},
					jsonFlag(),
				},
				Action: r.on("/pathways", r.PathwayStatusAll),
			},
			{
				Name:      "upload",
				Usage:     "Upload PDFs for retrieval chat",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "PDF path or glob (e.g. notes/**/*.pdf), repeatable"},
					jsonFlag(),
				},
				Action: r.on("/pathways", r.PathwayUpload),
			},
			{
				Name:      "current",
				Usage:     "Show the next topic to study",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.on("/pathways", r.PathwayCurrent),
			},
			{
				Name:      "export",
				Usage:     "Export a pathway as Markdown and CSV",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default: pathway id)"},
					&cli.BoolFlag{Name: "summaries", Usage: "Include a generated summary file per topic"},
				},
				Action: r.on("/pathways", r.PathwayExport),
			},
		},
	}
}

// topicCommand handles topic operations
func topicCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "topic",
		Usage: "Topic operations",
		Commands: []*cli.Command{
			{
				Name:      "summary",
				Usage:     "Show the generated summary for a topic",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "raw", Usage: "Print Markdown without rendering"},
					jsonFlag(),
				},
				Action: r.on("/topics", r.TopicSummary),
			},
			{
				Name:      "complete",
				Usage:     "Mark a topic completed",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.on("/topics", r.TopicComplete),
			},
		},
	}
}

// quizCommand generates quizzes
func quizCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "quiz",
		Usage:     "Generate a quiz for a topic",
		Arguments: []cli.Argument{idArg()},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "difficulty", Aliases: []string{"d"}, Usage: "easy, medium or hard", Value: models.DifficultyMedium},
			&cli.IntFlag{Name: "questions", Aliases: []string{"n"}, Usage: "Number of questions (1-20)", Value: 5},
			&cli.BoolFlag{Name: "answers", Aliases: []string{"a"}, Usage: "Show answers and explanations"},
			&cli.BoolFlag{Name: "raw", Usage: "Print Markdown without rendering"},
			jsonFlag(),
		},
		Action: r.on("/quiz", r.QuizGenerate),
	}
}

// chatCommand handles retrieval chat over a pathway's documents
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Ask questions about a pathway's uploaded documents",
		Commands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "Send a message",
				Arguments: []cli.Argument{idArg(), &cli.StringArg{Name: "message"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "history", Usage: "Previous messages to send as context", Value: defaultChatHistory},
					&cli.BoolFlag{Name: "raw", Usage: "Print the answer without rendering"},
					jsonFlag(),
				},
				Action: r.on("/chat", r.ChatSend),
			},
			{
				Name:      "history",
				Usage:     "Show the stored conversation",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Most recent messages to show (0 for all)"},
					jsonFlag(),
				},
				Action: r.on("/chat", r.ChatHistory),
			},
			{
				Name:      "clear",
				Usage:     "Forget the stored conversation",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.on("/chat", r.ChatClear),
			},
		},
	}
}

// apiCommand handles direct API calls through the authenticated pipeline
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls (with session renewal)",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "compact", Usage: "Do not indent JSON"},
				},
				Action: r.on("/api", r.APIGet),
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: true},
					&cli.BoolFlag{Name: "compact", Usage: "Do not indent JSON"},
				},
				Action: r.on("/api", r.APIPost),
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for watching pathways.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"watch", "ui"},
		Usage:   "Browse pathways and watch progress interactively",
		Action:  r.on("/pathways", r.TUI),
	}
}
