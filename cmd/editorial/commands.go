package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dukex/editorial/pkg/cmd"
	"github.com/dukex/editorial/pkg/effects"
	"github.com/dukex/editorial/pkg/log"
	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var errMissingArgument = errors.New("missing argument")

// session is one CLI invocation's view of the store.
type session struct {
	workflow *services.Workflow
	versions *services.Versions
	history  *services.History
	userID   string
	role     models.Role
	close    func()
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  "editorial",
		Usage:                 "Operate on the editorial workflow directly against the store",
		EnableShellCompletion: true,
		Writer:                out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Cache shared with the API, invalidated after every write (none, redis://)",
				Value:   "none",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User the operation is recorded against",
				Value:   "operator",
				Sources: cli.EnvVars("EDITORIAL_USER"),
			},
			&cli.StringFlag{
				Name:    "role",
				Usage:   "Role of --user (CONTRIBUTOR, AUTHOR, EDITOR, ADMIN)",
				Value:   string(models.RoleAdmin),
				Sources: cli.EnvVars("EDITORIAL_ROLE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			actionCommand(),
			historyCommand(),
			versionsCommand(),
			postsCommand(),
			statsCommand(),
		},
	}
}

func openSession(ctx context.Context, command *cli.Command) (*session, error) {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cli")

	role, err := models.ParseRole(command.String("role"))
	if err != nil {
		return nil, err
	}

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, err
	}

	readCache, stopCache, err := cmd.NewCache(ctx, logger, command.String("cache-url"), "")
	if err != nil {
		_ = store.Close(ctx)

		return nil, err
	}

	deps := services.Dependencies{
		Persistence: store,
		Cache:       readCache,
		Effects:     effects.NewRunner(logger, 0),
		Locks:       services.NewPostLocks(),
		Logger:      logger,
	}

	return &session{
		workflow: services.NewWorkflow(deps),
		versions: services.NewVersions(deps),
		history:  services.NewHistory(deps),
		userID:   command.String("user"),
		role:     role,
		close: func() {
			stopCache()

			if err := store.Close(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
			}
		},
	}, nil
}

// withSession opens the store around fn and prints what fn returns as JSON.
func withSession(fn func(ctx context.Context, command *cli.Command, s *session) (any, error)) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		s, err := openSession(ctx, command)
		if err != nil {
			return err
		}
		defer s.close()

		result, err := fn(ctx, command, s)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(command.Root().Writer)
		encoder.SetIndent("", "  ")

		return encoder.Encode(result)
	}
}

func args(command *cli.Command, names ...string) ([]string, error) {
	if command.Args().Len() < len(names) {
		return nil, fmt.Errorf("%w: usage %s %v", errMissingArgument, command.Name, names)
	}

	return command.Args().Slice()[:len(names)], nil
}

func actionCommand() *cli.Command {
	return &cli.Command{
		Name:      "action",
		Usage:     "Execute a workflow action on a post",
		ArgsUsage: "<post-id> <action>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "comment",
				Usage: "Comment recorded with the transition",
			},
		},
		Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
			values, err := args(command, "post-id", "action")
			if err != nil {
				return nil, err
			}

			action, err := models.ParseWorkflowAction(values[1])
			if err != nil {
				return nil, err
			}

			req := services.ActionRequest{
				PostID: values[0],
				Action: action,
				UserID: s.userID,
				Role:   s.role,
			}

			if command.IsSet("comment") {
				comment := command.String("comment")
				req.Comment = &comment
			}

			return s.workflow.ExecuteAction(ctx, req)
		}),
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Show the workflow history of a post, newest first",
		ArgsUsage: "<post-id>",
		Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
			values, err := args(command, "post-id")
			if err != nil {
				return nil, err
			}

			return s.history.GetWorkflowHistory(ctx, values[0])
		}),
	}
}

func versionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "versions",
		Usage: "Inspect and restore content versions",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the versions of a post",
				ArgsUsage: "<post-id>",
				Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
					values, err := args(command, "post-id")
					if err != nil {
						return nil, err
					}

					return s.versions.GetVersionHistory(ctx, values[0])
				}),
			},
			{
				Name:      "restore",
				Usage:     "Create a new active version from an older one",
				ArgsUsage: "<post-id> <version-id>",
				Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
					values, err := args(command, "post-id", "version-id")
					if err != nil {
						return nil, err
					}

					return s.versions.RestoreVersion(ctx, values[0], values[1], s.userID)
				}),
			},
			{
				Name:      "compare",
				Usage:     "Compare the content of two versions",
				ArgsUsage: "<version-id> <version-id>",
				Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
					values, err := args(command, "first", "second")
					if err != nil {
						return nil, err
					}

					return s.versions.CompareVersions(ctx, values[0], values[1])
				}),
			},
		},
	}
}

func postsCommand() *cli.Command {
	return &cli.Command{
		Name:      "posts",
		Usage:     "List posts in a workflow state",
		ArgsUsage: "<state>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "author", Usage: "Only posts by this author"},
			&cli.StringFlag{Name: "category", Usage: "Only posts in this category"},
			&cli.IntFlag{Name: "limit", Usage: "Page size", Value: 20},
			&cli.IntFlag{Name: "offset", Usage: "Posts to skip"},
		},
		Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
			values, err := args(command, "state")
			if err != nil {
				return nil, err
			}

			state, err := models.ParseWorkflowState(values[0])
			if err != nil {
				return nil, err
			}

			return s.history.GetPostsByState(ctx, services.PostsByStateRequest{
				State:      state,
				AuthorID:   command.String("author"),
				CategoryID: command.String("category"),
				Limit:      command.Int("limit"),
				Offset:     command.Int("offset"),
			})
		}),
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show workflow statistics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "window",
				Usage: "Time window (day, week, month)",
				Value: "week",
			},
		},
		Action: withSession(func(ctx context.Context, command *cli.Command, s *session) (any, error) {
			window, err := models.ParseStatsWindow(command.String("window"))
			if err != nil {
				return nil, err
			}

			return s.history.GetWorkflowStats(ctx, window)
		}),
	}
}
