// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/chronoshq/chronos/cmd/app/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "chronos",
		Usage:   "Reliable command and side-effect pipeline for calendar automation",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP API server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, cmd.Root().Version)
				},
			},
			{
				Name:  "worker",
				Usage: "Start the outbox dispatcher and sync recovery loops",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunWorker(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "retry-outbox",
				Usage: "Re-enter a failed or dead-letter outbox entry into the pending queue",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Outbox entry ID (UUID)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRetryOutbox(ctx, cmd.String("id"))
				},
			},
			{
				Name:  "create-workflow-rule",
				Usage: "Create a declarative trigger/follow-up workflow rule",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "trigger-command",
						Required: true,
						Usage:    "Command name that fires the rule (e.g., DEPLOY)",
					},
					&cli.StringFlag{
						Name:     "trigger-system",
						Required: true,
						Usage:    "Target system of the triggering command (e.g., n8n)",
					},
					&cli.StringFlag{
						Name:     "follow-up-command",
						Required: true,
						Usage:    "Command name of the follow-up",
					},
					&cli.StringFlag{
						Name:     "follow-up-system",
						Required: true,
						Usage:    "Target system of the follow-up command",
					},
					&cli.StringFlag{
						Name:  "params",
						Usage: "JSON object used as the follow-up parameter template",
					},
					&cli.IntFlag{
						Name:  "delay",
						Value: 0,
						Usage: "Delay in seconds before the follow-up becomes due",
					},
					&cli.BoolFlag{
						Name:  "enabled",
						Value: true,
						Usage: "Whether the rule fires immediately",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateWorkflowRule(
						ctx,
						commands.CreateWorkflowRuleInput{
							TriggerCommand:  cmd.String("trigger-command"),
							TriggerSystem:   cmd.String("trigger-system"),
							FollowUpCommand: cmd.String("follow-up-command"),
							FollowUpSystem:  cmd.String("follow-up-system"),
							FollowUpParams:  cmd.String("params"),
							DelaySeconds:    int(cmd.Int("delay")),
							Enabled:         cmd.Bool("enabled"),
							Format:          cmd.String("format"),
						},
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
