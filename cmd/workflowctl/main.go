package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"resale-console/internal/config"
	"resale-console/internal/database"
	"resale-console/internal/logging"
	"resale-console/internal/store"
	"resale-console/internal/workflow"

	cli "github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("workflowctl failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "workflowctl",
		Usage: "Inspect and repair stored delivery workflows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logging.Setup(logging.ParseLevel(command.String("log-level")), os.Stderr)
			return ctx, nil
		},
		Commands: []*cli.Command{
			newFlattenCommand(),
			newValidateCommand(),
		},
	}
}

func openStore() (*store.Workflows, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return store.NewWorkflows(db), db, nil
}

func newFlattenCommand() *cli.Command {
	return &cli.Command{
		Name:  "flatten",
		Usage: "Rewrite tree-shaped stored definitions into the flat form",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would change without writing",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflows, db, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close(db)

			dryRun := command.Bool("dry-run")
			report, err := workflows.FlattenStored(ctx, dryRun)
			if err != nil {
				return err
			}

			out := command.Root().Writer
			verb := "rewrote"
			if dryRun {
				verb = "would rewrite"
			}
			fmt.Fprintf(out, "checked %d workflows, %s %d\n", report.Checked, verb, len(report.Rewritten))
			for _, id := range report.Rewritten {
				fmt.Fprintf(out, "  flattened workflow %d\n", id)
			}
			for _, id := range report.Corrupt {
				fmt.Fprintf(out, "  skipped corrupt workflow %d\n", id)
			}
			return nil
		},
	}
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a definition file, or every stored workflow when no file is given",
		ArgsUsage: "[file]",
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer
			if path := command.Args().First(); path != "" {
				return validateFile(out, path)
			}

			workflows, db, err := openStore()
			if err != nil {
				return err
			}
			defer database.Close(db)

			problems, err := workflows.CheckStored(ctx)
			if err != nil {
				return err
			}
			for id, p := range problems {
				fmt.Fprintf(out, "workflow %d: %v\n", id, p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d invalid workflows", len(problems))
			}
			fmt.Fprintln(out, "all workflows valid")
			return nil
		},
	}
}

func validateFile(out io.Writer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := workflow.ValidateSchema(raw); err != nil {
		return err
	}
	nodes, err := workflow.DecodeDefinition(raw)
	if err != nil {
		return err
	}
	if err := workflow.Validate(nodes); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d nodes\n", path, len(nodes))
	for _, n := range nodes {
		fmt.Fprintf(out, "  %-20s %-10s %s\n", n.ID, n.Type(), n.Text)
	}
	return nil
}
