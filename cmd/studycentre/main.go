package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-studycentre/internal/catalog"
	"github.com/mind-engage/mindengage-studycentre/internal/config"
	"github.com/mind-engage/mindengage-studycentre/internal/course"
	"github.com/mind-engage/mindengage-studycentre/internal/db"
	"github.com/mind-engage/mindengage-studycentre/internal/tui"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var configPath string
	root := &cobra.Command{
		Use:           "studycentre",
		Short:         "Study Centre course content and answer evaluation",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config/studycentre.yaml)")

	load := func() (config.Config, error) { return config.Load(configPath) }
	root.AddCommand(serveCmd(load), lintCmd(), importCmd(load), takeCmd(load), configCmd(load), versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type loader func() (config.Config, error)

// ── lint command ──

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <content-dir>",
		Short: "Validate course content and list every problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := course.LoadDir(args[0])
			var verr *course.ValidationError
			if errors.As(err, &verr) {
				for _, is := range verr.Issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", is.Field, is.Message)
				}
				return fmt.Errorf("%d problem(s) found", len(verr.Issues))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d page(s), %d mock exam(s)\n", len(b.Pages), len(b.Exams))
			return nil
		},
	}
}

// ── import command ──

func importCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "import <content-dir>",
		Short: "Load course content into the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			b, err := course.LoadDir(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("db open: %w", err)
			}
			defer dbh.Close()
			if err := catalog.NewSQLStore(dbh).PutBundle(ctx, b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d page(s), %d mock exam(s) into %s\n", len(b.Pages), len(b.Exams), cfg.DBDriver)
			return nil
		},
	}
}

// ── take command ──

func takeCmd(load loader) *cobra.Command {
	var contentDir string
	var noColor bool
	cmd := &cobra.Command{
		Use:   "take <page-id>",
		Short: "Work through a page's checks and quiz in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentDir == "" {
				cfg, err := load()
				if err != nil {
					return err
				}
				contentDir = cfg.ContentDir
			}
			cat, err := catalog.LoadMemory(contentDir)
			if err != nil {
				return err
			}
			p, err := cat.GetPage(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("page %q: %w", args[0], err)
			}
			return tui.Run(p, tui.Options{NoColor: noColor})
		},
	}
	cmd.Flags().StringVar(&contentDir, "content", "", "content directory (defaults to content_dir)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	return cmd
}

// ── config command ──

func configCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config (secrets redacted)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg.Redact())
		},
	})
	return cmd
}

// ── version command ──

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "studycentre %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
