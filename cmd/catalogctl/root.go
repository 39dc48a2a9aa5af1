package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AyushDoCode/WhatsappChatbot/internal/app"
	"github.com/AyushDoCode/WhatsappChatbot/internal/config"
	pkgconfig "github.com/AyushDoCode/WhatsappChatbot/pkg/config"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

// cli holds state shared by every subcommand.
type cli struct {
	envFile  string
	logLevel string
	asJSON   bool

	out    io.Writer
	logger *slog.Logger
	cfg    *config.Config

	build buildFunc
}

type buildFunc func(ctx context.Context, cfg *config.Config, l *slog.Logger) (*app.Components, error)

func newRootCmd(out io.Writer, build buildFunc) *cobra.Command {
	c := &cli{out: out, build: build}

	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Operate the watch catalog search index",
		Long: `catalogctl maintains the product embedding index and runs ad-hoc searches
against the same stores and settings as the catalog search service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := pkgconfig.LoadDotEnv(c.envFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if c.logLevel != "" {
				level = c.logLevel
			}
			c.cfg = cfg
			c.logger = logger.NewWithWriter("catalogctl", level, cmd.ErrOrStderr())
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override LOG_LEVEL")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newIndexCmd(c),
		newStatsCmd(c),
		newSearchCmd(c),
		newImportCmd(c),
	)
	return root
}

// components connects the stores for one command run. The caller closes them.
func (c *cli) components(ctx context.Context) (*app.Components, error) {
	comps, err := c.build(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return comps, nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
