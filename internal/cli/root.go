// Package cli wires the offerengine commands: serve, migrate and version.
package cli

import (
	"errors"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-offer-engine/internal/config"
	"github.com/tbourn/go-offer-engine/internal/sysutil"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

const serviceName = "go-offer-engine"

// app carries the state every subcommand shares after PersistentPreRunE.
type app struct {
	envFile string
	cfg     config.Config
	logs    io.Closer
}

// NewRoot builds the offerengine root command.
func NewRoot() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "offerengine",
		Short:         "Offer generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if c.Name() == "version" {
				return nil
			}
			return a.load()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logs != nil {
				return a.logs.Close()
			}
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// load reads the dotenv file (if any), the configuration and installs the
// global logger. Real environment variables win over the dotenv file.
func (a *app) load() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logs = sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.LogFile, serviceName)
	log.Debug().Str("db_driver", cfg.DB.Driver).Str("llm_provider", cfg.LLM.Provider).Msg("config loaded")
	return nil
}
