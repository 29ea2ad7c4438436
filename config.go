/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/tete/round"
)

type Config struct {
	bind           string
	databaseURL    string
	dataDir        string
	maxMessages    int
	mode           string
	noSound        bool
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	defaultMode round.Mode
	logger      zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxMessages < 1 {
		return fmt.Errorf("invalid --max-messages (must be at least 1): %d", c.maxMessages)
	}

	mode, err := round.ParseMode(c.mode)
	if err != nil {
		return fmt.Errorf("invalid --mode (must be one of chill, normal, hard): %w", err)
	}
	c.defaultMode = mode

	if c.dataDir == "" {
		c.dataDir = defaultDataDir()
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tete")
	}
	return ".tete"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TETE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "tete",
		Short:         `A "Heads Up!" inspired party game, played by tilting your phone.`,
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.logger = newLogger(os.Stderr, cfg.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TETE_BIND)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres url for custom packs and best scores, instead of local files (env: TETE_DATABASE_URL)")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "directory for local packs, scores and settings (env: TETE_DATA_DIR)")
	fs.IntVar(&cfg.maxMessages, "max-messages", 60, "inbound websocket messages allowed per second per device (env: TETE_MAX_MESSAGES)")
	fs.StringVar(&cfg.mode, "mode", string(round.ModeNormal), "default game mode: chill, normal or hard (env: TETE_MODE)")
	fs.BoolVar(&cfg.noSound, "no-sound", false, "never play cues on this machine's speaker (env: TETE_NO_SOUND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TETE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TETE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TETE_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: TETE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TETE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TETE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TETE_VERBOSE)")
	cmd.Flags().BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TETE_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newPlayCmd(cfg), newPacksCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("tete v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
