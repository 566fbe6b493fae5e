package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stagelight/podium/internal/game"
)

type Config struct {
	bind           string
	buzzCooldown   time.Duration
	contentURL     string
	ddMinimum      int
	finalCountdown time.Duration
	logLevel       string
	logPretty      bool
	maxPlayers     int
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.contentURL == "" {
		return errors.New("--content-url is required")
	}
	if _, err := url.Parse(c.contentURL); err != nil {
		return fmt.Errorf("invalid content url: %w", err)
	}
	if c.finalCountdown <= 0 {
		return errors.New("--final-countdown must be positive")
	}
	if c.buzzCooldown < 0 {
		return errors.New("--buzz-cooldown must not be negative")
	}
	if c.maxPlayers < 1 {
		return errors.New("--max-players must be at least 1")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) rules() game.Rules {
	rules := game.DefaultRules()
	rules.BuzzCooldown = c.buzzCooldown
	rules.FinalCountdown = c.finalCountdown
	rules.DailyDoubleMin = c.ddMinimum
	rules.MaxPlayers = c.maxPlayers
	return rules
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PODIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "podium",
		Short:         "A live trivia session server: one host, racing buzzers, and a shared board over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PODIUM_BIND)")
	fs.DurationVar(&cfg.buzzCooldown, "buzz-cooldown", 5*time.Second, "lockout after an incorrect answer before the same player may re-buzz (env: PODIUM_BUZZ_COOLDOWN)")
	fs.StringVar(&cfg.contentURL, "content-url", "", "base URL of the game/episode content service (env: PODIUM_CONTENT_URL)")
	fs.IntVar(&cfg.ddMinimum, "dd-minimum", 0, "minimum daily double wager (env: PODIUM_DD_MINIMUM)")
	fs.DurationVar(&cfg.finalCountdown, "final-countdown", 30*time.Second, "final jeopardy answering window (env: PODIUM_FINAL_COUNTDOWN)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, or error (env: PODIUM_LOG_LEVEL)")
	fs.BoolVar(&cfg.logPretty, "log-pretty", false, "human-readable console logging instead of JSON (env: PODIUM_LOG_PRETTY)")
	fs.IntVar(&cfg.maxPlayers, "max-players", 6, "maximum roster size per session (env: PODIUM_MAX_PLAYERS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PODIUM_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PODIUM_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PODIUM_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: PODIUM_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PODIUM_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PODIUM_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PODIUM_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("podium v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
