package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahrav/go-champion/internal/application"
)

var version = "dev"

// envBindings maps configuration keys to the environment variables that
// override them.
var envBindings = map[string]string{
	"base_uri":                  "CHAMPION_BASE_URI",
	"test_host":                 "CHAMPION_TEST_HOST",
	"fdp_index.sparql_endpoint": "CHAMPION_FDPINDEX_SPARQL",
	"fdp_index.proxy_url":       "CHAMPION_FDPINDEX_PROXY",
	"server.addr":               "CHAMPION_ADDR",
}

// rootOptions holds the settings shared by every subcommand.
type rootOptions struct {
	debug bool
	v     *viper.Viper
}

// newRootOptions returns options whose configuration keys are bound to
// their environment variables.
func newRootOptions() *rootOptions {
	v := viper.New()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return &rootOptions{v: v}
}

func newRootCommand() *cobra.Command {
	opts := newRootOptions()

	cmd := &cobra.Command{
		Use:   "champion",
		Short: "FAIR Champion - score FAIRness assessments",
		Long: `FAIR Champion runs FAIRness tests against a digital object and scores the
results with a spreadsheet-defined algorithm.

Configuration comes from an optional YAML file (--config) and the
CHAMPION_BASE_URI, CHAMPION_TEST_HOST, CHAMPION_FDPINDEX_SPARQL,
CHAMPION_FDPINDEX_PROXY and CHAMPION_ADDR environment variables, which take
precedence over the file.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	_ = opts.v.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newAssessCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	return cmd
}

// logger returns a text logger on w at the level chosen by --debug.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// config resolves the configuration: defaults, then the file, then the
// environment and flags.
func (o *rootOptions) config() (application.Config, error) {
	cfg := application.DefaultConfig()
	if path := o.v.GetString("config"); path != "" {
		loaded, err := application.LoadConfig(path)
		if err != nil {
			return application.Config{}, fmt.Errorf("loading %s: %w", path, err)
		}
		cfg = loaded
	}

	overrides := map[string]*string{
		"base_uri":                  &cfg.BaseURI,
		"test_host":                 &cfg.TestHost,
		"fdp_index.sparql_endpoint": &cfg.FDPIndex.SPARQLEndpoint,
		"fdp_index.proxy_url":       &cfg.FDPIndex.ProxyURL,
		"server.addr":               &cfg.Server.Addr,
	}
	for key, field := range overrides {
		if o.v.IsSet(key) {
			*field = strings.TrimSpace(o.v.GetString(key))
		}
	}

	if err := cfg.Validate(); err != nil {
		return application.Config{}, err
	}
	return cfg, nil
}
