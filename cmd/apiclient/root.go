package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/apiclient"
	"github.com/jonwraymond/apiclient/observe"
)

type globalFlags struct {
	configPath string
	baseURL    string
	logLevel   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "apiclient",
		Short:         "Check and watch backend reachability",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a YAML client config")
	pf.StringVar(&flags.baseURL, "base-url", "", "backend base URL (overrides the config)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	cmd.AddCommand(newProbeCmd(flags), newWatchCmd(flags))
	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (f *globalFlags) loadConfig() (apiclient.Config, error) {
	var cfg apiclient.Config
	if f.configPath != "" {
		loaded, err := apiclient.LoadConfig(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if f.baseURL != "" {
		cfg.BaseURL = f.baseURL
	}
	return cfg, nil
}

// newClient builds a client whose logs go to stderr.
func (f *globalFlags) newClient(ctx context.Context, stderr io.Writer, opts ...apiclient.Option) (*apiclient.Client, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := observe.NewLoggerWithWriter(f.logLevel, stderr).With(observe.F("service", "apiclient"))
	opts = append([]apiclient.Option{apiclient.WithLogger(logger)}, opts...)
	return apiclient.NewFromConfig(ctx, cfg, opts...)
}
