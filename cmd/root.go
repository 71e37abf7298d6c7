// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/domfacade/internal/config"
	"github.com/xkilldash9x/domfacade/internal/observability"
)

const envPrefix = "DOMFACADE"

// app carries what the subcommands share once the root has resolved configuration.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

func (a *app) logger() *zap.Logger {
	return observability.GetLogger()
}

// NewRootCommand builds a fresh command tree with its own configuration state.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	rootCmd := &cobra.Command{
		Use:           "domfacade",
		Short:         "Runs page scripts against a DOM that lives in a host engine.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if d, _ := cmd.Flags().GetDuration("script-timeout"); d > 0 {
				a.cfg.SetScriptTimeout(d)
			}
			observability.InitializeLogger(a.cfg.Logger())
			a.logger().Debug("Configuration loaded",
				zap.String("host", a.cfg.Host().Kind),
				zap.String("config_file", a.v.ConfigFileUsed()),
			)
			return nil
		},
	}
	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./config.yaml, then ~/.domfacade/config.yaml)")
	flags.String("host", config.HostMemory, "host engine: memory, wire or cdp")
	flags.StringSlice("host-command", nil, "command line of the wire host process")
	flags.String("cdp-url", "", "DevTools websocket of a running browser; empty launches one")
	flags.Bool("headless", true, "launch the browser headless")
	flags.String("log-level", "info", "log level")
	flags.Duration("script-timeout", 0, "bound on each script and dispatch (default from config)")
	flags.Bool("isolate-listeners", false, "keep running listeners after one fails")
	flags.Bool("log-calls", false, "log every bridge call")

	for key, flag := range map[string]string{
		"host.kind":                        "host",
		"host.command":                     "host-command",
		"host.cdp.url":                     "cdp-url",
		"host.cdp.headless":                "headless",
		"logger.level":                     "log-level",
		"dispatch.isolate_listener_errors": "isolate-listeners",
		"bridge.log_calls":                 "log-calls",
	} {
		// Lookup cannot fail for flags defined above.
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
	rootCmd.AddCommand(
		newRunCmd(a),
		newReplayCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file, if any, and the environment into a.cfg.
func (a *app) loadConfig() error {
	if a.cfgFile != "" {
		path, err := homedir.Expand(a.cfgFile)
		if err != nil {
			return fmt.Errorf("failed to expand config path: %w", err)
		}
		a.v.SetConfigFile(path)
	} else {
		a.v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".domfacade"))
		}
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(config.EnvKeyReplacer())
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Execute runs the command tree with ctx, logging any failure.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Info("Interrupted")
			return err
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
