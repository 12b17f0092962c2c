package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// prefix for configuration keys inside environment
	envPrefix = "SWAP_LAYER"
)

type (
	app struct {
		rootCmd  *cobra.Command
		baseConf *baseConfiguration
	}

	baseConfiguration struct {
		// node configuration file (YAML)
		CfgFile string
		// log level: debug, info, warn, error
		LogLevel string
	}
)

// New creates the swap-layer CLI application.
func New() *app {
	rootCmd, baseConf := newRootCmd()
	rootCmd.AddCommand(newRunCmd(baseConf))
	rootCmd.AddCommand(newFeeEstimateCmd(baseConf))
	return &app{rootCmd: rootCmd, baseConf: baseConf}
}

func (a *app) Execute() {
	cobra.CheckErr(a.rootCmd.Execute())
}

func newRootCmd() (*cobra.Command, *baseConfiguration) {
	conf := &baseConfiguration{}
	rootCmd := &cobra.Command{
		Use:   "swap-layer",
		Short: "Cross-chain swap settlement engine node",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&conf.CfgFile, "config", "c", "config.yaml", "node configuration file")
	rootCmd.PersistentFlags().StringVar(&conf.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	return rootCmd, conf
}

// bindFlags makes every flag overridable from the environment, e.g.
// --log-level becomes SWAP_LAYER_LOG_LEVEL.
func bindFlags(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("binding flag %s: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

func (c *baseConfiguration) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
