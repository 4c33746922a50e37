package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"globalinput/config"
	"globalinput/logging"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "globalinput",
	Short: "Capture, block and synthesize global keyboard and mouse input",
	Long: `globalinput listens to keyboard and mouse input system wide, reports it as
canonical events, withholds blocked keys from other applications and injects
synthetic input. It can serve all of this to remote clients over TCP or a unix
socket.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.globalinput.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	cobra.CheckErr(viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName(".globalinput")
	}
	viper.SetEnvPrefix("globalinput")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func setup(cmd *cobra.Command, args []string) error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	var err error
	if cfg, err = config.Load(viper.GetViper()); err != nil {
		return err
	}
	if logger, err = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}
	slog.SetDefault(logger)
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "file", used)
	}
	bindFlags(cmd, args)
	return nil
}

// bindFlags sets unset flags from the config. Flag "foo-bar" of command
// "baz" reads key "baz.foo_bar"; flags given on the command line win.
func bindFlags(cmd *cobra.Command, _ []string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := cmd.Name() + "." + strings.ReplaceAll(f.Name, "-", "_")
		if f.Changed || !viper.IsSet(key) {
			return
		}
		val := viper.Get(key)
		if err := cmd.Flags().Set(f.Name, flagValue(val)); err != nil {
			logger.Warn("config value rejected", "flag", f.Name, "key", key, "err", err)
			return
		}
		logger.Debug("flag set from config", "flag", f.Name, "value", val)
	})
}

func flagValue(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example config file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(".", ".globalinput.toml")
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
