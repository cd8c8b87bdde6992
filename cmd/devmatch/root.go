package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/detectlab/devmatch-go/pkg/devmatch"
	"github.com/detectlab/devmatch-go/pkg/devmatch/logging"
)

var rootCmd = &cobra.Command{
	Use:   "devmatch",
	Short: "Device detection from the command line",
	Long: `devmatch loads a device data file into the native matching engine and
classifies User-Agent strings against it. The engine is loaded once per
invocation and torn down cleanly on exit.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("data", "", "path to the device data file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// .env is optional; environment wins over it.
	_ = godotenv.Load()

	viper.SetEnvPrefix("DEVMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// newLogger builds a console zap logger for CLI use and installs it as the
// library logger so engine lifecycle events are visible at debug level.
func newLogger() (*zap.Logger, error) {
	var cfg zap.Config
	if viper.GetString("log_level") == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	logging.SetLogger(logger)
	return logger, nil
}

// openEngine opens the configured data file, with an optional property
// filter, surfacing the wrapper's error taxonomy as CLI-friendly messages.
func openEngine(properties ...string) (*devmatch.Engine, error) {
	path := viper.GetString("data")
	if path == "" {
		return nil, errors.New("no data file configured (use --data or DEVMATCH_DATA)")
	}

	eng, err := devmatch.Open(path, properties...)
	if err != nil {
		var initErr *devmatch.InitError
		if errors.As(err, &initErr) && initErr.Status == devmatch.StatusNotBuilt {
			return nil, fmt.Errorf("%w (build with cgo and the native matcher library)", err)
		}
		return nil, err
	}
	return eng, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger, logErr := newLogger(); logErr == nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
