package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/kairos-io/go-cuckoo/pkg/config"
	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          constants.Name,
		Short:        "Build Chromebook verified boot disks: signing keys, kernel partitions and GPT layouts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind the flags of the command being run only, so equally named
			// flags of sibling commands don't clash in viper.
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			setLogLevel()
			return nil
		},
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default ./"+constants.DefaultConfigFile+")")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	cmd.CompletionOptions = cobra.CompletionOptions{
		DisableDefaultCmd: true,
	}

	viper.SetEnvPrefix(strings.ToUpper(constants.Name))
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	return cmd
}

func setLogLevel() {
	if viper.GetBool("debug") {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		return
	}
	switch viper.GetString("log-level") {
	case "debug":
		slog.SetLogLoggerLevel(slog.LevelDebug)
	case "info":
		slog.SetLogLoggerLevel(slog.LevelInfo)
	case "warn":
		slog.SetLogLoggerLevel(slog.LevelWarn)
	case "error":
		slog.SetLogLoggerLevel(slog.LevelError)
	default:
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}
}

// loadConfig reads the document named by --config.
func loadConfig() (*types.Config, error) {
	return config.Load(afero.NewOsFs(), viper.GetString("config"))
}

var rootCmd = NewRootCmd()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		os.Exit(1)
	}
}
