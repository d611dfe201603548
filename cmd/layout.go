package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kairos-io/go-cuckoo/pkg/blockdev"
	"github.com/kairos-io/go-cuckoo/pkg/layout"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the sfdisk script for the configured partitions",
	Long: `Plan the GPT layout of the configured partitions and print it as an sfdisk
script. The device size comes from --sectors, the configuration, or the
device itself, in that order. Nothing is written to the device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Partitions) == 0 {
			return fmt.Errorf("no partitions configured")
		}

		specs, err := layout.NewPartitionSpecs(cfg.Partitions, viper.GetBool("strict-types"))
		if err != nil {
			return err
		}
		sectors, err := deviceSectors(cfg)
		if err != nil {
			return err
		}

		planner := &layout.Planner{TotalSectors: sectors, Logger: slog.Default()}
		plan, err := planner.Plan(specs)
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if output := viper.GetString("output"); output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
			slog.Info("Writing layout", "path", output)
		}
		_, err = plan.WriteTo(out)
		return err
	},
}

// deviceSectors resolves the device capacity in 512-byte sectors.
func deviceSectors(cfg *types.Config) (int64, error) {
	if s := viper.GetInt64("sectors"); s > 0 {
		return s, nil
	}
	if cfg.Device.Sectors > 0 {
		return cfg.Device.Sectors, nil
	}
	path := viper.GetString("device")
	if path == "" {
		path = cfg.Device.Path
	}
	if path == "" {
		return 0, fmt.Errorf("no device given, use --device or --sectors")
	}
	sectors, err := blockdev.Sectors(path)
	if err != nil {
		return 0, err
	}
	slog.Debug("Discovered device size", "device", path, "sectors", sectors)
	return sectors, nil
}

func init() {
	layoutCmd.Flags().StringP("device", "d", "", "Target block device or disk image")
	layoutCmd.Flags().Int64("sectors", 0, "Device size in 512-byte sectors, skips device discovery")
	layoutCmd.Flags().StringP("output", "o", "", "Write the sfdisk script to this file instead of stdout")
	layoutCmd.Flags().Bool("strict-types", false, "Reject partition types that are neither shorthands nor GUIDs")
	rootCmd.AddCommand(layoutCmd)
}
