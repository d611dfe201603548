package cmd

import (
	"fmt"
	"log/slog"

	"github.com/kairos-io/go-cuckoo/pkg/config"
	"github.com/kairos-io/go-cuckoo/pkg/kernel"
	"github.com/kairos-io/go-cuckoo/pkg/layout"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var kernelCmd = &cobra.Command{
	Use:   "kernel",
	Short: "Manage kernel partitions",
}

var kernelPackCmd = &cobra.Command{
	Use:   "pack [NAME...]",
	Short: "Pack and sign the configured kernels",
	Long: `Pack the named kernels, or all configured kernels, into signed kernel
partition images. A kernel named after a configured partition must fit in it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		kernels := cfg.Kernels
		if len(args) > 0 {
			kernels = make([]types.KernelConfig, 0, len(args))
			for _, name := range args {
				k, err := config.Kernel(cfg, name)
				if err != nil {
					return err
				}
				kernels = append(kernels, k)
			}
		}
		if len(kernels) == 0 {
			return fmt.Errorf("no kernels configured")
		}

		specs, err := layout.NewPartitionSpecs(cfg.Partitions, false)
		if err != nil {
			return err
		}

		keyDir := viper.GetString("key-dir")
		if keyDir == "" {
			keyDir = cfg.VerifiedBoot.KeyDir
		}

		packer := &kernel.Packer{
			KeyDir:     keyDir,
			PackageDir: viper.GetString("package-dir"),
			Partitions: specs,
			Fs:         afero.NewOsFs(),
			Logger:     slog.Default(),
		}
		outputs, err := packer.PackAll(cmd.Context(), kernels)
		for _, out := range outputs {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return err
	},
}

func init() {
	kernelPackCmd.Flags().String("key-dir", "", "Directory holding keyblocks and private keys, overrides verified_boot.key_dir")
	kernelPackCmd.Flags().String("package-dir", "", "Directory receiving kernels without an output (default /tmp)")

	kernelCmd.AddCommand(kernelPackCmd)
	rootCmd.AddCommand(kernelCmd)
}
