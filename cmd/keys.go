package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kairos-io/go-cuckoo/pkg/keys"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the verified boot key hierarchy",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the configured keys and keyblocks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vb := cfg.VerifiedBoot
		if len(vb.Keys) == 0 && len(vb.Keyblocks) == 0 {
			return fmt.Errorf("no keys or keyblocks configured")
		}

		keyDir := viper.GetString("key-dir")
		if keyDir == "" {
			keyDir = vb.KeyDir
		}
		if keyDir == "" {
			return fmt.Errorf("no key directory given, use --key-dir or verified_boot.key_dir")
		}

		slog.Info("Generating keys", "dir", keyDir, "keys", len(vb.Keys), "keyblocks", len(vb.Keyblocks))
		generator := &keys.Generator{KeyDir: keyDir, Fs: afero.NewOsFs(), Logger: slog.Default()}
		if err = generator.Generate(cmd.Context(), vb.Keys, vb.Keyblocks); err != nil {
			return err
		}
		slog.Info("Done generating keys", "dir", keyDir)
		return nil
	},
}

var keysDumpCmd = &cobra.Command{
	Use:   "dump SOURCE",
	Short: "Write the pre-processed .keyb form of an RSA public key",
	Long: `Write the pre-processed public key consumed by futility vbutil_key.
SOURCE is a PEM certificate, public or private key, or a pkcs11: URI
carrying module-path and pin-value query attributes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, err := keys.LoadPublicKey(afero.NewOsFs(), args[0])
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
			slog.Info("Writing pre-processed key", "source", args[0], "path", output)
		}
		return keys.DumpRSAPublicKey(pub, out)
	},
}

func init() {
	keysGenerateCmd.Flags().String("key-dir", "", "Directory receiving the keys, overrides verified_boot.key_dir")
	keysDumpCmd.Flags().StringP("output", "o", "", "Output file, stdout when empty")

	keysCmd.AddCommand(keysGenerateCmd, keysDumpCmd)
	rootCmd.AddCommand(keysCmd)
}
