package cmd

import (
	"fmt"

	"github.com/kairos-io/go-cuckoo/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("long") {
			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", common.Get())
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), common.GetVersion())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolP("long", "l", false, "long version format")
	rootCmd.AddCommand(versionCmd)
}
