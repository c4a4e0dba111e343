package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/fee-web/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a Fee configuration file with an interactive wizard",
	Long:  `Asks where the Fee API lives and how the front-end should run, then writes .fee.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
