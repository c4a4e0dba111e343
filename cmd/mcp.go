package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/ziadkadry99/fee-web/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the Fee API to AI agents",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio with tools to list, analyze and discuss Fee documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "fee MCP server started on stdio (api=%s)\n", cfg.APIURL)
		log.Debug("mcp server starting", zap.String("api", cfg.APIURL))

		srv := mcpserver.NewServer(newClient(cfg, log), log)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
