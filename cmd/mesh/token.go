package main

import (
	"fmt"
	"time"

	router "github.com/dkeye/Mesh/internal/adapters/http"
	"github.com/dkeye/Mesh/internal/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a control API token signed with control_secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")
		operator, _ := cmd.Flags().GetString("operator")
		token, err := router.NewToken(cfg.ControlSecret, operator, ttl)
		if err != nil {
			return fmt.Errorf("control_secret: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.String("control-secret", "", "HS256 secret, defaults to control_secret from config")
	f.Duration("ttl", 12*time.Hour, "token lifetime")
	f.String("operator", "local", "operator name stored in the token")
	rootCmd.AddCommand(tokenCmd)
}
