package main

import (
	"fmt"
	"text/tabwriter"

	sigclient "github.com/dkeye/Mesh/internal/adapters/signal"
	"github.com/dkeye/Mesh/internal/config"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster <room>",
	Short: "Print the current participants of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := domain.NewRoomID(args[0])
		if err != nil {
			return err
		}
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		client := sigclient.NewClient(sigclient.Config{
			BaseURL: cfg.APIURL,
			Token:   cfg.Token,
			Timeout: cfg.RequestTimeout,
		})
		roster, err := client.Status(cmd.Context(), room)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS")
		for _, p := range roster {
			fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Status)
		}
		return w.Flush()
	},
}

func init() {
	f := rosterCmd.Flags()
	f.String("api-url", "", "room directory base URL")
	f.String("token", "", "bearer token for the signaling backend")
	rootCmd.AddCommand(rosterCmd)
}
