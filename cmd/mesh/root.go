package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Headless participant for a peer-to-peer audio/video room",
	Long: `mesh joins a room through the room directory and keeps a direct WebRTC
session with every other online participant until it is interrupted or
asked to leave over the local control API.

Configuration is read from config/config.<CONFIG_ENV>.yaml (or CONFIG_FILE),
MESH_* environment variables and flags, in increasing precedence.`,
}

func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
