package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	router "github.com/dkeye/Mesh/internal/adapters/http"
	"github.com/dkeye/Mesh/internal/adapters/media"
	"github.com/dkeye/Mesh/internal/adapters/rtc"
	sigclient "github.com/dkeye/Mesh/internal/adapters/signal"
	"github.com/dkeye/Mesh/internal/app"
	"github.com/dkeye/Mesh/internal/app/orch"
	"github.com/dkeye/Mesh/internal/config"
	"github.com/dkeye/Mesh/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var joinCmd = &cobra.Command{
	Use:   "join <room>",
	Short: "Join a room and stay until interrupted",
	Long: `Join a room, offer a direct session to every online participant and keep
the mesh in sync with the room roster.

Examples:
  mesh join standup
  mesh join --video clip.ivf --audio clip.ogg standup
  mesh join --api-url https://rooms.example.com --token $TOKEN --control :7070 standup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := domain.NewRoomID(args[0])
		if err != nil {
			return err
		}
		return runJoin(cmd, room)
	},
}

func init() {
	f := joinCmd.Flags()
	f.String("api-url", "", "room directory and signaling base URL")
	f.String("token", "", "bearer token for the signaling backend")
	f.Duration("poll-interval", 0, "roster poll interval")
	f.String("audio", "", "Opus-in-Ogg file to send as audio (synthetic when empty)")
	f.String("video", "", "VP8-in-IVF file to send as video (synthetic when empty)")
	f.String("control", "", "control API listen address, \"off\" disables it")
	f.String("control-secret", "", "HS256 secret required on control API tokens")
	f.StringSlice("stun", nil, "STUN server URLs")
	f.StringSlice("turn", nil, "TURN server URLs")
	f.String("turn-user", "", "TURN username")
	f.String("turn-pass", "", "TURN password")
	f.Bool("force-relay", false, "use TURN relay candidates only")
	f.String("log-level", "", "trace, debug, info, warn or error")
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, room domain.RoomID) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	setLogLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api, err := rtc.NewAPI(nil)
	if err != nil {
		return err
	}
	ice := rtc.ICEConfig{
		STUN:       cfg.ICE.STUN,
		TURN:       cfg.ICE.TURN,
		TURNUser:   cfg.ICE.TURNUser,
		TURNPass:   cfg.ICE.TURNPass,
		ForceRelay: cfg.ICE.ForceRelay,
	}

	o := orch.New(orch.Config{
		Room: room,
		Signal: sigclient.NewClient(sigclient.Config{
			BaseURL: cfg.APIURL,
			Token:   cfg.Token,
			Timeout: cfg.RequestTimeout,
		}),
		Media: media.NewSource(media.Config{
			AudioFile: cfg.Media.AudioFile,
			VideoFile: cfg.Media.VideoFile,
		}),
		Conns:             rtc.NewFactory(api, ice.Configuration()),
		Streams:           app.NewStreamRegistry(),
		Policy:            app.PolicyFor(cfg.ReconnectCooldown),
		PollInterval:      cfg.PollInterval,
		LeaveTimeout:      cfg.LeaveTimeout,
		MaxParallelOffers: cfg.MaxParallelOffers,
	})

	var srv *http.Server
	if cfg.ControlAddr != "" && cfg.ControlAddr != "off" {
		srv = &http.Server{
			Addr: cfg.ControlAddr,
			Handler: router.SetupRouter(ctx, router.RouterConfig{
				Mode:           cfg.Mode,
				Secret:         cfg.ControlSecret,
				PingPeriod:     cfg.PingPeriod,
				AllowedOrigins: cfg.AllowedOrigins,
			}, o),
		}
		go func() {
			log.Info().Str("addr", cfg.ControlAddr).Msg("control API started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("control API error")
			}
		}()
	}

	log.Info().Str("room", string(room)).Str("api_url", cfg.APIURL).Msg("joining")
	runErr := o.Run(ctx)

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("control API forced to shutdown")
		}
	}
	if runErr != nil {
		return fmt.Errorf("join %s: %w", room, runErr)
	}
	log.Info().Str("room", string(room)).Msg("left room")
	return nil
}
