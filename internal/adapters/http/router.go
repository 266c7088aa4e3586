package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/Mesh/internal/app/orch"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const DefaultPingPeriod = 54 * time.Second

// Controller is what the control API drives.
type Controller interface {
	Snapshot() orch.Snapshot
	Subscribe() (<-chan orch.Snapshot, func())
	ToggleAudio() bool
	ToggleVideo() bool
	Leave(ctx context.Context) error
}

type RouterConfig struct {
	Mode           string
	Secret         string // empty disables token checks
	PingPeriod     time.Duration
	AllowedOrigins []string
}

// OriginFilter rejects browser requests from origins not listed and sets
// CORS headers for the ones that are.
func OriginFilter(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := false
		for _, o := range allowedOrigins {
			if origin == o {
				allowed = true
				break
			}
		}

		if !allowed && origin != "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Origin not allowed"})
			return
		}
		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter wires the local control API under /api.
// ctx bounds the lifetime of websocket subscribers.
func SetupRouter(ctx context.Context, cfg RouterConfig, ctl Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(OriginFilter(cfg.AllowedOrigins))
	}

	api := r.Group("/api")
	if cfg.Secret != "" {
		api.Use(JWTAuth(cfg.Secret))
	}

	api.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, ctl.Snapshot())
	})

	api.POST("/media/audio/toggle", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"muted": ctl.ToggleAudio()})
	})

	api.POST("/media/video/toggle", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"video_off": ctl.ToggleVideo()})
	})

	// Local teardown is done once Leave returns; its error is only the
	// directory's best-effort leave and is reported alongside.
	api.POST("/leave", func(c *gin.Context) {
		if err := ctl.Leave(context.WithoutCancel(c.Request.Context())); err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("leave")
			c.JSON(http.StatusOK, gin.H{"status": "OK", "directory_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	ws := newStateStream(ctx, ctl, cfg.PingPeriod, cfg.AllowedOrigins)
	api.GET("/ws/state", ws.serve)

	log.Info().Str("module", "adapters.http").Bool("auth", cfg.Secret != "").Msg("router setup")
	return r
}
