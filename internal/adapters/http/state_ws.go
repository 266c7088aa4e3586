package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dkeye/Mesh/internal/app/orch"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	writeWait   = 5 * time.Second
	maxReadSize = 512
)

// stateStream pushes orchestrator snapshots to websocket clients.
type stateStream struct {
	ctx        context.Context
	ctl        Controller
	pingPeriod time.Duration
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

func newStateStream(ctx context.Context, ctl Controller, pingPeriod time.Duration, origins []string) *stateStream {
	if pingPeriod <= 0 {
		pingPeriod = DefaultPingPeriod
	}
	s := &stateStream{
		ctx:        ctx,
		ctl:        ctl,
		pingPeriod: pingPeriod,
		log:        log.With().Str("module", "adapters.http").Logger(),
	}
	s.upgrader.CheckOrigin = func(r *http.Request) bool {
		if len(origins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range origins {
			if origin == o {
				return true
			}
		}
		return origin == ""
	}
	return s
}

func (s *stateStream) serve(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("ws upgrade")
		return
	}
	s.log.Info().Str("remote", c.Request.RemoteAddr).Msg("state subscriber connected")

	snaps, unsubscribe := s.ctl.Subscribe()
	ctx, cancel := context.WithCancel(s.ctx)
	go s.writePump(ctx, ws, snaps, func() {
		cancel()
		unsubscribe()
	})
	go s.readPump(ctx, ws, cancel)
}

func (s *stateStream) write(ws *websocket.Conn, snap orch.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

// writePump owns every write on ws. The current snapshot goes out first.
func (s *stateStream) writePump(ctx context.Context, ws *websocket.Conn, snaps <-chan orch.Snapshot, done func()) {
	ticker := time.NewTicker(s.pingPeriod)
	defer func() {
		ticker.Stop()
		done()
		_ = ws.Close()
	}()

	if err := s.write(ws, s.ctl.Snapshot()); err != nil {
		s.log.Debug().Err(err).Msg("writePump initial snapshot")
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case snap, ok := <-snaps:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "left"), time.Now().Add(writeWait))
				return
			}
			if err := s.write(ws, snap); err != nil {
				s.log.Debug().Err(err).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug().Err(err).Msg("writePump ping error")
				return
			}
		}
	}
}

// readPump only handles pongs and notices when the client goes away.
func (s *stateStream) readPump(ctx context.Context, ws *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	pongWait := s.pingPeriod * 10 / 9
	ws.SetReadLimit(maxReadSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				s.log.Debug().Err(err).Msg("readPump read error")
			}
			return
		}
	}
}
