package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/HelpWave/internal/adapters/signal"
	"github.com/dkeye/HelpWave/internal/app/orch"
	"github.com/dkeye/HelpWave/internal/config"
	"github.com/dkeye/HelpWave/internal/metrics"
	"github.com/dkeye/HelpWave/internal/service"
)

const (
	sessionName    = "HelpWaveSessions"
	clientTokenKey = "client_token"
	clientTokenTTL = 3600 * 24 * 7
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser or CLI a stable token kept in
// the signed session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			sess.Set(clientTokenKey, token)
			sess.Options(sessions.Options{Path: "/", MaxAge: clientTokenTTL, HttpOnly: true})
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Orch    *orch.Orchestrator
	Rooms   *service.RoomService
	Metrics *metrics.Metrics
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(deps.Metrics.Middleware())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	ws := signal.NewSignalWSController(deps.Orch, deps.Rooms, deps.Metrics)
	if cfg.ReadLimit > 0 {
		ws.ReadLimit = cfg.ReadLimit
	}
	if cfg.PingPeriod > 0 {
		ws.PingPeriod = cfg.PingPeriod
	}

	h := &handlers{
		rooms:   deps.Rooms,
		limiter: NewRateLimiter(cfg.PostLimit, cfg.PostWindow),
	}

	r.POST("/create-room", h.createRoom)
	r.POST("/join-room", h.joinRoom)
	r.GET("/room-items/:code", h.roomItems)
	r.POST("/items", h.postItem)
	r.POST("/reply", h.reply)
	r.POST("/resolve", h.resolve)

	r.GET("/ws", func(c *gin.Context) {
		ws.HandleSignal(ctx, c)
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": deps.Orch.Registry.Count(),
			"live_rooms":  len(deps.Orch.Rooms.List()),
		})
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
