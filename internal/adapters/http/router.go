// Package http wires the gin router: the REST room surface, the upload
// endpoints and the websocket gateway entry point.
package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/recroom/server/internal/adapters/signal"
	"github.com/recroom/server/internal/config"
)

// ClientTokenMiddleware assigns each browser a stable token cookie. The
// websocket gateway uses it as the session identity, so a reconnect keeps
// the same session id.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, h *Handlers, ws *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("RecRoomSessions", store))
	r.Use(ClientTokenMiddleware())

	r.MaxMultipartMemory = cfg.MaxUploadSize

	api := r.Group("/api")

	rooms := api.Group("/rooms")
	rooms.POST("", h.CreateRoom)
	rooms.GET("", h.ListRooms)
	rooms.GET("/health", h.Health)
	rooms.GET("/:roomId", h.GetRoom)
	rooms.POST("/:roomId/join", h.JoinRoom)
	rooms.POST("/:roomId/leave", h.LeaveRoom)
	rooms.PUT("/:roomId/status", h.SetRoomStatus)

	upload := api.Group("/upload")
	upload.POST("/:roomId/:participantId", h.UploadRecording)
	upload.GET("/:roomId/files", h.ListRecordings)

	r.GET("/ws", func(c *gin.Context) {
		ws.HandleWS(ctx, c)
	})

	return r
}
