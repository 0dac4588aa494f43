// Package http exposes the observable session state and the façade
// commands to a local UI over REST.
package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akorche/groupclass/internal/config"
	"github.com/akorche/groupclass/internal/core"
	"github.com/akorche/groupclass/internal/domain"
	"github.com/akorche/groupclass/internal/session"
)

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

func SetupRouter(cfg *config.Config, mgr *session.Manager, defaults session.Params) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ClassSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": mgr.List()})
	})

	api.POST("/sessions/:room/join", func(c *gin.Context) {
		p := defaults
		p.Room = domain.RoomID(c.Param("room"))

		var body struct {
			User string `json:"user"`
			Name string `json:"name"`
			Role *int   `json:"role"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			if body.User != "" {
				p.User.ID = domain.UserID(body.User)
			}
			if body.Name != "" {
				p.User.Name = body.Name
			}
			if body.Role != nil {
				p.User.Role = domain.Role(*body.Role)
			}
		}

		s, err := mgr.GetOrCreate(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := s.Join(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	})

	api.POST("/sessions/:room/leave", func(c *gin.Context) {
		if err := mgr.Stop(c.Request.Context(), domain.RoomID(c.Param("room"))); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	withSession := func(fn func(c *gin.Context, s *session.Session)) gin.HandlerFunc {
		return func(c *gin.Context) {
			s, ok := mgr.Get(domain.RoomID(c.Param("room")))
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "no session for room"})
				return
			}
			fn(c, s)
		}
	}

	api.GET("/sessions/:room", withSession(func(c *gin.Context, s *session.Session) {
		c.JSON(http.StatusOK, s.Snapshot())
	}))

	api.POST("/sessions/:room/messages", withSession(func(c *gin.Context, s *session.Session) {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BindJSON(&body); err != nil || body.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing text"})
			return
		}
		command(c, s.SendMessage(c.Request.Context(), body.Text))
	}))

	api.POST("/sessions/:room/platform/:group", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.TogglePlatform(c.Request.Context(), domain.GroupID(c.Param("group"))))
	}))

	api.POST("/sessions/:room/groups/:group/star", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.AddGroupStar(c.Request.Context(), domain.GroupID(c.Param("group"))))
	}))

	api.POST("/sessions/:room/groups/:group/audio", withSession(func(c *gin.Context, s *session.Session) {
		var body struct {
			On bool `json:"on"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad body"})
			return
		}
		command(c, s.SetGroupAudio(c.Request.Context(), domain.GroupID(c.Param("group")), body.On))
	}))

	api.POST("/sessions/:room/rewards/:user", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.SendReward(c.Request.Context(), domain.UserID(c.Param("user"))))
	}))

	api.POST("/sessions/:room/hand/apply", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.CallApply(c.Request.Context()))
	}))

	api.POST("/sessions/:room/hand/accept/:user", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.CallAccept(c.Request.Context(), domain.UserID(c.Param("user"))))
	}))

	api.POST("/sessions/:room/hand/cancel/:user", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.CallCancel(c.Request.Context(), domain.UserID(c.Param("user"))))
	}))

	api.POST("/sessions/:room/close/:user", withSession(func(c *gin.Context, s *session.Session) {
		command(c, s.SendClose(c.Request.Context(), domain.UserID(c.Param("user"))))
	}))

	api.POST("/sessions/:room/mute", withSession(func(c *gin.Context, s *session.Session) {
		var body struct {
			Device string `json:"device"`
			Mute   bool   `json:"mute"`
			User   string `json:"user,omitempty"`
		}
		if err := c.BindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad body"})
			return
		}
		kind := core.DeviceMicrophone
		if body.Device == "camera" {
			kind = core.DeviceCamera
		}
		ctx := c.Request.Context()
		if body.User == "" {
			command(c, s.MuteLocal(ctx, kind, body.Mute))
			return
		}
		command(c, s.MuteRemote(ctx, domain.UserID(body.User), kind, body.Mute))
	}))

	return r
}

func command(c *gin.Context, err error) {
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
