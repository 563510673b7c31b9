package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"huddle.com/server/game"
	"huddle.com/server/logging"
	"huddle.com/server/room"
	"huddle.com/server/util"
)

var restLogger = log.With().Str("logger_name", "huddle::rest").Logger()

// APP error definition
type appError struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GamePublisher forwards game snapshots to peers.
type GamePublisher interface {
	PublishGame(g game.TexasHoldemGame) error
}

// Server is the host application's command surface over the room registry
// and the per-room game engines.
type Server struct {
	registry    *room.Registry
	arena       *game.Arena
	publisher   GamePublisher
	remoteGames cmap.ConcurrentMap
}

func NewServer(registry *room.Registry, arena *game.Arena, publisher GamePublisher) *Server {
	s := &Server{
		registry:    registry,
		arena:       arena,
		publisher:   publisher,
		remoteGames: cmap.New(),
	}
	registry.AddListener(s)
	return s
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/users", s.registerUser)

	r.GET("/rooms", s.fetchRooms)
	r.POST("/rooms", s.createRoom)
	r.GET("/rooms/:roomId", s.getRoom)
	r.DELETE("/rooms/:roomId", s.deleteRoom)
	r.POST("/rooms/:roomId/join", s.joinRoom)
	r.POST("/rooms/:roomId/leave", s.leaveRoom)
	r.POST("/rooms/:roomId/subhosts", s.promoteSubHost)
	r.DELETE("/rooms/:roomId/subhosts/:userId", s.demoteSubHost)
	r.POST("/rooms/:roomId/content", s.publishContent)

	r.GET("/rooms/:roomId/game", s.getGame)
	r.POST("/rooms/:roomId/game", s.startGame)
	r.DELETE("/rooms/:roomId/game", s.endGame)
	r.POST("/rooms/:roomId/game/deal", s.dealCards)
	r.POST("/rooms/:roomId/game/bet", s.bet)
	r.POST("/rooms/:roomId/game/call", s.call)
	r.POST("/rooms/:roomId/game/raise", s.raise)
	r.POST("/rooms/:roomId/game/fold", s.fold)
	r.POST("/rooms/:roomId/game/next-phase", s.nextPhase)
	return r
}

// HTTPServer returns an http.Server serving the router on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
}

// RememberRemoteGame keeps the latest game snapshot published by a peer so
// it can be read from this node.
func (s *Server) RememberRemoteGame(g game.TexasHoldemGame) {
	s.remoteGames.Set(g.RoomID, g)
}

// A deleted room takes its game with it, whichever node deleted it.
func (s *Server) OnRoomDeleted(roomID string, origin room.Origin) {
	s.arena.EndGame(roomID)
	s.remoteGames.Remove(roomID)
}

func (s *Server) OnRoomChanged(room.Room, room.Origin)                   {}
func (s *Server) OnUserJoined(room.User, room.Room, room.Origin)         {}
func (s *Server) OnContentOrStateChanged(room.ContentState, room.Origin) {}

// statusForError maps an error kind to the HTTP status returned to callers.
func statusForError(err error) int {
	switch util.KindOf(err) {
	case util.KindNotFound:
		return http.StatusNotFound
	case util.KindCapacityExceeded, util.KindIllegalState:
		return http.StatusConflict
	case util.KindInvalidInput:
		return http.StatusBadRequest
	case util.KindInsufficientResource:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusForError(err)
	code := util.CodeOf(err)
	if code == "" {
		code = "Internal"
	}
	if status == http.StatusInternalServerError {
		restLogger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	} else {
		restLogger.Debug().Err(err).Str("path", c.FullPath()).Msg("Request rejected")
	}
	c.AbortWithStatusJSON(status, appError{
		Code:    status,
		Error:   code,
		Message: err.Error(),
	})
}

func bindJSON(c *gin.Context, payload interface{}) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		restLogger.Debug().Err(err).Str("path", c.FullPath()).Msg("Failed to parse request body")
		c.AbortWithStatusJSON(http.StatusBadRequest, appError{
			Code:    http.StatusBadRequest,
			Error:   "InvalidBody",
			Message: err.Error(),
		})
		return false
	}
	return true
}

type userPayload struct {
	UserID string `json:"userId"`
}

func (s *Server) registerUser(c *gin.Context) {
	var user room.User
	if !bindJSON(c, &user) {
		return
	}
	if err := s.registry.RegisterUser(user); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) fetchRooms(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.FetchRooms())
}

func (s *Server) createRoom(c *gin.Context) {
	type Payload struct {
		Name            string            `json:"name"`
		HostID          string            `json:"hostId"`
		ActivityType    room.ActivityType `json:"activityType"`
		MaxParticipants int               `json:"maxParticipants"`
		IsPrivate       bool              `json:"isPrivate"`
	}
	var payload Payload
	if !bindJSON(c, &payload) {
		return
	}
	opts := []room.RoomOption{room.WithPrivate(payload.IsPrivate)}
	if payload.MaxParticipants != 0 {
		opts = append(opts, room.WithMaxParticipants(payload.MaxParticipants))
	}
	created, err := s.registry.CreateRoom(payload.Name, payload.HostID, payload.ActivityType, opts...)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getRoom(c *gin.Context) {
	r, err := s.registry.GetRoom(c.Param("roomId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) deleteRoom(c *gin.Context) {
	if err := s.registry.DeleteRoom(c.Param("roomId")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) joinRoom(c *gin.Context) {
	var payload userPayload
	if !bindJSON(c, &payload) {
		return
	}
	r, err := s.registry.JoinRoom(c.Param("roomId"), payload.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) leaveRoom(c *gin.Context) {
	var payload userPayload
	if !bindJSON(c, &payload) {
		return
	}
	roomID := c.Param("roomId")
	deleted, err := s.registry.LeaveRoom(roomID, payload.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if deleted {
		restLogger.Info().Str(logging.RoomIDKey, roomID).Msg("Host left, room and game closed")
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) promoteSubHost(c *gin.Context) {
	var payload userPayload
	if !bindJSON(c, &payload) {
		return
	}
	roomID := c.Param("roomId")
	if err := s.registry.PromoteToSubHost(roomID, payload.UserID); err != nil {
		abortWithError(c, err)
		return
	}
	s.respondRoom(c, roomID)
}

func (s *Server) demoteSubHost(c *gin.Context) {
	roomID := c.Param("roomId")
	if err := s.registry.DemoteSubHost(roomID, c.Param("userId")); err != nil {
		abortWithError(c, err)
		return
	}
	s.respondRoom(c, roomID)
}

func (s *Server) respondRoom(c *gin.Context, roomID string) {
	r, err := s.registry.GetRoom(roomID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) publishContent(c *gin.Context) {
	type Payload struct {
		UserID  string          `json:"userId"`
		Payload json.RawMessage `json:"payload"`
	}
	var payload Payload
	if !bindJSON(c, &payload) {
		return
	}
	if err := s.registry.PublishContentState(c.Param("roomId"), payload.UserID, payload.Payload); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (s *Server) getGame(c *gin.Context) {
	roomID := c.Param("roomId")
	if engine, ok := s.arena.Lookup(roomID); ok {
		if g, err := engine.ActiveGame(); err == nil {
			c.JSON(http.StatusOK, g)
			return
		}
	}
	if v, ok := s.remoteGames.Get(roomID); ok {
		c.JSON(http.StatusOK, v.(game.TexasHoldemGame))
		return
	}
	abortWithError(c, game.ErrNoActiveGame)
}

// startGame seats room participants at a new table. Every player must be a
// participant of the room.
func (s *Server) startGame(c *gin.Context) {
	type Payload struct {
		PlayerIDs []string `json:"playerIds"`
	}
	var payload Payload
	if !bindJSON(c, &payload) {
		return
	}
	roomID := c.Param("roomId")
	r, err := s.registry.GetRoom(roomID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	for _, id := range payload.PlayerIDs {
		if !r.IsParticipant(id) {
			abortWithError(c, room.ErrNotAParticipant)
			return
		}
	}
	g, err := s.startRoomGame(r, payload.PlayerIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.respondGame(c, g)
}

// startRoomGame starts the game and drops the engine again if the room was
// deleted meanwhile, since OnRoomDeleted may have run before the engine existed.
func (s *Server) startRoomGame(r room.Room, playerIDs []string) (game.TexasHoldemGame, error) {
	g, err := s.arena.StartGame(r.ID, playerIDs)
	if err != nil {
		return game.TexasHoldemGame{}, err
	}
	if _, err := s.registry.GetRoom(r.ID); err != nil {
		s.arena.EndGame(r.ID)
		return game.TexasHoldemGame{}, err
	}
	return g, nil
}

func (s *Server) endGame(c *gin.Context) {
	s.arena.EndGame(c.Param("roomId"))
	c.Status(http.StatusNoContent)
}

func (s *Server) dealCards(c *gin.Context) {
	s.gameCommand(c, func(e *game.Engine) (game.TexasHoldemGame, error) {
		return e.DealCards()
	})
}

func (s *Server) nextPhase(c *gin.Context) {
	s.gameCommand(c, func(e *game.Engine) (game.TexasHoldemGame, error) {
		return e.NextPhase()
	})
}

type betPayload struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
}

func (s *Server) bet(c *gin.Context) {
	var payload betPayload
	if !bindJSON(c, &payload) {
		return
	}
	s.gameCommand(c, func(e *game.Engine) (game.TexasHoldemGame, error) {
		return e.Bet(payload.PlayerID, payload.Amount)
	})
}

func (s *Server) call(c *gin.Context) {
	var payload betPayload
	if !bindJSON(c, &payload) {
		return
	}
	s.gameCommand(c, func(e *game.Engine) (game.TexasHoldemGame, error) {
		return e.Call(payload.PlayerID)
	})
}

func (s *Server) raise(c *gin.Context) {
	var payload betPayload
	if !bindJSON(c, &payload) {
		return
	}
	s.gameCommand(c, func(e *game.Engine) (game.TexasHoldemGame, error) {
		return e.Raise(payload.PlayerID, payload.Amount)
	})
}

func (s *Server) fold(c *gin.Context) {
	var payload betPayload
	if !bindJSON(c, &payload) {
		return
	}
	s.gameCommand(c, func(e *game.Engine) (game.TexasHoldemGame, error) {
		return e.Fold(payload.PlayerID)
	})
}

// gameCommand runs cmd against the room's engine. A room without an engine
// has no active game.
func (s *Server) gameCommand(c *gin.Context, cmd func(e *game.Engine) (game.TexasHoldemGame, error)) {
	engine, ok := s.arena.Lookup(c.Param("roomId"))
	if !ok {
		abortWithError(c, game.ErrNoActiveGame)
		return
	}
	g, err := cmd(engine)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.respondGame(c, g)
}

func (s *Server) respondGame(c *gin.Context, g game.TexasHoldemGame) {
	if s.publisher != nil {
		if err := s.publisher.PublishGame(g); err != nil {
			restLogger.Warn().Err(err).Str(logging.RoomIDKey, g.RoomID).Msg("Unable to publish game snapshot")
		}
	}
	c.JSON(http.StatusOK, g)
}
