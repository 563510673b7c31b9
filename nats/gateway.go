package nats

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"huddle.com/server/game"
	"huddle.com/server/logging"
	"huddle.com/server/room"
	"huddle.com/server/util"
)

var gatewayLogger = log.With().Str("logger_name", "nats::gateway").Logger()

// RoomSync is the inbound side of the room registry.
type RoomSync interface {
	FetchRooms() []room.Room
	ApplyRemoteRoom(r room.Room) error
	ApplyRemoteParticipant(user room.User, roomID string) error
	ApplyRemoteRoomDeleted(roomID string)
	ApplyRemoteContentState(state room.ContentState)
}

// GameHandler receives hold'em snapshots published by peers.
type GameHandler func(g game.TexasHoldemGame)

// Gateway forwards local room changes to peers over NATS and applies peers'
// changes to the local registry. Changes applied from a peer are never
// published again.
type Gateway struct {
	nc             *natsgo.Conn
	nodeID         string
	rooms          RoomSync
	limiter        *rate.Limiter
	requestTimeout time.Duration

	handlersLock sync.RWMutex
	gameHandlers []GameHandler

	roomSub *natsgo.Subscription
	syncSub *natsgo.Subscription
}

type GatewayOption func(*Gateway)

func WithNodeID(nodeID string) GatewayOption {
	return func(g *Gateway) {
		g.nodeID = nodeID
	}
}

// WithContentStateLimit throttles content state publishes. Updates over the
// limit are dropped.
func WithContentStateLimit(perSecond float64, burst int) GatewayOption {
	return func(g *Gateway) {
		g.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithRequestTimeout(timeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.requestTimeout = timeout
	}
}

func NewGateway(natsURL string, rooms RoomSync, opts ...GatewayOption) (*Gateway, error) {
	g := &Gateway{
		nodeID:         uuid.New().String(),
		rooms:          rooms,
		limiter:        rate.NewLimiter(rate.Limit(20), 40),
		requestTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}

	nc, err := natsgo.Connect(natsURL, natsgo.Name(fmt.Sprintf("huddle-%s", g.nodeID)), natsgo.NoEcho())
	if err != nil {
		gatewayLogger.Error().Err(err).Msg(fmt.Sprintf("Failed to connect to nats server: %s", natsURL))
		return nil, errors.Wrap(err, "Unable to connect to nats")
	}
	g.nc = nc

	g.roomSub, err = nc.Subscribe(roomSubjectsAll, g.handleRoomMessage)
	if err != nil {
		nc.Close()
		return nil, errors.Wrapf(err, "Unable to subscribe to %s", roomSubjectsAll)
	}
	g.syncSub, err = nc.Subscribe(roomsSyncSubject, g.handleSyncRequest)
	if err != nil {
		nc.Close()
		return nil, errors.Wrapf(err, "Unable to subscribe to %s", roomsSyncSubject)
	}
	if err := nc.FlushTimeout(g.requestTimeout); err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "Unable to flush subscriptions")
	}
	gatewayLogger.Info().Str(logging.NodeIDKey, g.nodeID).Msg("Sync gateway connected")
	return g, nil
}

func (g *Gateway) NodeID() string {
	return g.nodeID
}

// AddGameHandler registers a handler for peers' game snapshots. Handlers run
// in registration order.
func (g *Gateway) AddGameHandler(h GameHandler) {
	g.handlersLock.Lock()
	defer g.handlersLock.Unlock()
	g.gameHandlers = append(g.gameHandlers, h)
}

// Flush waits until the server has processed everything published so far.
func (g *Gateway) Flush() error {
	return g.nc.FlushTimeout(g.requestTimeout)
}

func (g *Gateway) Close() {
	if g.roomSub != nil {
		g.roomSub.Unsubscribe()
	}
	if g.syncSub != nil {
		g.syncSub.Unsubscribe()
	}
	g.nc.Close()
	gatewayLogger.Info().Str(logging.NodeIDKey, g.nodeID).Msg("Sync gateway closed")
}

func (g *Gateway) OnRoomChanged(r room.Room, origin room.Origin) {
	if origin == room.OriginRemote {
		return
	}
	g.publish(&Envelope{Type: EventRoomChanged, RoomID: r.ID, Room: &r})
}

func (g *Gateway) OnRoomDeleted(roomID string, origin room.Origin) {
	if origin == room.OriginRemote {
		return
	}
	g.publish(&Envelope{Type: EventRoomDeleted, RoomID: roomID})
}

func (g *Gateway) OnUserJoined(user room.User, r room.Room, origin room.Origin) {
	if origin == room.OriginRemote {
		return
	}
	g.publish(&Envelope{Type: EventUserJoined, RoomID: r.ID, User: &user})
}

func (g *Gateway) OnContentOrStateChanged(state room.ContentState, origin room.Origin) {
	if origin == room.OriginRemote {
		return
	}
	if !g.limiter.Allow() {
		util.Metrics.ContentStateDropped()
		gatewayLogger.Debug().Str(logging.RoomIDKey, state.RoomID).Msg("Content state publish throttled")
		return
	}
	g.publish(&Envelope{Type: EventContent, RoomID: state.RoomID, Content: &state})
}

// PublishGame sends a game snapshot to peers.
func (g *Gateway) PublishGame(snapshot game.TexasHoldemGame) error {
	return g.publish(&Envelope{Type: EventGame, RoomID: snapshot.RoomID, Game: &snapshot})
}

// CatchUp asks peers for their rooms and applies every room received. Used
// at startup after restoring the local snapshot. A timeout means no peer is
// running and is not an error.
func (g *Gateway) CatchUp() (int, error) {
	req, err := encodeEnvelope(&Envelope{Node: g.nodeID, SentAt: time.Now()})
	if err != nil {
		return 0, err
	}
	msg, err := g.nc.Request(roomsSyncSubject, req, g.requestTimeout)
	if err == natsgo.ErrTimeout {
		gatewayLogger.Info().Msg("No peers answered the room sync request")
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrap(err, "Room sync request failed")
	}
	reply, err := decodeEnvelope(msg.Data)
	if err != nil {
		return 0, errors.Wrap(err, "Invalid room sync reply")
	}
	applied := 0
	for _, r := range reply.Rooms {
		if err := g.rooms.ApplyRemoteRoom(r); err != nil {
			gatewayLogger.Warn().Err(err).Str(logging.RoomIDKey, r.ID).Msg("Skipping room from sync reply")
			continue
		}
		applied++
	}
	gatewayLogger.Info().Str(logging.NodeIDKey, reply.Node).Int("rooms", applied).Msg("Caught up with peer")
	return applied, nil
}

func (g *Gateway) publish(e *Envelope) error {
	if !validRoomToken(e.RoomID) {
		gatewayLogger.Warn().Str(logging.RoomIDKey, e.RoomID).Msg("Room id cannot be used in a subject")
		return fmt.Errorf("Invalid room id [%s]", e.RoomID)
	}
	e.Node = g.nodeID
	e.SentAt = time.Now()
	data, err := encodeEnvelope(e)
	if err != nil {
		gatewayLogger.Error().Err(err).Str(logging.EventKey, string(e.Type)).Msg("Unable to encode envelope")
		return errors.Wrap(err, "Unable to encode envelope")
	}
	subject := RoomSubject(e.RoomID, e.Type)
	if err := g.nc.Publish(subject, data); err != nil {
		gatewayLogger.Error().Err(err).Str(logging.SubjectKey, subject).Msg("Publish failed")
		return errors.Wrapf(err, "Unable to publish to %s", subject)
	}
	util.Metrics.SyncPublished(string(e.Type))
	return nil
}

func (g *Gateway) handleRoomMessage(msg *natsgo.Msg) {
	roomID, event, err := parseRoomSubject(msg.Subject)
	if err != nil {
		gatewayLogger.Warn().Err(err).Msg("Ignoring message")
		return
	}
	e, err := decodeEnvelope(msg.Data)
	if err != nil {
		gatewayLogger.Warn().Err(err).Str(logging.SubjectKey, msg.Subject).Msg("Envelope cannot be unmarshalled")
		return
	}
	if e.Node == g.nodeID {
		return
	}
	if e.Type != event || e.RoomID != roomID {
		gatewayLogger.Warn().Str(logging.SubjectKey, msg.Subject).Str(logging.EventKey, string(e.Type)).
			Msg("Envelope does not match its subject")
		return
	}

	logger := logging.ForRoom(gatewayLogger, roomID).With().Str(logging.EventKey, string(event)).
		Str(logging.NodeIDKey, e.Node).Logger()
	switch event {
	case EventRoomChanged:
		if e.Room == nil {
			logger.Warn().Msg("Room missing from envelope")
			return
		}
		err = g.rooms.ApplyRemoteRoom(*e.Room)
	case EventRoomDeleted:
		g.rooms.ApplyRemoteRoomDeleted(roomID)
	case EventUserJoined:
		if e.User == nil {
			logger.Warn().Msg("User missing from envelope")
			return
		}
		err = g.rooms.ApplyRemoteParticipant(*e.User, roomID)
	case EventContent:
		if e.Content == nil {
			logger.Warn().Msg("Content state missing from envelope")
			return
		}
		g.rooms.ApplyRemoteContentState(*e.Content)
	case EventGame:
		if e.Game == nil {
			logger.Warn().Msg("Game missing from envelope")
			return
		}
		util.Metrics.RemoteApplied(string(EventGame))
		g.handlersLock.RLock()
		handlers := append([]GameHandler(nil), g.gameHandlers...)
		g.handlersLock.RUnlock()
		for _, h := range handlers {
			h(*e.Game)
		}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Unable to apply remote change")
		return
	}
	logger.Debug().Msg("Remote change applied")
}

func (g *Gateway) handleSyncRequest(msg *natsgo.Msg) {
	req, err := decodeEnvelope(msg.Data)
	if err != nil || req.Node == g.nodeID || msg.Reply == "" {
		return
	}
	data, err := encodeEnvelope(&Envelope{Node: g.nodeID, Rooms: g.rooms.FetchRooms(), SentAt: time.Now()})
	if err != nil {
		gatewayLogger.Error().Err(err).Msg("Unable to encode room sync reply")
		return
	}
	if err := msg.Respond(data); err != nil {
		gatewayLogger.Warn().Err(err).Msg("Unable to answer room sync request")
	}
}
