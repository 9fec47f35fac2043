package hub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"
	"streamshare/internal/core/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin filtering happens at the proxy layer
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HubMetrics observes hub activity. A nil recorder disables metrics.
type HubMetrics interface {
	ConnectionOpened()
	ConnectionClosed()
	RoomJoined()
	RoomLeft()
	MessageReceived(msgType string)
}

// WebSocketServer is the transport in front of the registry, router and
// relay. Each connection runs its own read loop; unauthenticated connections
// may only send authenticate.
type WebSocketServer struct {
	registry   *Registry
	router     *Router
	relay      *Relay
	authSvc    services.AuthService
	chatSvc    ports.ChatService
	settlement ports.SettlementService
	metrics    HubMetrics

	pingInterval   time.Duration
	pongTimeout    time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64

	msgRate  rate.Limit
	msgBurst int

	logger *zap.SugaredLogger
}

type WebSocketServerOptions struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	// MessagesPerSecond <= 0 disables per-connection rate limiting.
	MessagesPerSecond float64
	Burst             int
}

func NewWebSocketServer(
	registry *Registry,
	router *Router,
	relay *Relay,
	authSvc services.AuthService,
	chatSvc ports.ChatService,
	settlement ports.SettlementService,
	metrics HubMetrics,
	opts WebSocketServerOptions,
	logger *zap.SugaredLogger,
) *WebSocketServer {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	return &WebSocketServer{
		registry:       registry,
		router:         router,
		relay:          relay,
		authSvc:        authSvc,
		chatSvc:        chatSvc,
		settlement:     settlement,
		metrics:        metrics,
		pingInterval:   opts.PingInterval,
		pongTimeout:    opts.PongTimeout,
		writeTimeout:   opts.WriteTimeout,
		maxMessageSize: opts.MaxMessageSize,
		msgRate:        rate.Limit(opts.MessagesPerSecond),
		msgBurst:       opts.Burst,
		logger:         logger,
	}
}

// wsSender serializes writes to one gorilla connection.
type wsSender struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (s *wsSender) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *wsSender) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// isDecodeError reports whether a ReadJSON failure came from decoding the
// frame payload rather than from the transport. A truncated document surfaces
// as io.ErrUnexpectedEOF; gorilla wraps an abruptly closed transport in a
// CloseError, which is never matched here.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	if s.metrics != nil {
		s.metrics.ConnectionOpened()
		defer s.metrics.ConnectionClosed()
	}

	connID := uuid.New().String()
	sender := &wsSender{conn: ws, writeTimeout: s.writeTimeout}

	ws.SetReadLimit(s.maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(s.pongTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	var limiter *rate.Limiter
	if s.msgRate > 0 {
		limiter = rate.NewLimiter(s.msgRate, s.msgBurst)
	}

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan Envelope, 10)
	malformedChan := make(chan error, 1)
	errorChan := make(chan error, 1)

	go func() {
		for {
			var msg Envelope
			if err := ws.ReadJSON(&msg); err != nil {
				// Only decode failures of a delivered frame are recoverable.
				// Every other read error (close, deadline expiry, reset) is
				// permanent in gorilla, so the loop must stop reading.
				if isDecodeError(err) {
					select {
					case malformedChan <- err:
					default:
					}
					continue
				}
				errorChan <- err
				return
			}
			ws.SetReadDeadline(time.Now().Add(s.pongTimeout))
			messageChan <- msg
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if limiter != nil && !limiter.Allow() {
				sender.Send(&ErrorEvent{Type: EventError, Message: "rate limit exceeded"})
				continue
			}
			if s.metrics != nil {
				s.metrics.MessageReceived(msg.Type)
			}
			s.handleMessage(r.Context(), connID, sender, msg)

		case <-malformedChan:
			sender.Send(&ErrorEvent{Type: EventError, Message: "invalid message format"})

		case <-pingTicker.C:
			if err := sender.ping(); err != nil {
				s.logger.Debugw("ping failed, closing connection", "conn_id", connID, "error", err)
				s.cleanup(connID)
				return
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("unexpected close reading from connection", "conn_id", connID, "error", err)
			}
			s.cleanup(connID)
			return
		}
	}
}

func (s *WebSocketServer) handleMessage(ctx context.Context, connID string, sender *wsSender, msg Envelope) {
	switch msg.Type {
	case MessageAuthenticate:
		s.handleAuthenticate(ctx, connID, sender, msg)
	case MessageJoinStream:
		s.handleJoinStream(ctx, connID, sender, msg)
	case MessageLeaveStream:
		s.handleLeaveStream(ctx, connID)
	case MessageChat:
		s.handleChat(ctx, connID, sender, msg)
	case MessageWebRTCSignal:
		s.handleSignal(connID, sender, msg)
	default:
		sender.Send(&ErrorEvent{Type: EventError, Message: "unknown message type"})
	}
}

func (s *WebSocketServer) handleAuthenticate(ctx context.Context, connID string, sender *wsSender, msg Envelope) {
	if msg.Token == "" {
		sender.Send(&ErrorEvent{Type: EventAuthError, Message: "token is required"})
		return
	}

	user, err := s.authSvc.Authenticate(ctx, msg.Token)
	if err != nil {
		sender.Send(&ErrorEvent{Type: EventAuthError, Message: "Invalid token"})
		return
	}

	conn := NewConn(connID, user.ID, user.Username, sender)
	if err := s.registry.Register(conn); err != nil {
		sender.Send(&ErrorEvent{Type: EventAuthError, Message: "connection already authenticated"})
		return
	}

	s.logger.Infow("connection authenticated", "conn_id", connID, "user_id", user.ID)
	sender.Send(&AuthenticatedEvent{Type: EventAuthenticated, UserID: user.ID})
}

func (s *WebSocketServer) handleJoinStream(ctx context.Context, connID string, sender *wsSender, msg Envelope) {
	conn, ok := s.registeredConn(connID)
	if !ok {
		sender.Send(&ErrorEvent{Type: EventError, Message: "authentication required"})
		return
	}
	if msg.StreamID == "" {
		sender.Send(&ErrorEvent{Type: EventError, Message: "streamId is required"})
		return
	}

	prev, changed, err := s.registry.JoinRoom(connID, msg.StreamID)
	if err != nil {
		sender.Send(&ErrorEvent{Type: EventError, Message: "authentication required"})
		return
	}
	// Re-joining the current room must not announce a second arrival.
	if !changed {
		return
	}

	if s.metrics != nil {
		s.metrics.RoomJoined()
	}

	// Switching rooms counts as leaving the old one.
	if prev != "" {
		s.afterLeave(ctx, conn, prev)
	}

	s.router.BroadcastToRoom(msg.StreamID, &PresenceEvent{
		Type:     EventUserJoined,
		StreamID: msg.StreamID,
		UserID:   conn.UserID(),
	}, conn)
}

func (s *WebSocketServer) handleLeaveStream(ctx context.Context, connID string) {
	conn, ok := s.registeredConn(connID)
	if !ok {
		return
	}
	if room, left := s.registry.LeaveRoom(connID); left {
		s.afterLeave(ctx, conn, room)
	}
}

func (s *WebSocketServer) handleChat(ctx context.Context, connID string, sender *wsSender, msg Envelope) {
	conn, ok := s.registeredConn(connID)
	if !ok {
		sender.Send(&ErrorEvent{Type: EventError, Message: "authentication required"})
		return
	}
	room, inRoom := s.registry.RoomOf(connID)
	if !inRoom {
		sender.Send(&ErrorEvent{Type: EventError, Message: "join a stream before chatting"})
		return
	}
	if msg.Content == "" {
		sender.Send(&ErrorEvent{Type: EventError, Message: "content is required"})
		return
	}

	// Persist first. Broadcasting only after the store accepted the message
	// keeps room chat in store order.
	stored, err := s.chatSvc.Post(ctx, room, conn.UserID(), msg.Content)
	if err != nil {
		s.logger.Warnw("chat persist failed", "conn_id", connID, "room", room, "error", err)
		sender.Send(&ErrorEvent{Type: EventError, Message: "failed to send message"})
		return
	}

	s.router.BroadcastToRoom(room, &ChatEvent{Type: EventNewChat, Message: stored}, nil)
}

func (s *WebSocketServer) handleSignal(connID string, sender *wsSender, msg Envelope) {
	conn, ok := s.registeredConn(connID)
	if !ok {
		sender.Send(&ErrorEvent{Type: EventError, Message: "authentication required"})
		return
	}
	if msg.TargetUserID == "" || len(msg.Signal) == 0 {
		sender.Send(&ErrorEvent{Type: EventError, Message: "signal and targetUserId are required"})
		return
	}

	// Payload goes through untouched. An offline target is a silent drop.
	s.relay.Forward(conn.UserID(), msg.TargetUserID, msg.Signal)
}

// cleanup runs exactly once per connection close: one implicit leave with the
// same side effects as an explicit one. The coin debit stays where it is.
func (s *WebSocketServer) cleanup(connID string) {
	conn, room, ok := s.registry.Unregister(connID)
	if !ok {
		return
	}
	if room != "" {
		s.afterLeave(context.Background(), conn, room)
	}
	s.logger.Infow("connection closed", "conn_id", connID, "user_id", conn.UserID())
}

// afterLeave broadcasts the departure and closes the viewer's open join
// session. Session close is idempotent, so two connections of one identity
// leaving the same room settle at most once.
func (s *WebSocketServer) afterLeave(ctx context.Context, conn *Conn, room domain.StreamID) {
	if s.metrics != nil {
		s.metrics.RoomLeft()
	}
	s.router.BroadcastToRoom(room, &PresenceEvent{
		Type:     EventUserLeft,
		StreamID: room,
		UserID:   conn.UserID(),
	}, conn)

	if err := s.settlement.SettleLeave(ctx, conn.UserID(), room); err != nil {
		s.logger.Warnw("settle leave failed", "user_id", conn.UserID(), "stream_id", room, "error", err)
	}
}

func (s *WebSocketServer) registeredConn(connID string) (*Conn, bool) {
	return s.registry.Lookup(connID)
}
