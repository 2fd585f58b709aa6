package streaming

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sage-x-project/didmediator/internal/logger"
	"github.com/sage-x-project/didmediator/internal/metrics"
)

// WSServer upgrades authenticated requests to a WebSocket and streams
// packed envelopes as they are published for the caller's DID hash.
// Grounded on pkg/agent/transport/websocket/server.go's WSServer,
// generalized from a request/response RPC loop to a one-way push pump
// (frames the client sends are read and discarded; no subscribe,
// unsubscribe or ping command is interpreted, and the subscription lasts
// from upgrade until disconnect).
type WSServer struct {
	dir          *Directory
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	log          logger.Logger
}

// NewWSServer constructs a WSServer backed by dir.
func NewWSServer(dir *Directory) *WSServer {
	return &WSServer{
		dir: dir,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origin allow-list enforced by httpapi/middleware's CORS check upstream
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		writeTimeout: 30 * time.Second,
		log:          logger.GetDefaultLogger(),
	}
}

// Serve upgrades the connection for didHash and pumps published
// messages to it until the client disconnects.
func (s *WSServer) Serve(w http.ResponseWriter, r *http.Request, didHash string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	streamUUID := uuid.NewString()
	send := s.dir.Register(didHash, streamUUID)
	defer s.dir.Unregister(didHash)

	metrics.StreamActiveSubscriptions.Inc()
	defer metrics.StreamActiveSubscriptions.Dec()

	go func() {
		s.drainInbound(conn)
		s.dir.Unregister(didHash)
	}()

	for packed := range send {
		if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			metrics.StreamPublishes.WithLabelValues("write_deadline_error").Inc()
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, packed); err != nil {
			metrics.StreamPublishes.WithLabelValues("write_error").Inc()
			return
		}
		metrics.StreamPublishes.WithLabelValues("ok").Inc()
	}
}

// drainInbound discards any client-sent frames (this socket is
// push-only) purely to notice disconnects promptly.
func (s *WSServer) drainInbound(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
