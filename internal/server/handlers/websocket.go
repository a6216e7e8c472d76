// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"viralboard/internal/adapter/events"
	"viralboard/internal/logging"
	"viralboard/internal/metrics"
)

// WebSocketClient is one dashboard connection receiving refresh events
type WebSocketClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	sub       *nats.Subscription
	config    WebSocketConfig
	log       zerolog.Logger
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS configuration
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TrendsWebSocketHandler streams dashboard refresh events to the client.
// It answers 503 when no event broker is configured.
func TrendsWebSocketHandler(publisher *events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !publisher.Enabled() {
			respondWithError(w, r, http.StatusServiceUnavailable, "Live updates are not enabled", nil)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to upgrade to websocket")
			return
		}

		client := &WebSocketClient{
			conn:   conn,
			send:   make(chan []byte, 64),
			done:   make(chan struct{}),
			config: DefaultWebSocketConfig(),
			log:    *logging.Ctx(r.Context()),
		}

		client.sub, err = publisher.Subscribe(client.enqueue)
		if err != nil {
			client.log.Error().Err(err).Msg("failed to subscribe to dashboard events")
			conn.Close()
			return
		}

		metrics.WebSocketConnections.Inc()
		go client.writePump()
		go client.readPump()

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "welcome",
			"subject": publisher.Subject(),
			"time":    time.Now().UTC(),
		})
		client.enqueue(welcome)

		client.log.Info().Str("remote", r.RemoteAddr).Msg("websocket connected")
	}
}

// enqueue hands data to the write pump, dropping it when the client is
// too slow or already closed
func (c *WebSocketClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn().Msg("websocket send buffer full, dropping event")
	}
}

// readPump consumes control frames; clients do not send data
func (c *WebSocketClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump pumps queued events to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeConnection unsubscribes and closes the socket once
func (c *WebSocketClient) closeConnection() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.sub != nil {
			c.sub.Unsubscribe()
		}
		c.conn.Close()
		metrics.WebSocketConnections.Dec()
		c.log.Info().Msg("websocket connection closed")
	})
}
