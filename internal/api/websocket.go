package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"devinput/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// local network tool; clients authenticate with the bearer token
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSManager tracks connected WebSocket clients
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	stopOnce   sync.Once
}

// WebSocketClient is one connected plan submitter. Its plans run in arrival
// order on a dedicated goroutine so the read pump keeps answering pings.
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	plans   chan *protocol.PlanPayload
	ip      string

	ctx    context.Context
	cancel context.CancelFunc
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			n := len(m.clients)
			m.clientsMu.Unlock()
			logger.Infof("ws client registered from %s, total clients: %d", client.ip, n)

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
			}
			n := len(m.clients)
			m.clientsMu.Unlock()
			logger.Infof("ws client unregistered from %s, total clients: %d", client.ip, n)

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				client.cancel()
				client.conn.Close()
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) stop() {
	m.stopOnce.Do(func() { close(m.shutdown) })
}

func (m *WSManager) count() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("failed to upgrade connection: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		plans:   make(chan *protocol.PlanPayload, 64),
		ip:      r.RemoteAddr,
		ctx:     ctx,
		cancel:  cancel,
	}

	select {
	case m.register <- client:
	case <-m.shutdown:
		cancel()
		conn.Close()
		return
	}

	done := make(chan struct{})
	go client.writePump()
	go client.planWorker(done)
	go client.readPump(done)
}

// readPump pumps messages from the websocket connection to the plan worker.
func (c *WebSocketClient) readPump(workerDone <-chan struct{}) {
	defer func() {
		// stop the worker before the send channel can be closed
		c.cancel()
		close(c.plans)
		<-workerDone
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("read error from %s: %v", c.ip, err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// planWorker executes queued plans in order and replies with plan_result.
func (c *WebSocketClient) planWorker(done chan<- struct{}) {
	defer close(done)
	for plan := range c.plans {
		if c.ctx.Err() != nil {
			continue
		}
		res, _ := c.manager.server.ExecutePlan(c.ctx, plan)
		c.reply(protocol.TypePlanResult, plan.ID.String(), res)
	}
}

func (c *WebSocketClient) reply(t protocol.MessageType, id string, payload interface{}) {
	msg, err := protocol.NewMessage(t, id, payload)
	if err != nil {
		logger.Errorf("failed to build %s reply: %v", t, err)
		return
	}
	data, err := protocol.JSON.Marshal(msg)
	if err != nil {
		logger.Errorf("failed to marshal %s reply: %v", t, err)
		return
	}
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := protocol.JSON.Unmarshal(data, &msg); err != nil {
		logger.Warnf("invalid message format from %s: %v", c.ip, err)
		return
	}

	switch msg.Type {
	case protocol.TypeAuth:
		var payload protocol.AuthPayload
		if err := msg.Decode(&payload); err == nil {
			logger.Infof("client %s identified as %s %s", c.ip, payload.ClientName, payload.ClientVersion)
		}

	case protocol.TypePlan:
		var plan protocol.PlanPayload
		if err := msg.Decode(&plan); err != nil {
			logger.Warnf("invalid plan payload from %s: %v", c.ip, err)
			return
		}
		select {
		case c.plans <- &plan:
		case <-c.ctx.Done():
		}

	case protocol.TypePing:
		pong, _ := protocol.NewMessage(protocol.TypePing, msg.ID, nil)
		data, _ := protocol.JSON.Marshal(pong)
		select {
		case c.send <- data:
		default:
		}
	}
}
