package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"devinput/internal/input"
	"devinput/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrConnectionLost is returned for plans in flight when the agent goes away.
	ErrConnectionLost = errors.New("network: connection to agent lost")
	// ErrPlanRejected wraps the error text an agent reports for a failed plan.
	ErrPlanRejected = errors.New("network: plan rejected by agent")
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// RemoteEngine is an input.Engine that forwards plans to an agent over its
// /ws endpoint and waits for the matching plan_result.
type RemoteEngine struct {
	hostAddr string
	token    string
	dialer   *websocket.Dialer

	mu      sync.Mutex
	conn    *remoteConn
	pending map[uuid.UUID]chan protocol.PlanResultPayload
	closed  bool
}

// remoteConn is one live websocket session.
type remoteConn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewRemoteEngine creates an engine for the agent at hostAddr ("host:port").
// The connection is dialled on first use and redialled after it drops.
func NewRemoteEngine(hostAddr, token string) *RemoteEngine {
	return &RemoteEngine{
		hostAddr: hostAddr,
		token:    token,
		dialer:   websocket.DefaultDialer,
		pending:  make(map[uuid.UUID]chan protocol.PlanResultPayload),
	}
}

// Connect dials the agent if no session is open.
func (e *RemoteEngine) Connect(ctx context.Context) error {
	_, err := e.session(ctx)
	return err
}

func (e *RemoteEngine) session(ctx context.Context) (*remoteConn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, input.ErrEngineClosed
	}
	if e.conn != nil {
		return e.conn, nil
	}

	u := url.URL{Scheme: "ws", Host: e.hostAddr, Path: "/ws"}
	header := http.Header{}
	if e.token != "" {
		header.Set("Authorization", "Bearer "+e.token)
	}

	logger.Infof("connecting to %s", u.String())
	ws, resp, err := e.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("network: dial %s: %w (status %d)", u.String(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("network: dial %s: %w", u.String(), err)
	}

	rc := &remoteConn{
		ws:   ws,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	e.conn = rc
	go e.writePump(rc)
	go e.readPump(rc)
	logger.Infof("connected to agent %s", e.hostAddr)
	return rc, nil
}

// Execute sends the plan and blocks until the agent answers, the session
// drops or ctx is done. The plan is validated before anything is sent; an
// empty plan is a no-op, as on every other engine.
func (e *RemoteEngine) Execute(ctx context.Context, actions []input.Action) error {
	if err := input.ValidatePlan(actions); err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}
	rc, err := e.session(ctx)
	if err != nil {
		return err
	}

	plan := protocol.NewPlan(actions)
	msg, err := protocol.NewMessage(protocol.TypePlan, plan.ID.String(), plan)
	if err != nil {
		return err
	}
	data, err := protocol.JSON.Marshal(msg)
	if err != nil {
		return err
	}

	result := make(chan protocol.PlanResultPayload, 1)
	e.mu.Lock()
	e.pending[plan.ID] = result
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.pending, plan.ID)
		e.mu.Unlock()
	}()

	select {
	case rc.send <- data:
	case <-rc.done:
		return ErrConnectionLost
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case res := <-result:
		return resultErr(res)
	case <-rc.done:
		// the reply may have raced the close
		select {
		case res := <-result:
			return resultErr(res)
		default:
			return ErrConnectionLost
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the session. Plans still waiting fail with ErrConnectionLost.
func (e *RemoteEngine) Close() error {
	e.mu.Lock()
	e.closed = true
	rc := e.conn
	e.mu.Unlock()

	if rc == nil {
		return nil
	}
	rc.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return rc.ws.Close()
}

// IsConnected reports whether a session is open.
func (e *RemoteEngine) IsConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn != nil
}

func (e *RemoteEngine) readPump(rc *remoteConn) {
	defer func() {
		e.mu.Lock()
		if e.conn == rc {
			e.conn = nil
		}
		e.mu.Unlock()
		close(rc.done)
		rc.ws.Close()
	}()

	rc.ws.SetReadLimit(64 << 10)
	rc.ws.SetReadDeadline(time.Now().Add(pongWait))
	rc.ws.SetPongHandler(func(string) error { rc.ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, data, err := rc.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warnf("read error from %s: %v", e.hostAddr, err)
			}
			return
		}

		var msg protocol.Message
		if err := protocol.JSON.Unmarshal(data, &msg); err != nil {
			logger.Warnf("invalid message from %s: %v", e.hostAddr, err)
			continue
		}
		e.handleMessage(&msg)
	}
}

func (e *RemoteEngine) writePump(rc *remoteConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-rc.send:
			rc.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := rc.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warnf("write error to %s: %v", e.hostAddr, err)
				rc.ws.Close()
				return
			}
		case <-ticker.C:
			rc.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := rc.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				rc.ws.Close()
				return
			}
		case <-rc.done:
			return
		}
	}
}

func (e *RemoteEngine) handleMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.TypePlanResult:
		var res protocol.PlanResultPayload
		if err := msg.Decode(&res); err != nil {
			logger.Warnf("invalid plan_result: %v", err)
			return
		}
		e.mu.Lock()
		ch, ok := e.pending[res.ID]
		e.mu.Unlock()
		if !ok {
			logger.Debugf("plan_result for unknown plan %s", res.ID)
			return
		}
		select {
		case ch <- res:
		default:
		}
	case protocol.TypePing:
		logger.Debugf("ping from %s", e.hostAddr)
	}
}

func resultErr(res protocol.PlanResultPayload) error {
	if res.OK {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPlanRejected, res.Error)
}
