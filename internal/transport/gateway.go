// Package transport owns the websocket connection to the messaging backend.
// The router never sees this package directly; it receives normalized
// messages and replies through the Sender contract.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/usherbot/usher/pkg/errors"
)

type MessageCallback func(raw []byte)

type StateCallback func(state State)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

type Gateway struct {
	wsURL                string
	conn                 *websocket.Conn
	writeMu              sync.Mutex
	state                State
	stateMu              sync.RWMutex
	messageCallbacks     []callbackEntry
	stateCallbacks       []stateCallbackEntry
	nextCallbackID       int
	callbacksMu          sync.RWMutex
	reconnectAttempts    int
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger
	stopCh               chan struct{}
	stopOnce             sync.Once
	listenerWg           sync.WaitGroup
}

func NewGateway(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{
		wsURL:                wsURL,
		state:                StateDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		logger:               logger,
		stopCh:               make(chan struct{}),
		messageCallbacks:     make([]callbackEntry, 0),
		stateCallbacks:       make([]stateCallbackEntry, 0),
		nextCallbackID:       1,
	}
}

func (g *Gateway) Connect(ctx context.Context) error {
	g.stateMu.Lock()
	if g.state == StateConnected || g.state == StateConnecting {
		g.stateMu.Unlock()
		g.logger.Warn("Gateway already connected or connecting")
		return nil
	}
	g.stateMu.Unlock()

	g.setState(StateConnecting)

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, g.wsURL, nil)
	if err != nil {
		g.logger.Error("Failed to connect gateway", zap.Error(err))
		g.setState(StateFailed)
		g.scheduleReconnect(ctx)
		return err
	}

	g.conn = conn
	g.setState(StateConnected)
	g.reconnectAttempts = 0

	g.logger.Info("Gateway connected", zap.String("url", g.wsURL))

	g.listenerWg.Add(1)
	go g.listen(ctx)

	return nil
}

// SendText delivers a text reply to a chat. Satisfies the router's Sender.
func (g *Gateway) SendText(ctx context.Context, chat, text string) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if g.conn == nil || !g.IsConnected() {
		return errors.NewBotError("gateway is not connected", errors.CodeTransport, 503, nil)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = g.conn.SetWriteDeadline(deadline)
	} else {
		_ = g.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	}

	return g.conn.WriteJSON(OutboundText{
		Type: "text",
		Chat: chat,
		Text: text,
	})
}

func (g *Gateway) listen(ctx context.Context) {
	defer g.listenerWg.Done()
	defer g.logger.Info("Gateway listener stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.stopCh:
			return
		default:
			if g.conn == nil {
				return
			}

			_, raw, err := g.conn.ReadMessage()
			if err != nil {
				g.logger.Error("Gateway read error", zap.Error(err))
				g.setState(StateDisconnected)
				g.scheduleReconnect(ctx)
				return
			}

			g.fanOut(raw)
		}
	}
}

func (g *Gateway) fanOut(raw []byte) {
	g.callbacksMu.RLock()
	callbacks := make([]callbackEntry, len(g.messageCallbacks))
	copy(callbacks, g.messageCallbacks)
	g.callbacksMu.RUnlock()

	for _, entry := range callbacks {
		entry.callback(raw)
	}
}

func (g *Gateway) scheduleReconnect(ctx context.Context) {
	g.reconnectAttempts++

	if g.reconnectAttempts > g.maxReconnectAttempts {
		g.logger.Error("Max reconnect attempts reached",
			zap.Int("attempts", g.reconnectAttempts),
		)
		g.setState(StateFailed)
		return
	}

	g.setState(StateReconnecting)

	g.logger.Info("Scheduling reconnect",
		zap.Int("attempt", g.reconnectAttempts),
		zap.Int("max", g.maxReconnectAttempts),
		zap.Duration("delay", g.reconnectDelay),
	)

	go func() {
		select {
		case <-time.After(g.reconnectDelay):
			if err := g.Connect(ctx); err != nil {
				g.logger.Error("Reconnect failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}()
}

// OnMessage subscribes to raw inbound payloads. Returns an unsubscribe func.
func (g *Gateway) OnMessage(callback MessageCallback) func() {
	g.callbacksMu.Lock()
	id := g.nextCallbackID
	g.nextCallbackID++
	g.messageCallbacks = append(g.messageCallbacks, callbackEntry{
		id:       id,
		callback: callback,
	})
	g.callbacksMu.Unlock()

	return func() {
		g.callbacksMu.Lock()
		defer g.callbacksMu.Unlock()
		for i, entry := range g.messageCallbacks {
			if entry.id == id {
				g.messageCallbacks = append(g.messageCallbacks[:i], g.messageCallbacks[i+1:]...)
				break
			}
		}
	}
}

func (g *Gateway) OnStateChange(callback StateCallback) func() {
	g.callbacksMu.Lock()
	id := g.nextCallbackID
	g.nextCallbackID++
	g.stateCallbacks = append(g.stateCallbacks, stateCallbackEntry{
		id:       id,
		callback: callback,
	})
	g.callbacksMu.Unlock()

	return func() {
		g.callbacksMu.Lock()
		defer g.callbacksMu.Unlock()
		for i, entry := range g.stateCallbacks {
			if entry.id == id {
				g.stateCallbacks = append(g.stateCallbacks[:i], g.stateCallbacks[i+1:]...)
				break
			}
		}
	}
}

func (g *Gateway) setState(newState State) {
	g.stateMu.Lock()
	oldState := g.state
	g.state = newState
	g.stateMu.Unlock()

	if oldState != newState {
		g.logger.Info("Gateway state changed",
			zap.String("from", oldState.String()),
			zap.String("to", newState.String()),
		)

		g.callbacksMu.RLock()
		callbacks := make([]stateCallbackEntry, len(g.stateCallbacks))
		copy(callbacks, g.stateCallbacks)
		g.callbacksMu.RUnlock()

		for _, entry := range callbacks {
			entry.callback(newState)
		}
	}
}

func (g *Gateway) GetState() State {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.state
}

func (g *Gateway) IsConnected() bool {
	return g.GetState() == StateConnected
}

func (g *Gateway) Disconnect() error {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})

	if g.conn != nil {
		if err := g.conn.Close(); err != nil {
			g.logger.Error("Failed to close gateway connection", zap.Error(err))
			return err
		}
		g.conn = nil
	}

	g.reconnectAttempts = 0
	g.setState(StateDisconnected)
	g.logger.Info("Gateway disconnected")

	done := make(chan struct{})
	go func() {
		g.listenerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.logger.Info("Listener stopped cleanly")
	case <-time.After(5 * time.Second):
		g.logger.Warn("Timeout waiting for listener to stop")
	}

	return nil
}
