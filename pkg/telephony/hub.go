// Package telephony accepts media-stream WebSocket connections from the
// telephony platform and exposes each one as a Call with audio callbacks
// and outbound playback. One connection is one phone call.
package telephony

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/storline-ai/storline/internal/log"
)

// CallHandler runs the lifetime of one call. It is invoked in its own
// goroutine as soon as the socket is accepted, before the start event
// arrives; use Call.WaitForStart to get call metadata.
type CallHandler func(call *Call)

// Hub tracks active calls and hands new ones to the registered handler.
type Hub struct {
	mu      sync.RWMutex
	calls   map[string]*Call
	handler CallHandler

	total int // All calls accepted since startup
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		calls: make(map[string]*Call),
	}
}

// OnCall sets the handler invoked for each new call.
// Must be set before RegisterRoutes.
func (h *Hub) OnCall(fn CallHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = fn
}

// RegisterRoutes mounts the media-stream endpoint on the fiber app.
func (h *Hub) RegisterRoutes(app *fiber.App, path string) {
	app.Use(path, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get(path, websocket.New(h.handleConn))
}

// handleConn runs inside the fiber websocket handler and blocks for the
// duration of the call.
func (h *Hub) handleConn(conn *websocket.Conn) {
	call := newCall(conn, uuid.NewString())

	h.mu.Lock()
	h.calls[call.ID] = call
	h.total++
	count := len(h.calls)
	handler := h.handler
	h.mu.Unlock()

	log.Info("call connected", "callId", call.ID, "active", count)

	if handler != nil {
		go handler(call)
	}

	call.run()

	h.mu.Lock()
	delete(h.calls, call.ID)
	count = len(h.calls)
	h.mu.Unlock()

	log.Info("call disconnected", "callId", call.ID, "active", count)
}

// CallCount returns the number of active calls.
func (h *Hub) CallCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.calls)
}

// TotalCalls returns the number of calls accepted since startup.
func (h *Hub) TotalCalls() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Get returns the active call with the given worker-local ID.
func (h *Hub) Get(id string) (*Call, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	call, ok := h.calls[id]
	return call, ok
}

// Shutdown closes all active calls.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	calls := make([]*Call, 0, len(h.calls))
	for _, c := range h.calls {
		calls = append(calls, c)
	}
	h.mu.RUnlock()

	for _, c := range calls {
		c.Close()
	}
}
