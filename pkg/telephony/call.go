package telephony

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/storline-ai/storline/internal/log"
	"github.com/storline-ai/storline/pkg/protocol"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds a single media-stream frame
	maxMessageSize = 64 * 1024
)

var (
	// ErrCallClosed is returned when operating on a call whose socket closed.
	ErrCallClosed = errors.New("telephony: call closed")

	// ErrNoStart is returned when the platform never delivered a start event.
	ErrNoStart = errors.New("telephony: no start event received")
)

// Call represents one live phone call carried over a media-stream WebSocket.
// The platform opens the socket when the caller is connected, sends a start
// event with call metadata, then streams audio frames until the call ends.
type Call struct {
	// ID is a worker-local identifier, assigned at accept time. The
	// platform's stream and call SIDs arrive later, in the start event.
	ID string

	conn *websocket.Conn
	send chan []byte

	mu        sync.RWMutex
	start     *protocol.StartPayload
	streamSID string

	startCh chan struct{}
	done    chan struct{}

	onMedia func(audio []byte)
	onDTMF  func(digit string)
	onMark  func(name string)
	onStop  func(reason string)

	closeOnce sync.Once
}

func newCall(conn *websocket.Conn, id string) *Call {
	return &Call{
		ID:      id,
		conn:    conn,
		send:    make(chan []byte, 256),
		startCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// WaitForStart blocks until the platform delivers the start event, the
// context expires, or the socket closes. On success it returns the call
// metadata, including the caller attributes set by the SIP ingress.
func (c *Call) WaitForStart(ctx context.Context) (*protocol.StartPayload, error) {
	select {
	case <-c.startCh:
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.start, nil
	case <-c.done:
		return nil, ErrNoStart
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Start returns the start payload if it has arrived, or nil.
func (c *Call) Start() *protocol.StartPayload {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.start
}

// StreamSID returns the platform's stream identifier, or "" before start.
func (c *Call) StreamSID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.streamSID
}

// OnMedia sets the callback for inbound caller audio. The callback receives
// decoded audio bytes in the stream's media format.
// Must be set before the first frame arrives to avoid dropped audio.
func (c *Call) OnMedia(fn func(audio []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMedia = fn
}

// OnDTMF sets the callback for keypad digits.
func (c *Call) OnDTMF(fn func(digit string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDTMF = fn
}

// OnMark sets the callback for playback marker confirmations.
func (c *Call) OnMark(fn func(name string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMark = fn
}

// OnStop sets the callback invoked when the platform ends the call.
func (c *Call) OnStop(fn func(reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStop = fn
}

// SendAudio queues one frame of agent audio for playback to the caller.
// Audio must be encoded in the stream's media format.
func (c *Call) SendAudio(audio []byte) error {
	msg := protocol.NewMediaMessage(c.StreamSID(), audio)
	return c.sendMessage(msg)
}

// SendMark queues a named playback marker. The platform echoes it back
// once all audio queued before it has been played.
func (c *Call) SendMark(name string) error {
	return c.sendMessage(protocol.NewMarkMessage(c.StreamSID(), name))
}

// SendClear tells the platform to drop any queued playback audio.
// Used when the caller barges in over the agent.
func (c *Call) SendClear() error {
	return c.sendMessage(protocol.NewClearMessage(c.StreamSID()))
}

func (c *Call) sendMessage(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrCallClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Outbound buffer full, drop the frame rather than stall the call
		return nil
	}
}

// Done returns a channel closed when the call ends.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Close tears down the call's socket.
func (c *Call) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// run drives the call until the socket closes. It blocks, which keeps the
// fiber websocket handler alive for the duration of the call.
func (c *Call) run() {
	go c.writePump()
	c.readPump()
}

func (c *Call) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	logger := log.Call(c.ID)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := protocol.Parse(data)
		if err != nil {
			logger.Warn("dropping unparseable frame", "error", err)
			continue
		}

		if done := c.dispatch(msg, logger); done {
			return
		}
	}
}

// dispatch routes one parsed event. Returns true when the call is over.
func (c *Call) dispatch(msg *protocol.Message, logger *slog.Logger) bool {
	switch msg.Event {
	case protocol.EventConnected:
		// Socket handshake, no payload of interest

	case protocol.EventStart:
		if msg.Start == nil {
			logger.Warn("start event without payload")
			return false
		}
		c.mu.Lock()
		alreadyStarted := c.start != nil
		if !alreadyStarted {
			c.start = msg.Start
			c.streamSID = msg.Start.StreamSID
		}
		c.mu.Unlock()
		if !alreadyStarted {
			close(c.startCh)
			logger.Info("call started",
				"streamSid", msg.Start.StreamSID,
				"callSid", msg.Start.CallSID)
		}

	case protocol.EventMedia:
		if msg.Media == nil {
			return false
		}
		audio, err := msg.Media.Audio()
		if err != nil {
			logger.Warn("bad media payload", "error", err)
			return false
		}
		c.mu.RLock()
		fn := c.onMedia
		c.mu.RUnlock()
		if fn != nil {
			fn(audio)
		}

	case protocol.EventDTMF:
		if msg.DTMF == nil {
			return false
		}
		c.mu.RLock()
		fn := c.onDTMF
		c.mu.RUnlock()
		if fn != nil {
			fn(msg.DTMF.Digit)
		}

	case protocol.EventMark:
		if msg.Mark == nil {
			return false
		}
		c.mu.RLock()
		fn := c.onMark
		c.mu.RUnlock()
		if fn != nil {
			fn(msg.Mark.Name)
		}

	case protocol.EventStop:
		reason := ""
		if msg.Stop != nil {
			reason = msg.Stop.Reason
		}
		logger.Info("call stopped", "reason", reason)
		c.mu.RLock()
		fn := c.onStop
		c.mu.RUnlock()
		if fn != nil {
			fn(reason)
		}
		return true

	default:
		logger.Debug("unhandled event", "event", string(msg.Event))
	}

	return false
}

// writePump is the only goroutine that writes to the connection.
func (c *Call) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
