package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/app"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
)

// WebSocket timing, following the gorilla keepalive pattern.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	eventBuffer    = 16
)

// Message types exchanged over /api/ws.
const (
	MsgFrame    = "frame"
	MsgCapture  = "capture"
	MsgSave     = "save"
	MsgReset    = "reset"
	MsgEvent    = "event"
	MsgCaptured = "captured"
	MsgSaved    = "saved"
	MsgError    = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ClientMessage is sent by the browser.
//
//	frame:   landmarks of the current video frame, empty when no hand is visible
//	capture: one training sample for label
//	save:    store the captured samples as a gesture
//	reset:   drop the captured samples
type ClientMessage struct {
	Type        string         `json:"type"`
	Label       string         `json:"label,omitempty"`
	Description string         `json:"description,omitempty"`
	Landmarks   landmark.Frame `json:"landmarks,omitempty"`
}

// ServerMessage is sent to the browser.
type ServerMessage struct {
	Type   string         `json:"type"`
	Event  *gesture.Event `json:"event,omitempty"`
	Label  string         `json:"label,omitempty"`
	Count  int            `json:"count,omitempty"`
	Needed int            `json:"needed,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// RecognitionHandler ingests landmark frames over WebSocket, pushes
// recognition events back and runs a per-connection capture session.
type RecognitionHandler struct {
	app     *app.App
	trainer *gesture.Trainer
	log     *logrus.Entry
}

// NewRecognitionHandler creates a RecognitionHandler.
func NewRecognitionHandler(a *app.App, trainer *gesture.Trainer, log *logrus.Entry) *RecognitionHandler {
	return &RecognitionHandler{app: a, trainer: trainer, log: log}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	events, unsubscribe := h.app.Subscribe(eventBuffer)
	replies := make(chan ServerMessage, eventBuffer)
	done := make(chan struct{})

	go h.writeLoop(conn, events, replies, done)
	defer func() {
		unsubscribe()
		close(done)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &connection{handler: h, replies: replies}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).Debug("websocket closed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ServerMessage{Type: MsgError, Error: "invalid message"})
			continue
		}
		c.handle(msg)
	}
}

// writeLoop owns all writes to conn.
func (h *RecognitionHandler) writeLoop(conn *websocket.Conn, events <-chan gesture.Event, replies <-chan ServerMessage, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(msg ServerMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.log.WithError(err).Debug("websocket write")
			return false
		}
		return true
	}

	for {
		select {
		case <-done:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if !write(ServerMessage{Type: MsgEvent, Event: &e}) {
				return
			}
		case msg := <-replies:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// connection is the state of one WebSocket client.
type connection struct {
	handler *RecognitionHandler
	replies chan<- ServerMessage
	session *gesture.Session
}

func (c *connection) reply(msg ServerMessage) {
	select {
	case c.replies <- msg:
	default:
		c.handler.log.WithField("type", msg.Type).Debug("reply dropped")
	}
}

func (c *connection) fail(err error) {
	c.reply(ServerMessage{Type: MsgError, Error: err.Error()})
}

func (c *connection) handle(msg ClientMessage) {
	h := c.handler

	switch msg.Type {
	case MsgFrame:
		h.app.Submit(msg.Landmarks)

	case MsgCapture:
		if c.session == nil || !gesture.SameLabel(c.session.Label(), msg.Label) {
			c.session = gesture.NewSession(msg.Label)
		}
		if c.session.Label() == "" {
			c.session = nil
			c.fail(gesture.ErrEmptyLabel)
			return
		}
		if err := c.session.Capture(msg.Landmarks); err != nil {
			c.fail(err)
			return
		}
		c.reply(ServerMessage{
			Type:   MsgCaptured,
			Label:  c.session.Label(),
			Count:  c.session.Len(),
			Needed: h.trainer.MinSamples(),
		})

	case MsgSave:
		if c.session == nil {
			c.fail(errors.New("no samples captured"))
			return
		}
		g, err := h.trainer.SaveGesture(c.session.Label(), msg.Description, c.session.Samples())
		if err != nil {
			c.fail(err)
			return
		}
		c.session = nil
		if err := h.app.Reload(); err != nil {
			h.log.WithError(err).Warn("reload library")
		}
		c.reply(ServerMessage{Type: MsgSaved, Label: g.Label, Count: len(g.Samples)})

	case MsgReset:
		c.session = nil

	default:
		c.reply(ServerMessage{Type: MsgError, Error: "unknown message type " + msg.Type})
	}
}
