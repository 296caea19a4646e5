package sockets

import (
	"sync"
	"time"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// File contents travel as whole-file deltas, so the limit is generous.
	maxMessageSize = 1 << 20

	sendQueueSize = 256
)

// wsConnection adapts a websocket to realtime.Connection. Outbound events
// go through a buffered queue drained by writePump, so Send never blocks
// the event channel's fan-out; a full queue counts as transport failure.
type wsConnection struct {
	id   string
	user db.User
	ws   *websocket.Conn

	send chan realtime.Event
	done chan struct{}

	closeOnce sync.Once
}

func newWsConnection(ws *websocket.Conn, user db.User) *wsConnection {
	return &wsConnection{
		id:   uuid.NewString(),
		user: user,
		ws:   ws,
		send: make(chan realtime.Event, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *wsConnection) ID() string {
	return c.id
}

func (c *wsConnection) User() db.User {
	return c.user
}

func (c *wsConnection) Send(ev realtime.Event) error {
	select {
	case <-c.done:
		return realtime.ErrTransportFailure
	default:
	}

	select {
	case c.send <- ev:
		return nil
	default:
		// Slow consumer: dropping an event would break the ordering
		// contract, so the connection is declared failed instead.
		return realtime.ErrTransportFailure
	}
}

func (c *wsConnection) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *wsConnection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump serializes all writes to the websocket: queued events in
// arrival order, plus keepalive pings.
func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"connection": c.id,
					"context":    "sockets",
				}).Debug("write failed")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
