package sockets

import (
	"net/http"
	"time"

	"github.com/devboardui/devboard/api/helpers"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/devboardui/devboard/services/session"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin policy is enforced by the fronting proxy.
		return true
	},
}

// clientMessage is a command received from the client over the socket.
type clientMessage struct {
	Action  string `json:"action"`
	Body    string `json:"body,omitempty"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
}

type Handler struct {
	Session *session.Service
}

// ServeProject upgrades the request and binds the connection to the
// requested project for the lifetime of the socket.
func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r)

	projectID, err := helpers.GetIntParam("project_id", w, r)
	if err != nil {
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := newWsConnection(ws, *user)
	go conn.writePump()

	state, err := h.Session.JoinProject(conn, projectID)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	// The join snapshot goes through the same queue as live events, so
	// the client observes state before any delta that follows it.
	_ = conn.Send(realtime.Event{
		Kind:      realtime.EventProjectState,
		ProjectID: projectID,
		Snapshot:  &state,
	})

	log.WithFields(log.Fields{
		"connection": conn.ID(),
		"user":       user.ID,
		"project":    projectID,
		"context":    "sockets",
	}).Info("client joined project")

	h.readPump(conn, projectID)
}

func (h *Handler) readPump(conn *wsConnection, projectID int) {
	defer func() {
		h.Session.LeaveProject(conn)
		conn.Close()
		log.WithFields(log.Fields{
			"connection": conn.ID(),
			"project":    projectID,
			"context":    "sockets",
		}).Info("client left project")
	}()

	conn.ws.SetReadLimit(maxMessageSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).WithField("connection", conn.ID()).Debug("read failed")
			}
			return
		}

		switch msg.Action {
		case "chat":
			if _, err := h.Session.SendChat(conn, msg.Body); err != nil {
				log.WithError(err).WithField("connection", conn.ID()).Warn("chat message rejected")
			}
		case "filetree":
			if err := h.Session.PushFileDelta(conn, msg.Path, msg.Content); err != nil {
				log.WithError(err).WithField("connection", conn.ID()).Warn("file delta rejected")
			}
		default:
			log.WithFields(log.Fields{
				"action":     msg.Action,
				"connection": conn.ID(),
			}).Warn("unknown socket action")
		}
	}
}
