package session

import (
	"errors"
	"time"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/ai"
	"github.com/devboardui/devboard/services/project"
	"github.com/devboardui/devboard/services/realtime"
	log "github.com/sirupsen/logrus"
)

// Service is the project session facade: the surface each connected client
// talks to. Chat and file operations apply locally first and publish
// second, so the sender's echo is never lost even when fan-out partially
// fails.
type Service struct {
	store     db.Store
	registry  *realtime.SessionRegistry
	channel   *realtime.EventChannel
	invites   *project.InviteService
	responder *ai.Responder
}

func NewService(
	store db.Store,
	registry *realtime.SessionRegistry,
	channel *realtime.EventChannel,
	invites *project.InviteService,
	responder *ai.Responder,
) *Service {
	return &Service{
		store:     store,
		registry:  registry,
		channel:   channel,
		invites:   invites,
		responder: responder,
	}
}

// JoinProject subscribes the connection to the project's event stream
// after checking membership, and returns the state snapshot a late joiner
// renders from.
func (s *Service) JoinProject(conn realtime.Connection, projectID int) (realtime.JoinState, error) {
	if _, err := s.store.GetProjectUser(projectID, conn.User().ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return realtime.JoinState{}, project.ErrNotAMember
		}
		return realtime.JoinState{}, err
	}

	return s.registry.Join(conn, projectID)
}

// LeaveProject is idempotent.
func (s *Service) LeaveProject(conn realtime.Connection) {
	s.registry.Leave(conn)
}

// SendChat records the message, fans it out to the other participants and
// hands it to the AI responder when it is a prompt. The message is
// persisted best-effort: a store outage degrades history replay but never
// interrupts the live conversation.
func (s *Service) SendChat(conn realtime.Connection, body string) (db.ChatMessage, error) {
	projectID, ok := s.registry.ProjectOf(conn)
	if !ok {
		return db.ChatMessage{}, realtime.ErrNotJoined
	}

	user := conn.User()
	message := db.ChatMessage{
		ProjectID: projectID,
		UserID:    &user.ID,
		Sender:    user.Email,
		Body:      body,
		Created:   time.Now(),
	}

	if err := message.Validate(); err != nil {
		return db.ChatMessage{}, err
	}

	stored, err := s.store.CreateChatMessage(message)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"project": projectID,
			"context": "session",
		}).Warn("chat message not persisted")
		stored = message
	}

	s.channel.Publish(realtime.NewChatEvent(stored), conn.ID())

	s.responder.HandleMessage(stored)

	return stored, nil
}

// PushFileDelta folds a whole-file replacement into the file tree and
// fans it out, excluding the sender which already applied it locally.
func (s *Service) PushFileDelta(conn realtime.Connection, path, content string) error {
	projectID, ok := s.registry.ProjectOf(conn)
	if !ok {
		return realtime.ErrNotJoined
	}
	if path == "" {
		return &db.ValidationError{Message: "file path can not be empty"}
	}

	s.channel.Publish(realtime.NewFileTreeEvent(projectID, path, content), conn.ID())
	return nil
}

// RespondToInvite delegates to the invite coordinator.
func (s *Service) RespondToInvite(inviteID, responderID int, decision db.ProjectInviteStatus) (db.ProjectInvite, error) {
	return s.invites.Respond(inviteID, responderID, decision)
}
