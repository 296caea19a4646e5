package project

import (
	"errors"
	"time"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/notify"
	"github.com/devboardui/devboard/services/realtime"
	log "github.com/sirupsen/logrus"
)

// Invite validation failures. They surface to the calling client and never
// touch shared state.
var (
	ErrNotAMember       = errors.New("sender is not a member of the project")
	ErrAlreadyMember    = errors.New("receiver is already a member of the project")
	ErrDuplicatePending = errors.New("a pending invite for this receiver already exists")

	// ErrAlreadyResolved is returned for a respond on a non-pending
	// invite. Retries are idempotent no-op errors: membership is never
	// mutated twice.
	ErrAlreadyResolved = db.ErrInviteResolved
)

// InviteResult reports the per-receiver outcome of a multi-receiver send.
type InviteResult struct {
	ReceiverID int              `json:"receiver_id"`
	Invite     *db.ProjectInvite `json:"invite,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// InviteService governs the invite lifecycle: pending until accepted or
// rejected, both terminal, resolved exactly once.
type InviteService struct {
	store    db.Store
	channel  *realtime.EventChannel
	notifier notify.Notifier
}

func NewInviteService(store db.Store, channel *realtime.EventChannel, notifier notify.Notifier) *InviteService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &InviteService{
		store:    store,
		channel:  channel,
		notifier: notifier,
	}
}

// CreateInvite creates a pending invite after validating that the sender
// is a member, the receiver is not, and no pending invite for the same
// (project, receiver) pair exists.
func (s *InviteService) CreateInvite(projectID, senderID, receiverID int) (db.ProjectInvite, error) {
	if _, err := s.store.GetProjectUser(projectID, senderID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.ProjectInvite{}, ErrNotAMember
		}
		return db.ProjectInvite{}, err
	}

	if _, err := s.store.GetUser(receiverID); err != nil {
		return db.ProjectInvite{}, err
	}

	if _, err := s.store.GetProjectUser(projectID, receiverID); err == nil {
		return db.ProjectInvite{}, ErrAlreadyMember
	} else if !errors.Is(err, db.ErrNotFound) {
		return db.ProjectInvite{}, err
	}

	if _, err := s.store.GetPendingInvite(projectID, receiverID); err == nil {
		return db.ProjectInvite{}, ErrDuplicatePending
	} else if !errors.Is(err, db.ErrNotFound) {
		return db.ProjectInvite{}, err
	}

	invite, err := s.store.CreateProjectInvite(db.ProjectInvite{
		ProjectID:      projectID,
		SenderUserID:   senderID,
		ReceiverUserID: receiverID,
		Status:         db.ProjectInvitePending,
		Created:        time.Now(),
	})
	if err != nil {
		return db.ProjectInvite{}, err
	}

	s.notifier.Notify(receiverID, invite)

	return invite, nil
}

// CreateInvites sends an invite to each receiver, reporting per-receiver
// success or failure. One bad receiver does not abort the rest.
func (s *InviteService) CreateInvites(projectID, senderID int, receiverIDs []int) []InviteResult {
	results := make([]InviteResult, 0, len(receiverIDs))
	for _, receiverID := range receiverIDs {
		result := InviteResult{ReceiverID: receiverID}
		invite, err := s.CreateInvite(projectID, senderID, receiverID)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Invite = &invite
		}
		results = append(results, result)
	}
	return results
}

// PendingFor lists the responder's pending invites with project and sender
// expanded.
func (s *InviteService) PendingFor(userID int) ([]db.ProjectInviteWithDetails, error) {
	return s.store.GetUserInvites(userID)
}

// Respond resolves a pending invite. Only the addressed receiver may
// respond; anyone else observes NotFound. Acceptance transitions the
// invite and adds the responder to the member set, then publishes a
// membership-change event for the project. Concurrent responds on the
// same invite resolve exactly one of them: the status transition is a
// compare-and-set in the store.
func (s *InviteService) Respond(inviteID, responderID int, decision db.ProjectInviteStatus) (db.ProjectInvite, error) {
	if !decision.IsTerminal() {
		return db.ProjectInvite{}, &db.ValidationError{Message: "response must be accepted or rejected"}
	}

	invite, err := s.store.GetProjectInvite(inviteID)
	if err != nil {
		return db.ProjectInvite{}, err
	}
	if invite.ReceiverUserID != responderID {
		return db.ProjectInvite{}, db.ErrNotFound
	}

	resolved, err := s.store.ResolveProjectInvite(inviteID, decision)
	if err != nil {
		return db.ProjectInvite{}, err
	}

	if decision != db.ProjectInviteAccepted {
		return resolved, nil
	}

	if _, err = s.store.CreateProjectUser(db.ProjectUser{
		ProjectID: resolved.ProjectID,
		UserID:    responderID,
	}); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"invite":  inviteID,
			"project": resolved.ProjectID,
			"user":    responderID,
			"context": "invite_service",
		}).Error("membership update failed after invite acceptance")
		return db.ProjectInvite{}, err
	}

	members, err := s.store.GetProjectUsers(resolved.ProjectID)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"project": resolved.ProjectID,
			"context": "invite_service",
		}).Warn("membership broadcast skipped")
		return resolved, nil
	}

	s.channel.Publish(realtime.NewMembershipEvent(resolved.ProjectID, members), "")

	return resolved, nil
}
