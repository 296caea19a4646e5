package db

import (
	"time"
)

type ProjectInviteStatus string

const (
	ProjectInvitePending  ProjectInviteStatus = "pending"
	ProjectInviteAccepted ProjectInviteStatus = "accepted"
	ProjectInviteRejected ProjectInviteStatus = "rejected"
)

func (s ProjectInviteStatus) IsValid() bool {
	switch s {
	case ProjectInvitePending, ProjectInviteAccepted, ProjectInviteRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status can no longer change.
// An invite never re-enters pending.
func (s ProjectInviteStatus) IsTerminal() bool {
	return s == ProjectInviteAccepted || s == ProjectInviteRejected
}

type ProjectInvite struct {
	ID             int                 `db:"id" json:"id"`
	ProjectID      int                 `db:"project_id" json:"project_id"`
	SenderUserID   int                 `db:"sender_user_id" json:"sender_user_id"`
	ReceiverUserID int                 `db:"receiver_user_id" json:"receiver_user_id"`
	Status         ProjectInviteStatus `db:"status" json:"status"`
	Created        time.Time           `db:"created" json:"created"`
	ResolvedAt     *time.Time          `db:"resolved_at" json:"resolved_at,omitempty"`
}

type ProjectInviteWithDetails struct {
	ProjectInvite
	Project *Project `json:"project,omitempty"`
	Sender  *User    `json:"sender,omitempty"`
}
