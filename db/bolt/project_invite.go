package bolt

import (
	"encoding/json"
	"time"

	"github.com/devboardui/devboard/db"
	"go.etcd.io/bbolt"
)

func (d *BoltDb) CreateProjectInvite(invite db.ProjectInvite) (newInvite db.ProjectInvite, err error) {
	err = d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketInvites))
		if err != nil {
			return err
		}
		invite.ID, err = nextID(b)
		if err != nil {
			return err
		}
		if invite.Created.IsZero() {
			invite.Created = time.Now()
		}
		return putObject(b, idKey(invite.ID), invite)
	})

	newInvite = invite
	return
}

func (d *BoltDb) GetProjectInvite(inviteID int) (invite db.ProjectInvite, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		return getObject(tx.Bucket([]byte(bucketInvites)), idKey(inviteID), &invite)
	})
	return
}

func (d *BoltDb) GetPendingInvite(projectID int, receiverUserID int) (invite db.ProjectInvite, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketInvites))
		if b == nil {
			return db.ErrNotFound
		}
		found := false
		_ = b.ForEach(func(_, v []byte) error {
			var inv db.ProjectInvite
			if json.Unmarshal(v, &inv) != nil {
				return nil
			}
			if inv.ProjectID == projectID &&
				inv.ReceiverUserID == receiverUserID &&
				inv.Status == db.ProjectInvitePending {
				invite = inv
				found = true
			}
			return nil
		})
		if !found {
			return db.ErrNotFound
		}
		return nil
	})
	return
}

func (d *BoltDb) GetUserInvites(receiverUserID int) (invites []db.ProjectInviteWithDetails, err error) {
	invites = make([]db.ProjectInviteWithDetails, 0)
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketInvites))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var inv db.ProjectInvite
			if json.Unmarshal(v, &inv) != nil {
				return nil
			}
			if inv.ReceiverUserID != receiverUserID || inv.Status != db.ProjectInvitePending {
				return nil
			}

			detailed := db.ProjectInviteWithDetails{ProjectInvite: inv}
			var project db.Project
			if getObject(tx.Bucket([]byte(bucketProjects)), idKey(inv.ProjectID), &project) == nil {
				detailed.Project = &project
			}
			var sender db.User
			if getObject(tx.Bucket([]byte(bucketUsers)), idKey(inv.SenderUserID), &sender) == nil {
				detailed.Sender = &sender
			}
			invites = append(invites, detailed)
			return nil
		})
	})
	return
}

// ResolveProjectInvite performs the pending -> terminal transition inside a
// single write transaction, so concurrent resolvers serialize and exactly
// one of them succeeds.
func (d *BoltDb) ResolveProjectInvite(inviteID int, status db.ProjectInviteStatus) (invite db.ProjectInvite, err error) {
	err = d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketInvites))
		if err := getObject(b, idKey(inviteID), &invite); err != nil {
			return err
		}
		if invite.Status != db.ProjectInvitePending {
			return db.ErrInviteResolved
		}
		now := time.Now()
		invite.Status = status
		invite.ResolvedAt = &now
		return putObject(b, idKey(inviteID), invite)
	})
	return
}
