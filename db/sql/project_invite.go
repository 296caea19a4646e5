package sql

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/devboardui/devboard/db"
)

func (d *SqlDb) CreateProjectInvite(invite db.ProjectInvite) (newInvite db.ProjectInvite, err error) {
	if invite.Created.IsZero() {
		invite.Created = time.Now()
	}

	insertID, err := d.insert(
		"id",
		"insert into project__invite (project_id, sender_user_id, receiver_user_id, status, created) "+
			"values (?, ?, ?, ?, ?)",
		invite.ProjectID,
		invite.SenderUserID,
		invite.ReceiverUserID,
		invite.Status,
		invite.Created)

	if err != nil {
		return
	}

	newInvite = invite
	newInvite.ID = insertID
	return
}

func (d *SqlDb) GetProjectInvite(inviteID int) (invite db.ProjectInvite, err error) {
	err = d.selectOne(&invite,
		"select * from project__invite where id=?",
		inviteID)
	return
}

func (d *SqlDb) GetPendingInvite(projectID int, receiverUserID int) (invite db.ProjectInvite, err error) {
	err = d.selectOne(&invite,
		"select * from project__invite where project_id=? and receiver_user_id=? and status=?",
		projectID,
		receiverUserID,
		db.ProjectInvitePending)
	return
}

func (d *SqlDb) GetUserInvites(receiverUserID int) (invites []db.ProjectInviteWithDetails, err error) {
	invites = make([]db.ProjectInviteWithDetails, 0)

	q := squirrel.Select("pi.*").
		Column("p.name as project_name").
		Column("p.created as project_created").
		Column("s.username as sender_username").
		Column("s.name as sender_name").
		Column("s.email as sender_email").
		From("project__invite as pi").
		LeftJoin("project as p on pi.project_id=p.id").
		LeftJoin("`user` as s on pi.sender_user_id=s.id").
		Where("pi.receiver_user_id=? and pi.status=?", receiverUserID, db.ProjectInvitePending).
		OrderBy("pi.created")

	query, args, err := q.ToSql()
	if err != nil {
		return
	}

	rows, err := d.Sql().Db.Query(d.PrepareQuery(query), args...)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var invite db.ProjectInviteWithDetails
		var projectName sql.NullString
		var projectCreated sql.NullTime
		var senderUsername, senderName, senderEmail sql.NullString

		err = rows.Scan(
			&invite.ID,
			&invite.ProjectID,
			&invite.SenderUserID,
			&invite.ReceiverUserID,
			&invite.Status,
			&invite.Created,
			&invite.ResolvedAt,
			&projectName,
			&projectCreated,
			&senderUsername,
			&senderName,
			&senderEmail,
		)
		if err != nil {
			return
		}

		if projectName.Valid {
			invite.Project = &db.Project{
				ID:      invite.ProjectID,
				Name:    projectName.String,
				Created: projectCreated.Time,
			}
		}
		if senderUsername.Valid {
			invite.Sender = &db.User{
				ID:       invite.SenderUserID,
				Username: senderUsername.String,
				Name:     senderName.String,
				Email:    senderEmail.String,
			}
		}

		invites = append(invites, invite)
	}

	err = rows.Err()
	return
}

// ResolveProjectInvite relies on the status guard in the update statement
// for single-winner semantics: the row is only touched while still pending.
func (d *SqlDb) ResolveProjectInvite(inviteID int, status db.ProjectInviteStatus) (invite db.ProjectInvite, err error) {
	now := time.Now()

	res, err := d.exec(
		"update project__invite set status=?, resolved_at=? where id=? and status=?",
		status,
		now,
		inviteID,
		db.ProjectInvitePending)

	if err != nil {
		return
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return
	}

	if affected == 0 {
		_, err = d.GetProjectInvite(inviteID)
		if err == nil {
			err = db.ErrInviteResolved
		}
		return
	}

	return d.GetProjectInvite(inviteID)
}
