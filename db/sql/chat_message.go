package sql

import (
	"math"
	"time"

	"github.com/devboardui/devboard/db"
)

func (d *SqlDb) CreateChatMessage(message db.ChatMessage) (newMessage db.ChatMessage, err error) {
	if err = message.Validate(); err != nil {
		return
	}

	if message.Created.IsZero() {
		message.Created = time.Now()
	}

	insertID, err := d.insert(
		"id",
		"insert into project__message (project_id, user_id, sender, body, created) values (?, ?, ?, ?, ?)",
		message.ProjectID,
		message.UserID,
		message.Sender,
		message.Body,
		message.Created)

	if err != nil {
		return
	}

	newMessage = message
	newMessage.ID = insertID
	return
}

func (d *SqlDb) GetChatMessages(projectID int, limit int) (messages []db.ChatMessage, err error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}

	messages = make([]db.ChatMessage, 0)
	err = d.selectAll(&messages,
		"select * from ("+
			"select * from project__message where project_id=? order by id desc limit ?"+
			") as recent order by id",
		projectID,
		limit)
	return
}
