package bolt

import (
	"encoding/json"
	"time"

	"github.com/devboardui/devboard/db"
	"go.etcd.io/bbolt"
)

func (d *BoltDb) CreateChatMessage(message db.ChatMessage) (newMessage db.ChatMessage, err error) {
	if err = message.Validate(); err != nil {
		return
	}

	err = d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(projectBucket("message", message.ProjectID))
		if err != nil {
			return err
		}
		message.ID, err = nextID(b)
		if err != nil {
			return err
		}
		if message.Created.IsZero() {
			message.Created = time.Now()
		}
		return putObject(b, idKey(message.ID), message)
	})

	newMessage = message
	return
}

func (d *BoltDb) GetChatMessages(projectID int, limit int) (messages []db.ChatMessage, err error) {
	messages = make([]db.ChatMessage, 0)
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(projectBucket("message", projectID))
		if b == nil {
			return nil
		}

		// Walk backwards to collect the most recent messages, then
		// reverse into chronological order.
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(messages) >= limit {
				break
			}
			var m db.ChatMessage
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			messages = append(messages, m)
		}
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
		return nil
	})
	return
}
