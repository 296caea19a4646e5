package bolt

import (
	"encoding/json"
	"time"

	"github.com/devboardui/devboard/db"
	"go.etcd.io/bbolt"
)

func (d *BoltDb) GetUser(userID int) (user db.User, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		return getObject(tx.Bucket([]byte(bucketUsers)), idKey(userID), &user)
	})
	return
}

func (d *BoltDb) GetUserByEmail(email string) (user db.User, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsers))
		if b == nil {
			return db.ErrNotFound
		}
		found := false
		_ = b.ForEach(func(_, v []byte) error {
			var u db.User
			if json.Unmarshal(v, &u) == nil && u.Email == email {
				user = u
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

func (d *BoltDb) GetUsers(params db.RetrieveQueryParams) (users []db.User, err error) {
	users = make([]db.User, 0)
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketUsers))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var u db.User
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		})
	})
	return
}

func (d *BoltDb) CreateUser(user db.User) (newUser db.User, err error) {
	if err = user.Validate(); err != nil {
		return
	}

	err = d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketUsers))
		if err != nil {
			return err
		}
		user.ID, err = nextID(b)
		if err != nil {
			return err
		}
		if user.Created.IsZero() {
			user.Created = time.Now()
		}
		return putObject(b, idKey(user.ID), user)
	})

	newUser = user
	return
}
