package sql

import (
	"time"

	"github.com/devboardui/devboard/db"
)

func (d *SqlDb) GetUser(userID int) (user db.User, err error) {
	err = d.selectOne(&user, "select * from `user` where id=?", userID)
	return
}

func (d *SqlDb) GetUserByEmail(email string) (user db.User, err error) {
	err = d.selectOne(&user, "select * from `user` where email=?", email)
	return
}

func (d *SqlDb) GetUsers(params db.RetrieveQueryParams) (users []db.User, err error) {
	users = make([]db.User, 0)
	err = d.selectAll(&users, "select * from `user` order by username")
	return
}

func (d *SqlDb) CreateUser(user db.User) (newUser db.User, err error) {
	if err = user.Validate(); err != nil {
		return
	}

	if user.Created.IsZero() {
		user.Created = time.Now()
	}

	insertID, err := d.insert(
		"id",
		"insert into `user` (username, name, email, created) values (?, ?, ?, ?)",
		user.Username,
		user.Name,
		user.Email,
		user.Created)

	if err != nil {
		return
	}

	newUser = user
	newUser.ID = insertID
	return
}
