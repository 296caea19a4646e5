package db

import "time"

type User struct {
	ID       int       `db:"id" json:"id"`
	Username string    `db:"username" json:"username"`
	Name     string    `db:"name" json:"name"`
	Email    string    `db:"email" json:"email"`
	Created  time.Time `db:"created" json:"created"`
}

func (user *User) Validate() error {
	if user.Username == "" {
		return &ValidationError{"username can not be empty"}
	}
	if user.Email == "" {
		return &ValidationError{"email can not be empty"}
	}
	return nil
}
