package db

import "time"

type Project struct {
	ID      int       `db:"id" json:"id"`
	Name    string    `db:"name" json:"name"`
	Created time.Time `db:"created" json:"created"`
}

func (project *Project) Validate() error {
	if project.Name == "" {
		return &ValidationError{"project name can not be empty"}
	}
	return nil
}

// ProjectUser links a user to a project's member set. Membership changes
// only through project creation (the creator) or an accepted invite.
type ProjectUser struct {
	ProjectID int       `db:"project_id" json:"project_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Created   time.Time `db:"created" json:"created"`
}

// ProjectWithMembers is a project with its member list expanded,
// as served by the project detail endpoint.
type ProjectWithMembers struct {
	Project
	Members []User `json:"members"`
}
