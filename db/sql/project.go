package sql

import (
	"time"

	"github.com/devboardui/devboard/db"
)

func (d *SqlDb) CreateProject(project db.Project, creatorUserID int) (newProject db.Project, err error) {
	if err = project.Validate(); err != nil {
		return
	}

	if project.Created.IsZero() {
		project.Created = time.Now()
	}

	insertID, err := d.insert(
		"id",
		"insert into project (name, created) values (?, ?)",
		project.Name,
		project.Created)

	if err != nil {
		return
	}

	project.ID = insertID

	_, err = d.CreateProjectUser(db.ProjectUser{
		ProjectID: project.ID,
		UserID:    creatorUserID,
		Created:   project.Created,
	})

	if err != nil {
		return
	}

	newProject = project
	return
}

func (d *SqlDb) GetProject(projectID int) (project db.Project, err error) {
	err = d.selectOne(&project, "select * from project where id=?", projectID)
	return
}

func (d *SqlDb) GetProjects(userID int) (projects []db.Project, err error) {
	projects = make([]db.Project, 0)
	err = d.selectAll(&projects,
		"select p.* from project as p "+
			"join project__user as pu on pu.project_id=p.id "+
			"where pu.user_id=? order by p.name",
		userID)
	return
}

func (d *SqlDb) DeleteProject(projectID int) error {
	res, err := d.exec("delete from project where id=?", projectID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}

	for _, stmt := range []string{
		"delete from project__user where project_id=?",
		"delete from project__invite where project_id=?",
		"delete from project__message where project_id=?",
	} {
		if _, err = d.exec(stmt, projectID); err != nil {
			return err
		}
	}

	return nil
}

func (d *SqlDb) CreateProjectUser(projectUser db.ProjectUser) (newProjectUser db.ProjectUser, err error) {
	if projectUser.Created.IsZero() {
		projectUser.Created = time.Now()
	}

	_, err = d.exec(
		"insert into project__user (project_id, user_id, created) values (?, ?, ?)",
		projectUser.ProjectID,
		projectUser.UserID,
		projectUser.Created)

	if err != nil {
		return
	}

	newProjectUser = projectUser
	return
}

func (d *SqlDb) GetProjectUser(projectID int, userID int) (projectUser db.ProjectUser, err error) {
	err = d.selectOne(&projectUser,
		"select * from project__user where project_id=? and user_id=?",
		projectID,
		userID)
	return
}

func (d *SqlDb) GetProjectUsers(projectID int) (users []db.User, err error) {
	users = make([]db.User, 0)
	err = d.selectAll(&users,
		"select u.* from `user` as u "+
			"join project__user as pu on pu.user_id=u.id "+
			"where pu.project_id=? order by u.username",
		projectID)
	return
}
