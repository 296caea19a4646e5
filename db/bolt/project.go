package bolt

import (
	"encoding/json"
	"time"

	"github.com/devboardui/devboard/db"
	"go.etcd.io/bbolt"
)

func (d *BoltDb) CreateProject(project db.Project, creatorUserID int) (newProject db.Project, err error) {
	if err = project.Validate(); err != nil {
		return
	}

	err = d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucketProjects))
		if err != nil {
			return err
		}
		project.ID, err = nextID(b)
		if err != nil {
			return err
		}
		if project.Created.IsZero() {
			project.Created = time.Now()
		}
		if err = putObject(b, idKey(project.ID), project); err != nil {
			return err
		}

		// The creator is an implicit member.
		mb, err := tx.CreateBucketIfNotExists(projectBucket("user", project.ID))
		if err != nil {
			return err
		}
		return putObject(mb, idKey(creatorUserID), db.ProjectUser{
			ProjectID: project.ID,
			UserID:    creatorUserID,
			Created:   project.Created,
		})
	})

	newProject = project
	return
}

func (d *BoltDb) GetProject(projectID int) (project db.Project, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		return getObject(tx.Bucket([]byte(bucketProjects)), idKey(projectID), &project)
	})
	return
}

func (d *BoltDb) GetProjects(userID int) (projects []db.Project, err error) {
	projects = make([]db.Project, 0)
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketProjects))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var p db.Project
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			mb := tx.Bucket(projectBucket("user", p.ID))
			if mb != nil && mb.Get(idKey(userID)) != nil {
				projects = append(projects, p)
			}
			return nil
		})
	})
	return
}

func (d *BoltDb) DeleteProject(projectID int) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketProjects))
		if b == nil || b.Get(idKey(projectID)) == nil {
			return db.ErrNotFound
		}
		if err := b.Delete(idKey(projectID)); err != nil {
			return err
		}
		for _, prefix := range []string{"user", "message"} {
			name := projectBucket(prefix, projectID)
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (d *BoltDb) CreateProjectUser(projectUser db.ProjectUser) (newProjectUser db.ProjectUser, err error) {
	err = d.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(projectBucket("user", projectUser.ProjectID))
		if err != nil {
			return err
		}
		if projectUser.Created.IsZero() {
			projectUser.Created = time.Now()
		}
		return putObject(b, idKey(projectUser.UserID), projectUser)
	})

	newProjectUser = projectUser
	return
}

func (d *BoltDb) GetProjectUser(projectID int, userID int) (projectUser db.ProjectUser, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		return getObject(tx.Bucket(projectBucket("user", projectID)), idKey(userID), &projectUser)
	})
	return
}

func (d *BoltDb) GetProjectUsers(projectID int) (users []db.User, err error) {
	users = make([]db.User, 0)
	err = d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(projectBucket("user", projectID))
		if b == nil {
			return nil
		}
		ub := tx.Bucket([]byte(bucketUsers))
		return b.ForEach(func(k, _ []byte) error {
			var u db.User
			if err := getObject(ub, k, &u); err == nil {
				users = append(users, u)
			}
			return nil
		})
	})
	return
}
