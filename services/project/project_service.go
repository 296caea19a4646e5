package project

import (
	"errors"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/realtime"
)

// ProjectService owns the project lifecycle around the realtime core.
type ProjectService struct {
	store db.Store
	tree  *realtime.FileTreeStore
}

func NewProjectService(store db.Store, tree *realtime.FileTreeStore) *ProjectService {
	return &ProjectService{
		store: store,
		tree:  tree,
	}
}

// CreateProject persists the project with its creator as implicit member.
func (s *ProjectService) CreateProject(name string, creatorUserID int) (db.Project, error) {
	return s.store.CreateProject(db.Project{Name: name}, creatorUserID)
}

// GetProjectWithMembers loads a project and expands its member list.
func (s *ProjectService) GetProjectWithMembers(projectID int) (db.ProjectWithMembers, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return db.ProjectWithMembers{}, err
	}

	members, err := s.store.GetProjectUsers(projectID)
	if err != nil {
		return db.ProjectWithMembers{}, err
	}

	return db.ProjectWithMembers{Project: project, Members: members}, nil
}

// GetProjects lists the projects the user is a member of.
func (s *ProjectService) GetProjects(userID int) ([]db.Project, error) {
	return s.store.GetProjects(userID)
}

// DeleteProject removes the project from the store and drops its cached
// file tree. Only members may delete.
func (s *ProjectService) DeleteProject(projectID, userID int) error {
	if _, err := s.store.GetProjectUser(projectID, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotAMember
		}
		return err
	}

	if err := s.store.DeleteProject(projectID); err != nil {
		return err
	}

	s.tree.Forget(projectID)
	return nil
}
