package projects

import (
	"errors"
	"net/http"

	"github.com/devboardui/devboard/api/helpers"
	"github.com/devboardui/devboard/db"
	projectService "github.com/devboardui/devboard/services/project"
)

// ProjectMiddleware ensures the project exists, the caller is a member,
// and loads the project to the context.
func ProjectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := helpers.UserFromContext(r)

		projectID, err := helpers.GetIntParam("project_id", w, r)
		if err != nil {
			return
		}

		if _, err = helpers.Store(r).GetProjectUser(projectID, user.ID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			helpers.WriteError(w, err)
			return
		}

		project, err := helpers.Store(r).GetProject(projectID)
		if err != nil {
			helpers.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, helpers.SetContextValue(r, "project", project))
	})
}

type ProjectController struct {
	ProjectService *projectService.ProjectService
}

// CreateProject creates a project with the caller as implicit member.
func (c *ProjectController) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r)

	var request struct {
		Name string `json:"name"`
	}
	if !helpers.Bind(w, r, &request) {
		return
	}

	project, err := c.ProjectService.CreateProject(request.Name, user.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, map[string]any{"project": project})
}

// GetProjects lists the caller's projects.
func (c *ProjectController) GetProjects(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r)

	projects, err := c.ProjectService.GetProjects(user.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// GetProject returns the project with its member list expanded.
func (c *ProjectController) GetProject(w http.ResponseWriter, r *http.Request) {
	project := helpers.GetFromContext(r, "project").(db.Project)

	detailed, err := c.ProjectService.GetProjectWithMembers(project.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"project": detailed})
}

// DeleteProject removes a project.
func (c *ProjectController) DeleteProject(w http.ResponseWriter, r *http.Request) {
	project := helpers.GetFromContext(r, "project").(db.Project)
	user := helpers.UserFromContext(r)

	if err := c.ProjectService.DeleteProject(project.ID, user.ID); err != nil {
		helpers.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
