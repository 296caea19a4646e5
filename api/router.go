package api

import (
	"net/http"
	"os"

	"github.com/devboardui/devboard/api/helpers"
	"github.com/devboardui/devboard/api/projects"
	"github.com/devboardui/devboard/api/sockets"
	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/services/project"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/devboardui/devboard/services/session"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Services bundles everything the HTTP layer needs.
type Services struct {
	Store          db.Store
	ProjectService *project.ProjectService
	InviteService  *project.InviteService
	SessionService *session.Service
	FileTree       *realtime.FileTreeStore
}

// Route builds the HTTP API.
func Route(s Services) *mux.Router {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(handlers.ProxyHeaders))
	r.Use(helpers.StoreMiddleware(s.Store))

	r.HandleFunc("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}).Methods(http.MethodGet)

	authenticated := r.PathPrefix("/api").Subrouter()
	authenticated.Use(AuthenticationMiddleware)

	authenticated.HandleFunc("/users", GetUsers).Methods(http.MethodGet)
	authenticated.HandleFunc("/users", CreateUser).Methods(http.MethodPost)

	projectController := &projects.ProjectController{ProjectService: s.ProjectService}
	inviteController := &projects.InviteController{InviteService: s.InviteService}
	fileTreeController := &projects.FileTreeController{Tree: s.FileTree}
	socketHandler := &sockets.Handler{Session: s.SessionService}

	authenticated.HandleFunc("/projects", projectController.GetProjects).Methods(http.MethodGet)
	authenticated.HandleFunc("/projects", projectController.CreateProject).Methods(http.MethodPost)

	authenticated.HandleFunc("/invites", inviteController.GetMyInvites).Methods(http.MethodGet)
	authenticated.HandleFunc("/invites/{invite_id}/respond", inviteController.RespondToInvite).Methods(http.MethodPost)

	// The socket route skips ProjectMiddleware: membership is checked at
	// join time, so a refused client gets a close frame on the upgraded
	// socket rather than a failed handshake.
	authenticated.HandleFunc("/project/{project_id}/ws", socketHandler.ServeProject).Methods(http.MethodGet)

	projectRouter := authenticated.PathPrefix("/project/{project_id}").Subrouter()
	projectRouter.Use(projects.ProjectMiddleware)
	projectRouter.HandleFunc("", projectController.GetProject).Methods(http.MethodGet)
	projectRouter.HandleFunc("", projectController.DeleteProject).Methods(http.MethodDelete)
	projectRouter.HandleFunc("/filetree", fileTreeController.GetFileTree).Methods(http.MethodGet)
	projectRouter.HandleFunc("/invites", inviteController.SendInvites).Methods(http.MethodPost)

	return r
}

// WrapLogging adds request logging around the router.
func WrapLogging(h http.Handler) http.Handler {
	return handlers.LoggingHandler(os.Stdout, h)
}
