package projects

import (
	"net/http"

	"github.com/devboardui/devboard/api/helpers"
	"github.com/devboardui/devboard/db"
	projectService "github.com/devboardui/devboard/services/project"
)

type InviteController struct {
	InviteService *projectService.InviteService
}

// SendInvites creates a pending invite for each requested receiver. One
// invalid receiver does not block the rest; the response reports the
// per-receiver outcome.
func (c *InviteController) SendInvites(w http.ResponseWriter, r *http.Request) {
	project := helpers.GetFromContext(r, "project").(db.Project)
	user := helpers.UserFromContext(r)

	var request struct {
		ReceiverIDs []int `json:"receiver_ids"`
	}
	if !helpers.Bind(w, r, &request) {
		return
	}

	if len(request.ReceiverIDs) == 0 {
		helpers.WriteErrorStatus(w, "receiver_ids must not be empty", http.StatusBadRequest)
		return
	}

	results := c.InviteService.CreateInvites(project.ID, user.ID, request.ReceiverIDs)

	status := http.StatusCreated
	for _, result := range results {
		if result.Error != "" {
			status = http.StatusMultiStatus
			break
		}
	}

	helpers.WriteJSON(w, status, map[string]any{"results": results})
}

// GetMyInvites lists the caller's pending invites with project and sender
// expanded.
func (c *InviteController) GetMyInvites(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r)

	invites, err := c.InviteService.PendingFor(user.ID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"invites": invites})
}

// RespondToInvite accepts or rejects a pending invite addressed to the
// caller.
func (c *InviteController) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	user := helpers.UserFromContext(r)

	inviteID, err := helpers.GetIntParam("invite_id", w, r)
	if err != nil {
		return
	}

	var request struct {
		Response db.ProjectInviteStatus `json:"response"`
	}
	if !helpers.Bind(w, r, &request) {
		return
	}

	invite, err := c.InviteService.Respond(inviteID, user.ID, request.Response)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]any{"invite": invite})
}
