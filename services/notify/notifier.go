package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/devboardui/devboard/db"
	log "github.com/sirupsen/logrus"
)

// Notifier informs a receiver out-of-band that an invite was created.
// Delivery is best-effort: failures are logged, never surfaced.
type Notifier interface {
	Notify(receiverID int, invite db.ProjectInvite)
}

// LogNotifier records the notification in the server log. It is the
// default when no webhook is configured; receivers pick pending invites up
// on their next fetch.
type LogNotifier struct{}

func (LogNotifier) Notify(receiverID int, invite db.ProjectInvite) {
	log.WithFields(log.Fields{
		"receiver": receiverID,
		"invite":   invite.ID,
		"project":  invite.ProjectID,
		"context":  "notify",
	}).Info("invite created")
}

// WebhookNotifier POSTs the invite to a configured endpoint.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *WebhookNotifier) Notify(receiverID int, invite db.ProjectInvite) {
	body, err := json.Marshal(map[string]any{
		"receiver_id": receiverID,
		"invite":      invite,
	})
	if err != nil {
		return
	}

	resp, err := n.Client.Post(n.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"receiver": receiverID,
			"invite":   invite.ID,
			"context":  "notify",
		}).Warn("invite notification failed")
		return
	}
	_ = resp.Body.Close()
}
