package realtime

import (
	"github.com/devboardui/devboard/db"
)

// EventKind discriminates the event payload. The values double as the
// wire-level event names the web client subscribes to.
type EventKind string

const (
	EventChatMessage       EventKind = "project-message"
	EventFileTreeDelta     EventKind = "project-filetree"
	EventMembershipChanged EventKind = "project-members"

	// EventProjectState carries the join snapshot: the full file tree and
	// the recent chat history. Sent only to the joining connection.
	EventProjectState EventKind = "project-state"
)

// FileDelta is a whole-file replacement: the mutation unit of the file
// tree. There is no line-level patching.
type FileDelta struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Event is the typed unit delivered through a project's event channel.
// Exactly one payload field is set, matching Kind.
type Event struct {
	Kind      EventKind `json:"event"`
	ProjectID int       `json:"project_id"`

	Message  *db.ChatMessage `json:"message,omitempty"`
	Delta    *FileDelta      `json:"delta,omitempty"`
	Members  []db.User       `json:"members,omitempty"`
	Snapshot *JoinState      `json:"snapshot,omitempty"`
}

// JoinState is the consistent view a late joiner starts from.
type JoinState struct {
	FileTree map[string]FileRecord `json:"file_tree"`
	History  []db.ChatMessage      `json:"history"`
}

func NewChatEvent(message db.ChatMessage) Event {
	return Event{
		Kind:      EventChatMessage,
		ProjectID: message.ProjectID,
		Message:   &message,
	}
}

func NewFileTreeEvent(projectID int, path, content string) Event {
	return Event{
		Kind:      EventFileTreeDelta,
		ProjectID: projectID,
		Delta:     &FileDelta{Path: path, Content: content},
	}
}

func NewMembershipEvent(projectID int, members []db.User) Event {
	return Event{
		Kind:      EventMembershipChanged,
		ProjectID: projectID,
		Members:   members,
	}
}
