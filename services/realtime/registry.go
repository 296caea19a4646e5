package realtime

import (
	"sync"

	"github.com/devboardui/devboard/db"
	log "github.com/sirupsen/logrus"
)

// HistoryProvider fetches the recent chat history of a project for join
// replay. Failures are tolerated: history replay is best-effort.
type HistoryProvider func(projectID int, limit int) ([]db.ChatMessage, error)

type room struct {
	projectID int

	// mu serializes connection registration and event fan-out for this
	// project, so a join snapshot can never miss a concurrent delta.
	mu    sync.Mutex
	conns map[string]Connection
}

// SessionRegistry tracks which connections are joined to which project and
// provides the broadcast group for the event channel. Each project gets
// its own guarded collection; there is no process-wide lock on fan-out.
type SessionRegistry struct {
	tree         *FileTreeStore
	history      HistoryProvider
	historyLimit int

	mu     sync.RWMutex
	rooms  map[int]*room
	joined map[string]int
}

func NewSessionRegistry(tree *FileTreeStore, history HistoryProvider, historyLimit int) *SessionRegistry {
	return &SessionRegistry{
		tree:         tree,
		history:      history,
		historyLimit: historyLimit,
		rooms:        make(map[int]*room),
		joined:       make(map[string]int),
	}
}

func (r *SessionRegistry) roomFor(projectID int) *room {
	r.mu.RLock()
	rm := r.rooms[projectID]
	r.mu.RUnlock()
	if rm != nil {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm = r.rooms[projectID]; rm == nil {
		rm = &room{projectID: projectID, conns: make(map[string]Connection)}
		r.rooms[projectID] = rm
	}
	return rm
}

// Join registers the connection under projectID and returns the state a
// late joiner needs to render immediately: the file tree snapshot and the
// recent chat history. Registration and snapshot happen under the room
// lock, so no delta published concurrently can be lost between them. The
// joined record commits in the same critical section as the room entry,
// so a concurrent Leave or Prune can never separate the two.
//
// A connection joined to a different project must leave it first.
func (r *SessionRegistry) Join(conn Connection, projectID int) (JoinState, error) {
	r.mu.RLock()
	current, joined := r.joined[conn.ID()]
	r.mu.RUnlock()
	if joined && current != projectID {
		return JoinState{}, ErrAlreadyJoinedElsewhere
	}

	rm := r.roomFor(projectID)

	var history []db.ChatMessage
	if r.history != nil {
		var err error
		history, err = r.history(projectID, r.historyLimit)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"project": projectID,
				"context": "session_registry",
			}).Warn("chat history replay skipped")
			history = nil
		}
	}

	rm.mu.Lock()
	r.mu.Lock()
	if current, ok := r.joined[conn.ID()]; ok && current != projectID {
		r.mu.Unlock()
		rm.mu.Unlock()
		return JoinState{}, ErrAlreadyJoinedElsewhere
	}
	r.joined[conn.ID()] = projectID
	r.mu.Unlock()
	rm.conns[conn.ID()] = conn
	snapshot := r.tree.Snapshot(projectID)
	rm.mu.Unlock()

	return JoinState{FileTree: snapshot, History: history}, nil
}

// Leave removes the connection from its current project's group. It is
// idempotent and a no-op for connections that never joined.
func (r *SessionRegistry) Leave(conn Connection) {
	r.mu.Lock()
	projectID, ok := r.joined[conn.ID()]
	if ok {
		delete(r.joined, conn.ID())
	}
	rm := r.rooms[projectID]
	r.mu.Unlock()

	if !ok || rm == nil {
		return
	}

	rm.mu.Lock()
	delete(rm.conns, conn.ID())
	rm.mu.Unlock()
}

// ProjectOf returns the project the connection is currently joined to.
func (r *SessionRegistry) ProjectOf(conn Connection) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	projectID, ok := r.joined[conn.ID()]
	return projectID, ok
}

// ConnectionsFor returns the current set of connections subscribed to a
// project.
func (r *SessionRegistry) ConnectionsFor(projectID int) []Connection {
	r.mu.RLock()
	rm := r.rooms[projectID]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	conns := make([]Connection, 0, len(rm.conns))
	for _, conn := range rm.conns {
		conns = append(conns, conn)
	}
	return conns
}

// Prune drops connections whose transport died without an explicit leave.
// Called periodically by the session janitor.
func (r *SessionRegistry) Prune() {
	r.mu.RLock()
	rooms := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm)
	}
	r.mu.RUnlock()

	for _, rm := range rooms {
		var dead []Connection
		rm.mu.Lock()
		for _, conn := range rm.conns {
			if !conn.Alive() {
				dead = append(dead, conn)
			}
		}
		active := len(rm.conns) - len(dead)
		rm.mu.Unlock()

		for _, conn := range dead {
			r.Leave(conn)
			conn.Close()
		}

		if len(dead) > 0 {
			log.WithFields(log.Fields{
				"project": rm.projectID,
				"pruned":  len(dead),
				"active":  active,
				"context": "session_janitor",
			}).Info("pruned dead connections")
		}
	}
}
