package realtime

import (
	log "github.com/sirupsen/logrus"
)

// EventChannel delivers typed events to all connections joined to a
// project, in publish order per recipient. File tree deltas are folded
// into the FileTreeStore under the room lock before fan-out, which is what
// makes join snapshots consistent with the delta stream.
type EventChannel struct {
	registry *SessionRegistry
	tree     *FileTreeStore
	bridge   EventBridge
}

func NewEventChannel(registry *SessionRegistry, tree *FileTreeStore) *EventChannel {
	return &EventChannel{
		registry: registry,
		tree:     tree,
	}
}

// AttachBridge connects a cross-node event bridge. Events published
// locally are forwarded to other nodes; events received from the bridge
// are fanned out locally without being forwarded again.
func (c *EventChannel) AttachBridge(bridge EventBridge) error {
	if err := bridge.Start(c.handleRemote); err != nil {
		return err
	}
	c.bridge = bridge
	return nil
}

// Publish fans the event out to every connection currently registered for
// its project. excludeConnID suppresses the echo to the originating
// connection, which already applied the event locally. Pass an empty
// string to deliver to everyone.
func (c *EventChannel) Publish(ev Event, excludeConnID string) {
	c.publish(ev, excludeConnID, true)
}

func (c *EventChannel) publish(ev Event, excludeConnID string, forward bool) {
	rm := c.registry.roomFor(ev.ProjectID)

	var failed []Connection

	rm.mu.Lock()
	if ev.Kind == EventFileTreeDelta && ev.Delta != nil {
		c.tree.ApplyDelta(ev.ProjectID, ev.Delta.Path, ev.Delta.Content)
	}
	for id, conn := range rm.conns {
		if id == excludeConnID {
			continue
		}
		if err := conn.Send(ev); err != nil {
			// Partial-failure isolation: the failed recipient is
			// disconnected below, the rest of the fan-out proceeds.
			failed = append(failed, conn)
		}
	}
	rm.mu.Unlock()

	for _, conn := range failed {
		log.WithFields(log.Fields{
			"project":    ev.ProjectID,
			"connection": conn.ID(),
			"event":      ev.Kind,
			"context":    "event_channel",
		}).Warn("dropping connection after failed delivery")
		c.registry.Leave(conn)
		conn.Close()
	}

	if forward && c.bridge != nil {
		c.bridge.Forward(ev)
	}
}

func (c *EventChannel) handleRemote(ev Event) {
	c.publish(ev, "", false)
}
