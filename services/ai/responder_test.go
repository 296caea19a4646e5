package ai

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/db/bolt"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPrompt(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{"@ai how does this work?", true},
		{"@ai", true},
		{"  @ai trailing spaces matter not", true},
		{"@ai\nmultiline prompt", true},
		{"@aint a prompt", false},
		{"hello @ai", false},
		{"plain message", false},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, IsPrompt(tc.body), "body %q", tc.body)
	}
}

type recordingConn struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (c *recordingConn) ID() string    { return "observer" }
func (c *recordingConn) User() db.User { return db.User{ID: 1} }

func (c *recordingConn) Send(ev realtime.Event) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	return nil
}

func (c *recordingConn) Alive() bool { return true }
func (c *recordingConn) Close()      {}

func (c *recordingConn) received() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]realtime.Event, len(c.events))
	copy(out, c.events)
	return out
}

type fakeGenerator struct {
	reply string
	err   error

	mu      sync.Mutex
	prompts []string
}

func (g *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newResponderFixture(t *testing.T, generator TextGenerator) (*Responder, *recordingConn, db.Store) {
	t.Helper()

	store := bolt.NewBoltDb(filepath.Join(t.TempDir(), "devboard.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })

	tree := realtime.NewFileTreeStore()
	registry := realtime.NewSessionRegistry(tree, nil, 50)
	channel := realtime.NewEventChannel(registry, tree)

	conn := &recordingConn{}
	_, err := registry.Join(conn, 1)
	require.NoError(t, err)

	return NewResponder(generator, channel, store), conn, store
}

func waitForReply(t *testing.T, conn *recordingConn) realtime.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := conn.received(); len(events) > 0 {
			return events[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the AI reply")
	return realtime.Event{}
}

func TestResponder_HandleMessage(t *testing.T) {
	generator := &fakeGenerator{reply: "split the lock"}
	responder, conn, store := newResponderFixture(t, generator)

	userID := 7
	responder.HandleMessage(db.ChatMessage{
		ProjectID: 1,
		UserID:    &userID,
		Sender:    "alice@example.com",
		Body:      "@ai how do I reduce contention?",
	})

	ev := waitForReply(t, conn)
	assert.Equal(t, realtime.EventChatMessage, ev.Kind)
	assert.Equal(t, db.AiSenderName, ev.Message.Sender)
	assert.Equal(t, db.AiMessagePrefix+" split the lock", ev.Message.Body)
	assert.Nil(t, ev.Message.UserID)

	// The mention is stripped before the prompt reaches the generator.
	generator.mu.Lock()
	prompts := append([]string(nil), generator.prompts...)
	generator.mu.Unlock()
	require.Len(t, prompts, 1)
	assert.Equal(t, "how do I reduce contention?", prompts[0])

	// The reply lands in history so late joiners replay it.
	history, err := store.GetChatMessages(1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, db.AiSenderName, history[0].Sender)
}

func TestResponder_IgnoresNonPrompts(t *testing.T) {
	generator := &fakeGenerator{reply: "unused"}
	responder, conn, _ := newResponderFixture(t, generator)

	responder.HandleMessage(db.ChatMessage{ProjectID: 1, Sender: "a@example.com", Body: "hello there"})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, conn.received())
	generator.mu.Lock()
	defer generator.mu.Unlock()
	assert.Empty(t, generator.prompts)
}

func TestResponder_GenerationFailureIsSilent(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("service unavailable")}
	responder, conn, store := newResponderFixture(t, generator)

	responder.HandleMessage(db.ChatMessage{ProjectID: 1, Sender: "a@example.com", Body: "@ai ping"})

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, conn.received())

	history, err := store.GetChatMessages(1, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestResponder_NilReceiverIsSafe(t *testing.T) {
	var responder *Responder
	responder.HandleMessage(db.ChatMessage{ProjectID: 1, Body: "@ai ping"})
}
