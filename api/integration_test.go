package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/db/bolt"
	"github.com/devboardui/devboard/services/project"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/devboardui/devboard/services/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiTest runs the whole stack against a temporary embedded store: real
// router, real services, real websockets.
type apiTest struct {
	t      *testing.T
	server *httptest.Server
	store  db.Store
}

func newApiTest(t *testing.T) *apiTest {
	t.Helper()

	store := bolt.NewBoltDb(filepath.Join(t.TempDir(), "devboard.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })

	tree := realtime.NewFileTreeStore()
	registry := realtime.NewSessionRegistry(tree, store.GetChatMessages, 50)
	channel := realtime.NewEventChannel(registry, tree)
	invites := project.NewInviteService(store, channel, nil)

	router := Route(Services{
		Store:          store,
		ProjectService: project.NewProjectService(store, tree),
		InviteService:  invites,
		SessionService: session.NewService(store, registry, channel, invites, nil),
		FileTree:       tree,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiTest{t: t, server: server, store: store}
}

func (a *apiTest) request(method, path string, userID int, body any) *http.Response {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.Itoa(userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (a *apiTest) createUser(username string) db.User {
	a.t.Helper()
	user, err := a.store.CreateUser(db.User{Username: username, Email: username + "@example.com"})
	require.NoError(a.t, err)
	return user
}

// dial opens a project websocket and reads the initial state snapshot.
func (a *apiTest) dial(userID, projectID int) (*websocket.Conn, realtime.Event) {
	a.t.Helper()

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + fmt.Sprintf("/api/project/%d/ws", projectID)
	header := http.Header{"X-User-ID": []string{strconv.Itoa(userID)}}
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(a.t, err)
	if resp != nil {
		resp.Body.Close()
	}
	a.t.Cleanup(func() { _ = ws.Close() })

	var state realtime.Event
	require.NoError(a.t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(a.t, ws.ReadJSON(&state))
	require.Equal(a.t, realtime.EventProjectState, state.Kind)
	return ws, state
}

func readEvent(t *testing.T, ws *websocket.Conn) realtime.Event {
	t.Helper()
	var ev realtime.Event
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ws.ReadJSON(&ev))
	return ev
}

func TestApiPing(t *testing.T) {
	a := newApiTest(t)

	resp := a.request(http.MethodGet, "/api/ping", 0, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pong", string(body))
}

func TestApiRequiresAuthentication(t *testing.T) {
	a := newApiTest(t)

	resp := a.request(http.MethodGet, "/api/projects", 0, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.request(http.MethodGet, "/api/projects", 9999, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApiProjectLifecycle(t *testing.T) {
	a := newApiTest(t)
	alice := a.createUser("alice")

	resp := a.request(http.MethodPost, "/api/projects", alice.ID, map[string]string{"name": "workspace"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[struct {
		Project db.Project `json:"project"`
	}](t, resp)
	require.NotZero(t, created.Project.ID)

	resp = a.request(http.MethodGet, "/api/projects", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[struct {
		Projects []db.Project `json:"projects"`
	}](t, resp)
	require.Len(t, listed.Projects, 1)
	assert.Equal(t, "workspace", listed.Projects[0].Name)

	path := fmt.Sprintf("/api/project/%d", created.Project.ID)
	resp = a.request(http.MethodGet, path, alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detailed := decodeBody[struct {
		Project db.ProjectWithMembers `json:"project"`
	}](t, resp)
	require.Len(t, detailed.Project.Members, 1)
	assert.Equal(t, alice.ID, detailed.Project.Members[0].ID)

	// Non-members never see the project.
	bob := a.createUser("bob")
	resp = a.request(http.MethodGet, path, bob.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.request(http.MethodDelete, path, alice.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = a.request(http.MethodGet, "/api/projects", alice.ID, nil)
	listed = decodeBody[struct {
		Projects []db.Project `json:"projects"`
	}](t, resp)
	assert.Empty(t, listed.Projects)
}

func TestApiInviteFlow(t *testing.T) {
	a := newApiTest(t)
	alice := a.createUser("alice")
	bob := a.createUser("bob")

	resp := a.request(http.MethodPost, "/api/projects", alice.ID, map[string]string{"name": "workspace"})
	created := decodeBody[struct {
		Project db.Project `json:"project"`
	}](t, resp)
	projectID := created.Project.ID

	resp = a.request(http.MethodPost, fmt.Sprintf("/api/project/%d/invites", projectID), alice.ID,
		map[string]any{"receiver_ids": []int{bob.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sent := decodeBody[struct {
		Results []project.InviteResult `json:"results"`
	}](t, resp)
	require.Len(t, sent.Results, 1)
	require.NotNil(t, sent.Results[0].Invite)

	resp = a.request(http.MethodGet, "/api/invites", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeBody[struct {
		Invites []db.ProjectInviteWithDetails `json:"invites"`
	}](t, resp)
	require.Len(t, pending.Invites, 1)
	inviteID := pending.Invites[0].ID

	resp = a.request(http.MethodPost, fmt.Sprintf("/api/invites/%d/respond", inviteID), bob.ID,
		map[string]string{"response": "accepted"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Acceptance makes Bob a member: the project is now visible to him.
	resp = a.request(http.MethodGet, fmt.Sprintf("/api/project/%d", projectID), bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detailed := decodeBody[struct {
		Project db.ProjectWithMembers `json:"project"`
	}](t, resp)
	assert.Len(t, detailed.Project.Members, 2)

	// Replays conflict.
	resp = a.request(http.MethodPost, fmt.Sprintf("/api/invites/%d/respond", inviteID), bob.ID,
		map[string]string{"response": "rejected"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestApiRealtimeSession(t *testing.T) {
	a := newApiTest(t)
	alice := a.createUser("alice")
	bob := a.createUser("bob")

	resp := a.request(http.MethodPost, "/api/projects", alice.ID, map[string]string{"name": "workspace"})
	created := decodeBody[struct {
		Project db.Project `json:"project"`
	}](t, resp)
	projectID := created.Project.ID
	_, err := a.store.CreateProjectUser(db.ProjectUser{ProjectID: projectID, UserID: bob.ID})
	require.NoError(t, err)

	aliceWs, _ := a.dial(alice.ID, projectID)
	bobWs, _ := a.dial(bob.ID, projectID)

	// Alice edits a file; Bob sees exactly one delta, Alice gets no echo.
	require.NoError(t, aliceWs.WriteJSON(map[string]string{
		"action": "filetree", "path": "index.js", "content": "console.log(1)",
	}))
	ev := readEvent(t, bobWs)
	assert.Equal(t, realtime.EventFileTreeDelta, ev.Kind)
	require.NotNil(t, ev.Delta)
	assert.Equal(t, "index.js", ev.Delta.Path)
	assert.Equal(t, "console.log(1)", ev.Delta.Content)

	// Chat fans out the same way.
	require.NoError(t, aliceWs.WriteJSON(map[string]string{"action": "chat", "body": "hello"}))
	ev = readEvent(t, bobWs)
	assert.Equal(t, realtime.EventChatMessage, ev.Kind)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "hello", ev.Message.Body)
	assert.Equal(t, alice.Email, ev.Message.Sender)

	// A late joiner's snapshot carries the file tree and chat history.
	carol := a.createUser("carol")
	_, err = a.store.CreateProjectUser(db.ProjectUser{ProjectID: projectID, UserID: carol.ID})
	require.NoError(t, err)
	_, state := a.dial(carol.ID, projectID)
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "console.log(1)", state.Snapshot.FileTree["index.js"].Content)
	require.Len(t, state.Snapshot.History, 1)
	assert.Equal(t, "hello", state.Snapshot.History[0].Body)

	// The REST view of the file tree agrees with the realtime state.
	resp = a.request(http.MethodGet, fmt.Sprintf("/api/project/%d/filetree", projectID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tree := decodeBody[struct {
		FileTree map[string]struct {
			Content  string `json:"content"`
			Language string `json:"language"`
		} `json:"file_tree"`
	}](t, resp)
	assert.Equal(t, "console.log(1)", tree.FileTree["index.js"].Content)
	assert.Equal(t, "javascript", tree.FileTree["index.js"].Language)
}

func TestApiSocketRejectsNonMember(t *testing.T) {
	a := newApiTest(t)
	alice := a.createUser("alice")
	eve := a.createUser("eve")

	resp := a.request(http.MethodPost, "/api/projects", alice.ID, map[string]string{"name": "workspace"})
	created := decodeBody[struct {
		Project db.Project `json:"project"`
	}](t, resp)

	url := "ws" + strings.TrimPrefix(a.server.URL, "http") + fmt.Sprintf("/api/project/%d/ws", created.Project.ID)
	header := http.Header{"X-User-ID": []string{strconv.Itoa(eve.ID)}}
	ws, wsResp, err := websocket.DefaultDialer.Dial(url, header)
	if wsResp != nil {
		wsResp.Body.Close()
	}
	require.NoError(t, err)
	defer ws.Close()

	// The server upgrades, then closes with a policy violation instead of
	// delivering a snapshot.
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev realtime.Event
	readErr := ws.ReadJSON(&ev)
	require.Error(t, readErr)
	assert.True(t, websocket.IsCloseError(readErr, websocket.ClosePolicyViolation))
}
