package project

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/devboardui/devboard/db"
	"github.com/devboardui/devboard/db/bolt"
	"github.com/devboardui/devboard/services/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inviteFixture struct {
	store   db.Store
	channel *realtime.EventChannel

	registry *realtime.SessionRegistry

	owner    db.User
	receiver db.User
	project  db.Project
}

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()

	store := bolt.NewBoltDb(filepath.Join(t.TempDir(), "devboard.db"))
	require.NoError(t, store.Connect())
	t.Cleanup(func() { _ = store.Close() })

	tree := realtime.NewFileTreeStore()
	registry := realtime.NewSessionRegistry(tree, nil, 50)
	channel := realtime.NewEventChannel(registry, tree)

	owner, err := store.CreateUser(db.User{Username: "owner", Email: "owner@example.com"})
	require.NoError(t, err)
	receiver, err := store.CreateUser(db.User{Username: "receiver", Email: "receiver@example.com"})
	require.NoError(t, err)
	project, err := store.CreateProject(db.Project{Name: "workspace"}, owner.ID)
	require.NoError(t, err)

	return &inviteFixture{
		store:    store,
		channel:  channel,
		registry: registry,
		owner:    owner,
		receiver: receiver,
		project:  project,
	}
}

type memberConn struct {
	id   string
	user db.User

	mu     sync.Mutex
	events []realtime.Event
	closed bool
}

func (c *memberConn) ID() string    { return c.id }
func (c *memberConn) User() db.User { return c.user }

func (c *memberConn) Send(ev realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return realtime.ErrTransportFailure
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *memberConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *memberConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *memberConn) received() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]realtime.Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestInviteService_CreateInvite(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)

	require.NoError(t, err)
	assert.Equal(t, db.ProjectInvitePending, invite.Status)
	assert.Equal(t, fx.owner.ID, invite.SenderUserID)
	assert.Equal(t, fx.receiver.ID, invite.ReceiverUserID)
	assert.NotZero(t, invite.ID)
}

func TestInviteService_CreateInvite_SenderMustBeMember(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	outsider, err := fx.store.CreateUser(db.User{Username: "outsider", Email: "outsider@example.com"})
	require.NoError(t, err)

	_, err = service.CreateInvite(fx.project.ID, outsider.ID, fx.receiver.ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestInviteService_CreateInvite_ReceiverMustExist(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	_, err := service.CreateInvite(fx.project.ID, fx.owner.ID, 9999)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestInviteService_CreateInvite_ReceiverAlreadyMember(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	_, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.owner.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInviteService_CreateInvite_DuplicatePending(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	_, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	_, err = service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	assert.ErrorIs(t, err, ErrDuplicatePending)
}

func TestInviteService_CreateInvite_AllowedAfterRejection(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	_, err = service.Respond(invite.ID, fx.receiver.ID, db.ProjectInviteRejected)
	require.NoError(t, err)

	// A rejected invite is terminal; a fresh one may be sent.
	_, err = service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	assert.NoError(t, err)
}

func TestInviteService_CreateInvites_PartialFailure(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	results := service.CreateInvites(fx.project.ID, fx.owner.ID, []int{fx.receiver.ID, 9999, fx.owner.ID})

	require.Len(t, results, 3)
	assert.NotNil(t, results[0].Invite)
	assert.Empty(t, results[0].Error)
	assert.Nil(t, results[1].Invite)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, ErrAlreadyMember.Error(), results[2].Error)
}

func TestInviteService_PendingFor(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	_, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	invites, err := service.PendingFor(fx.receiver.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.NotNil(t, invites[0].Project)
	assert.Equal(t, fx.project.Name, invites[0].Project.Name)
	require.NotNil(t, invites[0].Sender)
	assert.Equal(t, fx.owner.Email, invites[0].Sender.Email)

	none, err := service.PendingFor(fx.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInviteService_Respond_Accept(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	// The owner watches the project; acceptance must broadcast the new
	// member set to them.
	conn := &memberConn{id: "owner-conn", user: fx.owner}
	_, err := fx.registry.Join(conn, fx.project.ID)
	require.NoError(t, err)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	resolved, err := service.Respond(invite.ID, fx.receiver.ID, db.ProjectInviteAccepted)
	require.NoError(t, err)
	assert.Equal(t, db.ProjectInviteAccepted, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = fx.store.GetProjectUser(fx.project.ID, fx.receiver.ID)
	assert.NoError(t, err)

	events := conn.received()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventMembershipChanged, events[0].Kind)
	assert.Len(t, events[0].Members, 2)
}

func TestInviteService_Respond_Reject(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	resolved, err := service.Respond(invite.ID, fx.receiver.ID, db.ProjectInviteRejected)
	require.NoError(t, err)
	assert.Equal(t, db.ProjectInviteRejected, resolved.Status)

	// Rejection never touches the member set.
	_, err = fx.store.GetProjectUser(fx.project.ID, fx.receiver.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestInviteService_Respond_InvalidDecision(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	_, err = service.Respond(invite.ID, fx.receiver.ID, db.ProjectInvitePending)
	var validation *db.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = service.Respond(invite.ID, fx.receiver.ID, "maybe")
	assert.ErrorAs(t, err, &validation)
}

func TestInviteService_Respond_OnlyReceiver(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	// Anyone but the addressed receiver observes NotFound, the invite
	// stays pending.
	_, err = service.Respond(invite.ID, fx.owner.ID, db.ProjectInviteAccepted)
	assert.ErrorIs(t, err, db.ErrNotFound)

	current, err := fx.store.GetProjectInvite(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ProjectInvitePending, current.Status)
}

func TestInviteService_Respond_AlreadyResolved(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	_, err = service.Respond(invite.ID, fx.receiver.ID, db.ProjectInviteRejected)
	require.NoError(t, err)

	_, err = service.Respond(invite.ID, fx.receiver.ID, db.ProjectInviteAccepted)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// The first decision stands.
	current, err := fx.store.GetProjectInvite(invite.ID)
	require.NoError(t, err)
	assert.Equal(t, db.ProjectInviteRejected, current.Status)
}

func TestInviteService_Respond_ConcurrentSingleWinner(t *testing.T) {
	fx := newInviteFixture(t)
	service := NewInviteService(fx.store, fx.channel, nil)

	invite, err := service.CreateInvite(fx.project.ID, fx.owner.ID, fx.receiver.ID)
	require.NoError(t, err)

	const racers = 10
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision := db.ProjectInviteAccepted
			if i%2 == 1 {
				decision = db.ProjectInviteRejected
			}
			_, errs[i] = service.Respond(invite.ID, fx.receiver.ID, decision)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrAlreadyResolved, fmt.Sprintf("racer %d", i))
		}
	}
	assert.Equal(t, 1, wins)
}
