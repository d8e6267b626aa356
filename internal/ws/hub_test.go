package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chronique-jdr/chronique/internal/auth"
)

// fakeTransport records written frames and close calls.
type fakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeTransport) Read(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *fakeTransport) Write(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeTransport) Close(int, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeTransport) lastFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[len(f.frames)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func newTestHub(t *testing.T) *Hub {
	return NewHub(zaptest.NewLogger(t))
}

func identity(accountID int64) auth.Identity {
	return auth.Identity{AccountID: accountID, Username: "joueur", Role: auth.RolePlayer}
}

func TestHub_BroadcastReachesRoomMembers(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := &fakeTransport{}
	out := &fakeTransport{}
	member := hub.Register("c1", identity(1), in)
	outsider := hub.Register("c2", identity(2), out)
	go func() { _ = member.Run(ctx) }()
	go func() { _ = outsider.Run(ctx) }()

	hub.Join(member, CombatRoom("cbt-1"))
	assert.Equal(t, 1, hub.RoomSize(CombatRoom("cbt-1")))

	require.NoError(t, hub.Broadcast(CombatRoom("cbt-1"), "tour_suivant", map[string]int{"roundActuel": 2}))

	waitFor(t, func() bool { return in.frameCount() == 1 })
	assert.Equal(t, 0, out.frameCount())

	var env Envelope
	require.NoError(t, json.Unmarshal(in.lastFrame(), &env))
	assert.Equal(t, "tour_suivant", env.Type)
	assert.JSONEq(t, `{"roundActuel":2}`, string(env.Payload))
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &fakeTransport{}
	c := hub.Register("c1", identity(1), tr)
	go func() { _ = c.Run(ctx) }()

	room := CampaignRoom(7)
	hub.Join(c, room)
	require.NoError(t, hub.Broadcast(room, "message", "bonjour"))
	waitFor(t, func() bool { return tr.frameCount() == 1 })

	hub.Leave(c, room)
	require.NoError(t, hub.Broadcast(room, "message", "personne"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, tr.frameCount())
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := newTestHub(t)
	tr := &fakeTransport{}
	c := hub.Register("c1", identity(1), tr)
	hub.Join(c, "room")

	hub.Unregister(c)
	assert.Equal(t, 0, hub.RoomSize("room"))

	tr.mu.Lock()
	closed := tr.closed
	tr.mu.Unlock()
	assert.True(t, closed)

	// Idempotent.
	hub.Unregister(c)
}

func TestHub_LaggingClientIsDropped(t *testing.T) {
	hub := newTestHub(t)

	// No Run loop: the send buffer fills and the overflow drops the client.
	tr := &fakeTransport{}
	c := hub.Register("c1", identity(1), tr)
	hub.Join(c, "room")

	for i := 0; i <= sendBufferSize; i++ {
		require.NoError(t, hub.Broadcast("room", "spam", i))
	}
	assert.Equal(t, 0, hub.RoomSize("room"))
}

func TestHub_SendTargetsSingleClient(t *testing.T) {
	hub := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &fakeTransport{}
	c := hub.Register("c1", identity(1), tr)
	go func() { _ = c.Run(ctx) }()

	require.NoError(t, hub.Send(c, "etat_combat", map[string]string{"id": "cbt-1"}))
	waitFor(t, func() bool { return tr.frameCount() == 1 })

	var env Envelope
	require.NoError(t, json.Unmarshal(tr.lastFrame(), &env))
	assert.Equal(t, "etat_combat", env.Type)
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "combat_abc", CombatRoom("abc"))
	assert.Equal(t, "campaign_12", CampaignRoom(12))
}
