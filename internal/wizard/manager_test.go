package wizard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwiz/internal/outline"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(Deps{Logger: quietLogger()})

	s := m.Create()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, m.Close(s.ID))
	assert.True(t, s.Closed())
	assert.ErrorIs(t, m.Close(s.ID), ErrSessionNotFound)
	assert.Equal(t, 0, m.Len())
}

func TestManagerReap(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Deps{Logger: quietLogger(), Now: clock.Now})

	idle := m.Create()
	active := m.Create()

	clock.Advance(20 * time.Minute)
	_, err := m.Get(active.ID)
	require.NoError(t, err)
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, m.Reap(30*time.Minute))
	assert.True(t, idle.Closed())
	assert.False(t, active.Closed())

	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager(Deps{Logger: quietLogger()})
	a, b := m.Create(), m.Create()
	require.NoError(t, a.SubmitTopic(context.Background(), outline.Topic{MainTopic: "x"}))

	m.CloseAll()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, m.Len())
}

func TestStartReaperClosesIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := NewManager(Deps{Logger: quietLogger(), Now: clock.Now})
	s := m.Create()
	clock.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartReaper(ctx, 5*time.Millisecond, time.Minute)

	assert.Eventually(t, s.Closed, time.Second, 5*time.Millisecond)
}
