package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishFeedEvent(context.Background(), FeedEvent{Type: EventPostCreated}))
	assert.NoError(t, n.PublishUser(context.Background(), 1, FeedEvent{Type: EventPostLiked}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "feed:user:1"},
		{100, "feed:user:100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
		id, ok := ParseUserChannel(tt.expected)
		assert.True(t, ok)
		assert.Equal(t, tt.userID, id)
	}

	for _, bad := range []string{"feed:user:", "feed:user:abc", "feed:user:0", "other:1"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestHub_StartWiringDeliversEvents(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	viewer, err := hub.Register(1, nil)
	require.NoError(t, err)
	author, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishFeedEvent(context.Background(), FeedEvent{Type: EventPostCreated, PostID: 9, ActorID: 1}))

	for _, c := range []*Client{viewer, author} {
		select {
		case msg := <-c.Send:
			var ev FeedEvent
			require.NoError(t, json.Unmarshal(msg, &ev))
			assert.Equal(t, EventPostCreated, ev.Type)
			assert.Equal(t, uint(9), ev.PostID)
			assert.False(t, ev.At.IsZero())
		case <-time.After(time.Second):
			t.Fatal("feed event not delivered")
		}
	}

	require.NoError(t, n.PublishUser(context.Background(), 2, FeedEvent{Type: EventPostLiked, PostID: 9, ActorID: 1}))
	select {
	case msg := <-author.Send:
		assert.Contains(t, string(msg), EventPostLiked)
	case <-time.After(time.Second):
		t.Fatal("user event not delivered")
	}
	assert.Never(t, func() bool { return len(viewer.Send) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
