package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/application"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := NewRedisClient(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisPublisher_Publish(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher := NewRedisPublisher(client, "booking.test", nil)
	require.NoError(t, publisher.Ping(ctx))

	sub := client.Subscribe(ctx, "booking.test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	occurred := time.Date(2024, time.May, 20, 19, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	err = publisher.Publish(ctx, application.MeetingEvent{
		Type:       application.EventMeetingCreated,
		MeetingID:  "m1",
		RoomID:     "room-a",
		ActorID:    "user-1",
		Status:     "pending",
		OccurredAt: occurred,
	})
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "booking.test", msg.Channel)

	var payload Payload
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
	assert.Equal(t, application.EventMeetingCreated, payload.Type)
	assert.Equal(t, "m1", payload.MeetingID)
	assert.Equal(t, "room-a", payload.RoomID)
	assert.Equal(t, "pending", payload.Status)
	assert.True(t, payload.OccurredAt.Equal(occurred))
	assert.Equal(t, time.UTC, payload.OccurredAt.Location())
}

func TestRedisPublisher_DefaultChannel(t *testing.T) {
	_, client := setupTestRedis(t)

	publisher := NewRedisPublisher(client, "  ", nil)
	assert.Equal(t, DefaultChannel, publisher.Channel())
}

func TestRedisPublisher_ServerDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	publisher := NewRedisPublisher(client, "", nil)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := publisher.Publish(ctx, application.MeetingEvent{Type: application.EventMeetingDeleted, MeetingID: "m1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), application.EventMeetingDeleted)
}

func TestPayloadOmitsEmptyFields(t *testing.T) {
	body, err := json.Marshal(PayloadFromEvent(application.MeetingEvent{
		Type:      application.EventMeetingApproved,
		MeetingID: "m1",
		ActorID:   "admin-1",
	}))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "user_id")
	assert.Contains(t, string(body), `"actor_id":"admin-1"`)
}

func TestNop(t *testing.T) {
	var notifier application.Notifier = Nop{}
	assert.NoError(t, notifier.Publish(context.Background(), application.MeetingEvent{}))
}
