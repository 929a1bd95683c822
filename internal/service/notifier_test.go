package service

import (
	"context"
	"encoding/json"
	"testing"

	"neela-data/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configForTest() config.Settings { return config.DefaultSettings() }

func TestStreamNotifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	n := NewStreamNotifier(client, testLogger())
	notice := Notice{Kind: "maintenance.completed", TenantID: "t1", Recipient: "alice@example.com", Subject: "Done", TicketID: "m1"}
	require.NoError(t, n.Notify(context.Background(), notice))

	msgs, err := client.XRange(context.Background(), NotificationStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "maintenance.completed", msgs[0].Values["kind"])

	var got Notice
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, notice, got)
}

type fakePublisher struct {
	suffix  string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(suffix string, _ bool, payload []byte) error {
	f.suffix = suffix
	f.payload = payload
	return f.err
}

func TestMQTTNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := &MQTTNotifier{client: pub, logger: testLogger()}
	require.NoError(t, n.Notify(context.Background(), Notice{Kind: "payment.claim", TenantID: "t2"}))
	assert.Equal(t, "payment.claim", pub.suffix)
	assert.Contains(t, string(pub.payload), `"tenantId":"t2"`)

	pub.err = errBoom
	assert.ErrorIs(t, n.Notify(context.Background(), Notice{Kind: "x"}), errBoom)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(testLogger()).Notify(context.Background(), Notice{Kind: "x"}))
}

func TestFanoutNotifier(t *testing.T) {
	failing := &MQTTNotifier{client: &fakePublisher{err: errBoom}, logger: testLogger()}
	rec := &recordingNotifier{}
	n := NewFanoutNotifier(failing, rec)

	err := n.Notify(context.Background(), Notice{Kind: "maintenance.completed", TenantID: "t1"})
	assert.ErrorIs(t, err, errBoom)
	// 前一个失败不影响后面的通道
	assert.Len(t, rec.notices, 1)
}
