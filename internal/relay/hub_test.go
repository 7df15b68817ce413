package relay

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type metricsStub struct {
	opened    int
	closed    int
	published int
}

func (m *metricsStub) RelaySessionOpened() { m.opened++ }
func (m *metricsStub) RelaySessionClosed() { m.closed++ }
func (m *metricsStub) RelayPublished()     { m.published++ }

func receiveFrame(t *testing.T, s *Session) Envelope {
	t.Helper()
	select {
	case raw, ok := <-s.Send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	default:
		t.Fatal("expected a frame, got none")
		return Envelope{}
	}
}

func assertNoFrame(t *testing.T, s *Session) {
	t.Helper()
	select {
	case raw := <-s.Send:
		t.Fatalf("unexpected frame: %s", raw)
	default:
	}
}

func TestHubPublishExcludesSender(t *testing.T) {
	hub := NewHub(8, nil, zap.NewNop())
	sender := hub.OpenSession("user-a")
	receiver := hub.OpenSession("user-b")
	outsider := hub.OpenSession("user-c")

	hub.Join(sender, "conv-1")
	hub.Join(receiver, "conv-1")

	data := json.RawMessage(`{"conversationId":"conv-1","message":"hi"}`)
	hub.Publish("conv-1", sender, EventReceiveMessage, data)

	env := receiveFrame(t, receiver)
	assert.Equal(t, EventReceiveMessage, env.Event)
	assert.JSONEq(t, string(data), string(env.Data))

	assertNoFrame(t, sender)
	assertNoFrame(t, outsider)
}

func TestHubCloseSession(t *testing.T) {
	metrics := &metricsStub{}
	hub := NewHub(8, metrics, zap.NewNop())
	s := hub.OpenSession("user-a")
	peer := hub.OpenSession("user-b")
	hub.Join(s, "conv-1")
	hub.Join(peer, "conv-1")

	hub.CloseSession(s)
	hub.CloseSession(s) // second close is a no-op

	assert.Equal(t, 1, hub.SessionCount())
	assert.Equal(t, 2, metrics.opened)
	assert.Equal(t, 1, metrics.closed)

	_, open := <-s.Send
	assert.False(t, open)

	hub.Publish("conv-1", peer, EventUserTyping, json.RawMessage(`{"conversationId":"conv-1"}`))
	assertNoFrame(t, peer)
}

func TestHubDropsSlowSession(t *testing.T) {
	hub := NewHub(1, nil, zap.NewNop())
	sender := hub.OpenSession("user-a")
	slow := hub.OpenSession("user-b")
	hub.Join(sender, "conv-1")
	hub.Join(slow, "conv-1")

	data := json.RawMessage(`{"conversationId":"conv-1"}`)
	hub.Publish("conv-1", sender, EventReceiveMessage, data)
	// buffer is full now; the next publish disconnects the laggard
	hub.Publish("conv-1", sender, EventReceiveMessage, data)

	assert.Equal(t, 1, hub.SessionCount())
}

func TestHubPublishConcurrentWithCloseDoesNotPanic(t *testing.T) {
	hub := NewHub(1, nil, zap.NewNop())
	data := json.RawMessage(`{"conversationId":"conv-1"}`)

	publisher := hub.OpenSession("publisher")
	hub.Join(publisher, "conv-1")

	stop := make(chan struct{})
	var publishers sync.WaitGroup
	for i := 0; i < 4; i++ {
		publishers.Add(1)
		go func() {
			defer publishers.Done()
			for {
				select {
				case <-stop:
					return
				default:
					hub.Publish("conv-1", publisher, EventReceiveMessage, data)
				}
			}
		}()
	}

	// churn sessions on the same channel; a publish racing a close would
	// panic on the closed Send channel and fail the test binary
	var churners sync.WaitGroup
	for i := 0; i < 4; i++ {
		churners.Add(1)
		go func() {
			defer churners.Done()
			for j := 0; j < 200; j++ {
				s := hub.OpenSession("user")
				hub.Join(s, "conv-1")
				hub.CloseSession(s)
			}
		}()
	}

	churners.Wait()
	close(stop)
	publishers.Wait()

	assert.Equal(t, 1, hub.SessionCount())
}

func TestHubHandleFrameJoinAndRelay(t *testing.T) {
	hub := NewHub(8, nil, zap.NewNop())
	sender := hub.OpenSession("user-a")
	receiver := hub.OpenSession("user-b")

	join := []byte(`{"event":"join_conversation","data":{"conversationId":"conv-1"}}`)
	hub.HandleFrame(sender, join)
	hub.HandleFrame(receiver, join)

	hub.HandleFrame(sender, []byte(`{"event":"send_message","data":{"conversationId":"conv-1","message":"hello"}}`))
	env := receiveFrame(t, receiver)
	assert.Equal(t, EventReceiveMessage, env.Event)

	hub.HandleFrame(sender, []byte(`{"event":"typing","data":{"conversationId":"conv-1"}}`))
	env = receiveFrame(t, receiver)
	assert.Equal(t, EventUserTyping, env.Event)

	hub.HandleFrame(sender, []byte(`{"event":"stop_typing","data":{"conversationId":"conv-1"}}`))
	env = receiveFrame(t, receiver)
	assert.Equal(t, EventUserStopTyping, env.Event)

	assertNoFrame(t, sender)
}

func TestHubHandleFrameIgnoresGarbage(t *testing.T) {
	hub := NewHub(8, nil, zap.NewNop())
	s := hub.OpenSession("user-a")
	peer := hub.OpenSession("user-b")
	hub.Join(s, "conv-1")
	hub.Join(peer, "conv-1")

	hub.HandleFrame(s, []byte(`not json`))
	hub.HandleFrame(s, []byte(`{"event":"time_travel","data":{}}`))
	hub.HandleFrame(s, []byte(`{"event":"send_message","data":{"message":"no channel"}}`))

	assertNoFrame(t, peer)
	assert.Equal(t, 2, hub.SessionCount())
}

func TestHubJoinAfterCloseIsIgnored(t *testing.T) {
	hub := NewHub(8, nil, zap.NewNop())
	s := hub.OpenSession("user-a")
	hub.CloseSession(s)

	hub.Join(s, "conv-1")

	peer := hub.OpenSession("user-b")
	hub.Join(peer, "conv-1")
	hub.Publish("conv-1", peer, EventUserTyping, json.RawMessage(`{"conversationId":"conv-1"}`))
	// the closed session never re-entered the channel, so nothing panics on
	// its closed Send channel
	assert.Equal(t, 1, hub.SessionCount())
}
