package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleIncomingMessagePongIsSilent(t *testing.T) {
	client := newTestClient(uuid.New().String())

	raw, err := json.Marshal(Message{Type: MessageTypePong})
	require.NoError(t, err)

	keepOpen := client.handleIncomingMessage(raw)

	assert.True(t, keepOpen)
	select {
	case msg := <-client.send:
		t.Fatalf("ответ на pong не ожидается, получено: %s", msg)
	default:
	}
}

func TestHandleIncomingMessagePingAnswersPong(t *testing.T) {
	client := newTestClient(uuid.New().String())

	raw, err := json.Marshal(Message{Type: MessageTypePing})
	require.NoError(t, err)

	keepOpen := client.handleIncomingMessage(raw)

	assert.True(t, keepOpen)
	select {
	case rawReply := <-client.send:
		var reply Message
		require.NoError(t, json.Unmarshal(rawReply, &reply))
		assert.Equal(t, MessageTypePong, reply.Type)
	default:
		t.Fatal("ответ pong не отправлен")
	}
}

func TestHandleIncomingMessageInvalidJSONKeepsConnection(t *testing.T) {
	client := newTestClient(uuid.New().String())

	keepOpen := client.handleIncomingMessage([]byte("{not json"))

	assert.True(t, keepOpen)
	select {
	case rawReply := <-client.send:
		var reply Message
		require.NoError(t, json.Unmarshal(rawReply, &reply))
		assert.Equal(t, MessageTypeError, reply.Type)
	default:
		t.Fatal("сообщение об ошибке не отправлено")
	}
}
