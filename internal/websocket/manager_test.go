package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID string) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		send:      make(chan []byte, sendBufferSize),
		closeChan: make(chan struct{}),
		alive:     1,
	}
}

func TestAddClientRegistersUser(t *testing.T) {
	m := NewManager()
	userID := uuid.New().String()

	client := newTestClient(userID)
	m.AddClient(client)

	assert.True(t, m.IsUserConnected(userID))
	assert.False(t, m.IsUserConnected(uuid.New().String()))
}

func TestAddClientIgnoresUnauthenticated(t *testing.T) {
	m := NewManager()

	client := newTestClient("")
	m.AddClient(client)

	assert.Empty(t, m.clients)
	assert.Empty(t, m.userClients)
}

func TestRemoveClientClearsUserEntry(t *testing.T) {
	m := NewManager()
	userID := uuid.New().String()

	client := newTestClient(userID)
	m.AddClient(client)
	m.RemoveClient(client.ID)

	assert.False(t, m.IsUserConnected(userID))
	assert.Empty(t, m.clients)
	assert.Empty(t, m.userClients)
}

func TestRemoveClientKeepsOtherConnections(t *testing.T) {
	m := NewManager()
	userID := uuid.New().String()

	first := newTestClient(userID)
	second := newTestClient(userID)
	m.AddClient(first)
	m.AddClient(second)

	m.RemoveClient(first.ID)

	assert.True(t, m.IsUserConnected(userID))
}

func TestSendToUserBroadcastsToAllConnections(t *testing.T) {
	m := NewManager()
	userID := uuid.New().String()

	first := newTestClient(userID)
	second := newTestClient(userID)
	other := newTestClient(uuid.New().String())
	m.AddClient(first)
	m.AddClient(second)
	m.AddClient(other)

	m.SendToUser(userID, Message{Type: MessageTypeNotification, Message: "hello"})

	for _, client := range []*Client{first, second} {
		select {
		case raw := <-client.send:
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, MessageTypeNotification, msg.Type)
			assert.Equal(t, "hello", msg.Message)
		default:
			t.Fatalf("клиент %s не получил сообщение", client.ID)
		}
	}

	select {
	case <-other.send:
		t.Fatal("сообщение доставлено чужому пользователю")
	default:
	}
}

func TestSendToUserUnknownUserIsNoop(t *testing.T) {
	m := NewManager()

	// Не должно паниковать и ничего не отправляет
	m.SendToUser(uuid.New().String(), Message{Type: MessageTypeNotification})
	m.SendToUser("", Message{Type: MessageTypeNotification})
}

func TestSendNotificationWrapsPayload(t *testing.T) {
	m := NewManager()
	userID := uuid.New().String()

	client := newTestClient(userID)
	m.AddClient(client)

	m.SendNotification(userID, map[string]string{"title": "New Match!"})

	select {
	case raw := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypeNotification, msg.Type)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		assert.Equal(t, "New Match!", payload["title"])
	default:
		t.Fatal("уведомление не доставлено")
	}
}
