package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager представляет центральный реестр всех WebSocket соединений.
// Реестр знает, какие соединения принадлежат какому пользователю, и
// используется только для доставки событий подключённым клиентам —
// бизнес-состояние он не хранит.
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
}

// Типы сообщений WebSocket
const (
	MessageTypeAuthenticate     = "authenticate"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeConnectionStatus = "connection_status"
	MessageTypeNotification     = "notification"
	MessageTypeError            = "error"
)

// Message представляет структуру сообщения WebSocket канала
type Message struct {
	Type    string          `json:"type"`
	Token   string          `json:"token,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewManager создает новый экземпляр Manager
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient регистрирует аутентифицированного клиента.
// Клиент без userID в реестр не попадает.
func (m *Manager) AddClient(client *Client) {
	if client.UserID == "" {
		return
	}

	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	// Связываем клиент с пользователем. У пользователя может быть
	// несколько открытых соединений, события рассылаются во все.
	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	log.Printf("WebSocket клиент %s подключен для пользователя %s", client.ID, client.UserID)
}

// RemoveClient удаляет клиента из реестра
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return
	}

	userID := client.UserID

	// Удаляем клиент из связи с пользователем
	m.userMutex.Lock()
	if clients, ok := m.userClients[userID]; ok {
		delete(clients, clientID)
		// Если это было последнее соединение пользователя, удаляем запись
		if len(clients) == 0 {
			delete(m.userClients, userID)
		}
	}
	m.userMutex.Unlock()

	// Удаляем клиент из общего списка
	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	log.Printf("WebSocket клиент %s отключен для пользователя %s", clientID, userID)
}

// IsUserConnected сообщает, есть ли у пользователя живое соединение
func (m *Manager) IsUserConnected(userID string) bool {
	m.userMutex.RLock()
	defer m.userMutex.RUnlock()
	return len(m.userClients[userID]) > 0
}

// SendToUser отправляет сообщение всем соединениям конкретного пользователя.
// Если пользователь не подключен, сообщение молча пропускается — запись
// уведомления в БД остаётся источником истины.
func (m *Manager) SendToUser(userID string, message Message) {
	if userID == "" {
		return
	}

	m.userMutex.RLock()
	clientIDs := make([]uuid.UUID, 0, len(m.userClients[userID]))
	for clientID := range m.userClients[userID] {
		clientIDs = append(clientIDs, clientID)
	}
	m.userMutex.RUnlock()

	if len(clientIDs) == 0 {
		return
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("Ошибка сериализации сообщения WebSocket: %v", err)
		return
	}

	for _, clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		client.Send(messageJSON)
	}
}

// SendNotification отправляет уведомление всем соединениям пользователя
func (m *Manager) SendNotification(userID string, notification interface{}) {
	data, err := json.Marshal(notification)
	if err != nil {
		log.Printf("Ошибка сериализации уведомления: %v", err)
		return
	}

	m.SendToUser(userID, Message{
		Type: MessageTypeNotification,
		Data: data,
	})
}

// StartHeartbeat запускает периодическую проверку живости соединений.
// Каждый интервал всем клиентам отправляется ping; клиент, не подавший
// признаков жизни к следующему интервалу, принудительно закрывается.
func (m *Manager) StartHeartbeat(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.sweepClients()
			case <-m.ctx.Done():
				return
			}
		}
	}()
}

// sweepClients отправляет ping всем клиентам и закрывает неотвечающие
func (m *Manager) sweepClients() {
	m.clientsMutex.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.clientsMutex.RUnlock()

	ping, _ := json.Marshal(Message{Type: MessageTypePing})

	for _, client := range clients {
		if !client.Alive() {
			log.Printf("Закрываем неактивное соединение %s", client.ID)
			client.Terminate()
			m.RemoveClient(client.ID)
			continue
		}

		client.markDead()
		client.Send(ping)
	}
}

// Shutdown корректно завершает работу менеджера WebSocket
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.Terminate()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
