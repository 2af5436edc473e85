package websocket

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"

	"github.com/tedlist/tedlist-api/internal/utils"
)

const (
	// Максимальное время ожидания активности от клиента
	pongWait = 60 * time.Second

	// Таймаут записи сообщения клиенту
	writeWait = 10 * time.Second

	// Максимальный размер сообщения от клиента
	maxMessageSize = 64 * 1024 // 64KB

	// Размер буфера для отправляемых сообщений
	sendBufferSize = 256
)

// Client представляет собой отдельное WebSocket соединение.
// Соединение создаётся неаутентифицированным: пока клиент не пришлёт
// валидное сообщение authenticate, оно не попадает в реестр и не может
// получать уведомления.
type Client struct {
	ID         uuid.UUID
	UserID     string // Пустой до успешной аутентификации
	conn       *websocket.Conn
	send       chan []byte
	manager    *Manager
	jwtService *utils.JWTService
	closeChan  chan struct{}
	alive      int32
}

// NewClient создает новый экземпляр Client
func NewClient(conn *websocket.Conn, manager *Manager, jwtService *utils.JWTService) *Client {
	return &Client{
		ID:         uuid.New(),
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		manager:    manager,
		jwtService: jwtService,
		closeChan:  make(chan struct{}),
		alive:      1,
	}
}

// Run запускает горутину записи и обрабатывает входящие сообщения.
// Блокируется до закрытия соединения.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// Alive сообщает, подавал ли клиент признаки жизни с последней проверки
func (c *Client) Alive() bool {
	return atomic.LoadInt32(&c.alive) == 1
}

// markAlive отмечает активность клиента
func (c *Client) markAlive() {
	atomic.StoreInt32(&c.alive, 1)
}

// markDead сбрасывает флаг живости до следующего сообщения от клиента
func (c *Client) markDead() {
	atomic.StoreInt32(&c.alive, 0)
}

// Send ставит сообщение в очередь отправки клиенту.
// Если буфер переполнен, клиент считается слишком медленным и закрывается.
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	default:
		log.Printf("Буфер отправки переполнен для клиента %s, закрываем соединение", c.ID)
		c.Terminate()
	}
}

// Terminate принудительно закрывает соединение
func (c *Client) Terminate() {
	c.conn.Close()
}

// readPump обрабатывает входящие сообщения от клиента
func (c *Client) readPump() {
	defer func() {
		if c.UserID != "" {
			c.manager.RemoveClient(c.ID)
		}
		c.conn.Close()
		close(c.closeChan)
	}()

	// Настраиваем соединение
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.markAlive()
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Бесконечный цикл чтения сообщений
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Неожиданное закрытие соединения: %v", err)
			}
			break
		}

		c.markAlive()
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.handleIncomingMessage(raw) {
			break
		}
	}
}

// writePump отправляет сообщения клиенту
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Ошибка записи сообщения: %v", err)
				return
			}
		case <-c.closeChan:
			// Соединение закрыто
			return
		}
	}
}

// handleIncomingMessage обрабатывает входящее сообщение от клиента.
// Возвращает false, если соединение должно быть закрыто.
func (c *Client) handleIncomingMessage(raw []byte) bool {
	var message Message
	if err := json.Unmarshal(raw, &message); err != nil {
		log.Printf("Ошибка разбора сообщения WebSocket: %v", err)
		c.sendMessage(Message{Type: MessageTypeError, Message: "Invalid message format"})
		return true
	}

	switch message.Type {
	case MessageTypeAuthenticate:
		return c.authenticate(message.Token)

	case MessageTypePing:
		c.sendMessage(Message{Type: MessageTypePong})
		return true

	case MessageTypePong:
		// Ответ на серверный heartbeat; живость уже отмечена при чтении
		return true

	default:
		log.Printf("Неизвестный тип сообщения: %s", message.Type)
		return true
	}
}

// authenticate проверяет токен и регистрирует клиента в реестре.
// Невалидный или отсутствующий токен приводит к закрытию соединения.
func (c *Client) authenticate(token string) bool {
	if token == "" {
		c.sendMessage(Message{Type: MessageTypeError, Message: "Authentication token missing"})
		return false
	}

	userID, err := c.jwtService.ExtractUserID(token)
	if err != nil {
		log.Printf("Ошибка аутентификации WebSocket: %v", err)
		c.sendMessage(Message{Type: MessageTypeError, Message: "Authentication failed"})
		return false
	}

	if _, err := uuid.Parse(userID); err != nil {
		c.sendMessage(Message{Type: MessageTypeError, Message: "Invalid token payload"})
		return false
	}

	// Повторная аутентификация на том же соединении — просто подтверждаем статус
	if c.UserID == "" {
		c.UserID = userID
		c.manager.AddClient(c)
	}

	status, _ := json.Marshal(map[string]interface{}{
		"connected": true,
		"user_id":   c.UserID,
	})
	c.sendMessage(Message{Type: MessageTypeConnectionStatus, Data: status})
	return true
}

// sendMessage сериализует и отправляет сообщение клиенту
func (c *Client) sendMessage(message Message) {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("Ошибка сериализации сообщения: %v", err)
		return
	}
	c.Send(messageJSON)
}
