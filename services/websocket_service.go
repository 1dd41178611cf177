package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"taskdeck/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketServiceInterface pushes owner-scoped task snapshots to connected
// clients over websocket.
type WebSocketServiceInterface interface {
	Start()
	Stop()
	HandleConnection(c *gin.Context)
}

// Client represents a connected WebSocket client
type Client struct {
	ID     string
	UserID uuid.UUID
	Hub    *WebSocketService
	Conn   *websocket.Conn
	Send   chan []byte
	cancel func()
}

// WebSocketService manages WebSocket connections
type WebSocketService struct {
	clients      map[string]*Client
	register     chan *Client
	unregister   chan *Client
	clientsMutex sync.RWMutex

	upgrader websocket.Upgrader
	streams  TaskStreamServiceInterface

	isRunning bool
	stopChan  chan struct{}
}

func NewWebSocketService(streams TaskStreamServiceInterface) *WebSocketService {
	return &WebSocketService{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Origins are enforced by the CORS middleware
			},
		},
		streams:  streams,
		stopChan: make(chan struct{}),
	}
}

func (ws *WebSocketService) Start() {
	if ws.isRunning {
		return
	}
	ws.isRunning = true
	go ws.run()
}

func (ws *WebSocketService) Stop() {
	if !ws.isRunning {
		return
	}
	ws.isRunning = false
	close(ws.stopChan)

	ws.clientsMutex.Lock()
	for _, client := range ws.clients {
		if client != nil && client.Conn != nil {
			client.Conn.Close()
		}
	}
	ws.clientsMutex.Unlock()

	log.Println("WebSocket service stopped")
}

func (ws *WebSocketService) run() {
	for {
		select {
		case <-ws.stopChan:
			return

		case client := <-ws.register:
			ws.clientsMutex.Lock()
			ws.clients[client.ID] = client
			ws.clientsMutex.Unlock()
			log.Printf("Client connected: %s (user: %s)", client.ID, client.UserID)

		case client := <-ws.unregister:
			ws.clientsMutex.Lock()
			if _, ok := ws.clients[client.ID]; ok {
				delete(ws.clients, client.ID)
				// Cancelling ends the snapshot stream; forwardSnapshots owns
				// Send and closes it once the stream drains, so buffered
				// snapshots still in flight land safely.
				client.cancel()
				log.Printf("Client disconnected: %s", client.ID)
			}
			ws.clientsMutex.Unlock()
		}
	}
}

// HandleConnection upgrades an authenticated request and wires the client
// to a task stream subscription for its user. The subscription is released
// when the client goes away.
func (ws *WebSocketService) HandleConnection(c *gin.Context) {
	userIDInterface, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID := userIDInterface.(uuid.UUID)

	conn, err := ws.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	snapshots, cancel := ws.streams.Subscribe(userID)

	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Hub:    ws,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		cancel: cancel,
	}

	ws.register <- client

	go client.forwardSnapshots(snapshots)
	go client.readPump()
	go client.writePump()
}

// forwardSnapshots serializes task list snapshots into the send buffer.
// It is the only sender on Send and closes it when the subscription ends.
func (c *Client) forwardSnapshots(snapshots <-chan []models.Task) {
	defer close(c.Send)

	for tasks := range snapshots {
		msg := models.NewTaskSnapshot(tasks)
		jsonData, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Error serializing snapshot: %v", err)
			continue
		}

		select {
		case c.Send <- jsonData:
		default:
			log.Printf("Client %s send buffer full, dropping snapshot", c.ID)
		}
	}
}

// readPump handles incoming messages from the WebSocket client
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error reading from WebSocket: %v", err)
			}
			break
		}

		var clientMsg models.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Error parsing client message: %v", err)
			continue
		}

		switch clientMsg.Type {
		case models.PingMessage:
			// Just a keepalive, no response needed
		default:
			log.Printf("Unknown message type: %s", clientMsg.Type)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var WebSocketServiceInstance WebSocketServiceInterface
