package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskdeck/models"
	"taskdeck/testutils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestWebSocketService_Lifecycle(t *testing.T) {
	wsService := NewWebSocketService(&testutils.MockTaskStreamService{})

	wsService.Start()
	assert.True(t, wsService.isRunning)

	wsService.Start() // Should be no-op
	assert.True(t, wsService.isRunning)

	wsService.Stop()
	assert.False(t, wsService.isRunning)
}

func TestWebSocketService_RejectsUnauthenticated(t *testing.T) {
	wsService := NewWebSocketService(&testutils.MockTaskStreamService{})
	wsService.Start()
	defer wsService.Stop()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", wsService.HandleConnection)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ws", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClient_DisconnectWithBufferedSnapshot(t *testing.T) {
	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
	}

	// Simulate a disconnect arriving while a snapshot is still queued:
	// the subscription is cancelled (channel closed) with one item buffered.
	snapshots := make(chan []models.Task, 8)
	snapshots <- []models.Task{{ID: uuid.New(), Title: "Buffered Task"}}
	close(snapshots)

	client.forwardSnapshots(snapshots)

	// The buffered snapshot still lands, then Send closes cleanly
	message, open := <-client.Send
	assert.True(t, open)
	assert.Contains(t, string(message), "Buffered Task")

	_, open = <-client.Send
	assert.False(t, open)
}

func TestWebSocketService_UnregisterLeavesSendToForwarder(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	wsService := NewWebSocketService(streams)
	wsService.Start()
	defer wsService.Stop()

	snapshots, cancel := streams.Subscribe(uuid.New())
	client := &Client{
		ID:     uuid.New().String(),
		UserID: uuid.New(),
		Hub:    wsService,
		Send:   make(chan []byte, 256),
		cancel: cancel,
	}

	wsService.register <- client
	go client.forwardSnapshots(snapshots)

	streams.Push([]models.Task{{ID: uuid.New(), Title: "In Flight"}})
	wsService.unregister <- client

	// The in-flight snapshot is delivered before Send closes; no panic
	deadline := time.After(2 * time.Second)
	var messages []string
	for {
		select {
		case message, open := <-client.Send:
			if !open {
				assert.Len(t, messages, 1)
				assert.Contains(t, messages[0], "In Flight")
				return
			}
			messages = append(messages, string(message))
		case <-deadline:
			t.Fatal("send channel never closed after unregister")
		}
	}
}

func TestWebSocketService_DeliversSnapshots(t *testing.T) {
	streams := &testutils.MockTaskStreamService{}
	wsService := NewWebSocketService(streams)
	wsService.Start()
	defer wsService.Stop()

	userID := uuid.New()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("userID", userID)
		wsService.HandleConnection(c)
	})

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	defer conn.Close()

	// Give the client goroutines a moment to wire up, then push
	time.Sleep(50 * time.Millisecond)
	streams.Push([]models.Task{{ID: uuid.New(), UserID: userID, Title: "Test Task"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	assert.NoError(t, err)

	var snapshot models.TaskSnapshot
	assert.NoError(t, json.Unmarshal(message, &snapshot))
	assert.Equal(t, models.SnapshotMessage, snapshot.Type)
	assert.Len(t, snapshot.Tasks, 1)
	assert.Equal(t, "Test Task", snapshot.Tasks[0].Title)
}
