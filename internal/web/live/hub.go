// Package live pushes annotated frames to websocket viewers.
package live

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kozaktomas/attendance-cam/internal/camera"
	"github.com/kozaktomas/attendance-cam/internal/constants"
	"github.com/kozaktomas/attendance-cam/internal/pipeline"
)

const (
	readLimit  = 512
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// Hub fans JPEG frames out to connected viewers. Frames published while a
// previous one is still being sent are dropped.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
}

// NewHub creates a hub. Run must be started for frames to flow.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Live viewer connected. Total: %d", n)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			n := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Live viewer disconnected. Total: %d", n)

		case message := <-h.broadcast:
			h.send(websocket.BinaryMessage, message)

		case <-ticker.C:
			h.send(websocket.PingMessage, nil)
		}
	}
}

// send writes one message to every client, dropping clients that fail.
func (h *Hub) send(messageType int, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(constants.LiveWriteTimeout))
		if err := client.WriteMessage(messageType, data); err != nil {
			log.Printf("Error sending to live viewer: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
}

// Publish encodes the frame and queues it for viewers. It never blocks the
// frame loop and skips encoding when nobody watches.
func (h *Hub) Publish(out pipeline.Output) {
	if out.Image == nil || h.ClientCount() == 0 {
		return
	}
	data, err := camera.EncodeJPEG(out.Image)
	if err != nil {
		log.Printf("Live: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles GET /api/v1/live. Viewers only receive; anything they
// send is discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	connection.SetReadLimit(readLimit)
	connection.SetReadDeadline(time.Now().Add(pongWait))
	connection.SetPongHandler(func(string) error {
		connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	select {
	case h.register <- connection:
	case <-h.done:
		connection.Close()
		return
	}
	defer func() {
		select {
		case h.unregister <- connection:
		case <-h.done:
		}
	}()

	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			return
		}
	}
}
