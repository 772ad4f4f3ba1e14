// Package remote exposes the running globe over a websocket: playback
// events go out to every client and clients may send simple commands back.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types sent to clients.
const (
	TypeState             = "state"
	TypeTarget            = "target"
	TypeVisited           = "visited"
	TypeAnimationComplete = "animation_complete"
)

type Message struct {
	Type    string    `json:"type"`
	State   string    `json:"state,omitempty"`
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name,omitempty"`
	Visited int       `json:"visited,omitempty"`
	Total   int       `json:"total,omitempty"`
	Time    time.Time `json:"time"`
}

type Command string

const (
	CommandStart    Command = "start"
	CommandStop     Command = "stop"
	CommandToggle   Command = "toggle"
	CommandToggleUI Command = "toggle_ui"
)

func (c Command) valid() bool {
	switch c {
	case CommandStart, CommandStop, CommandToggle, CommandToggleUI:
		return true
	}
	return false
}

const (
	writeWait     = 5 * time.Second
	outboxSize    = 256
	commandBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub tracks connected clients. Publish never blocks the caller; messages
// are written by Run.
type Hub struct {
	mu        sync.Mutex
	conns     map[*websocket.Conn]bool
	lastState []byte

	outbox   chan Message
	commands chan Command
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[*websocket.Conn]bool),
		outbox:   make(chan Message, outboxSize),
		commands: make(chan Command, commandBuffer),
	}
}

// Commands delivers client commands. Drain it from the game loop.
func (h *Hub) Commands() <-chan Command { return h.commands }

// Publish queues msg for broadcast. When the queue is full the message is
// dropped.
func (h *Hub) Publish(msg Message) {
	if msg.Time.IsZero() {
		msg.Time = time.Now()
	}
	select {
	case h.outbox <- msg:
	default:
		log.Printf("[REMOTE] Outbox full, dropping %s message", msg.Type)
	}
}

// Run writes queued messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.outbox:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[REMOTE] Failed to marshal %s message: %v", msg.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if msg.Type == TypeState {
		h.lastState = data
	}
	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[REMOTE] Failed to send to %s: %v", conn.RemoteAddr(), err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) subscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
	if h.lastState != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.TextMessage, h.lastState)
	}
}

func (h *Hub) unsubscribe(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

// ConnectionCount returns the number of connected clients.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request and reads commands until the client goes
// away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[REMOTE] Upgrade failed: %v", err)
		return
	}
	h.subscribe(conn)
	log.Printf("[REMOTE] Client connected: %s", conn.RemoteAddr())

	defer func() {
		h.unsubscribe(conn)
		_ = conn.Close()
		log.Printf("[REMOTE] Client disconnected: %s", conn.RemoteAddr())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[REMOTE] Read error: %v", err)
			}
			return
		}
		var req struct {
			Command Command `json:"command"`
		}
		if err := json.Unmarshal(data, &req); err != nil || !req.Command.valid() {
			log.Printf("[REMOTE] Ignoring unknown command: %.100s", data)
			continue
		}
		select {
		case h.commands <- req.Command:
		default:
			log.Printf("[REMOTE] Command queue full, dropping %s", req.Command)
		}
	}
}

// Serve listens on addr with the hub mounted at /ws until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go h.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[REMOTE] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
