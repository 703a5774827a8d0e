package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/RudyMontoo/10-AITASK/internal/scenario"
	"github.com/RudyMontoo/10-AITASK/internal/sim"
)

const (
	sendBuffer   = 64
	writeWait    = 10 * time.Second
	maxCommandSz = 4096
)

var errHubClosed = errors.New("server: hub closed")

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// command is a client request on the websocket.
type command struct {
	Command string `json:"command"`
}

// Client is one websocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type reply struct {
	client *Client
	msg    []byte
}

// Hub fans the frames of one task out to its clients. At most one run per
// task is active at a time.
type Hub struct {
	task   *scenario.Scenario
	config sim.Config
	base   *slog.Logger
	logger *slog.Logger
	ctx    context.Context

	// Owned by run.
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan reply
	done       chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc // Cancels the active run, nil when idle
	runs   sync.WaitGroup
}

func newHub(ctx context.Context, task *scenario.Scenario, config sim.Config, logger *slog.Logger) *Hub {
	return &Hub{
		task:       task,
		config:     config,
		base:       logger,
		logger:     logger.With("task", task.Name),
		ctx:        ctx,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan reply, sendBuffer),
		done:       make(chan struct{}),
	}
}

// run owns the client set until the hub context is done.
func (h *Hub) run() {
	defer func() {
		close(h.done)
		h.runs.Wait()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	}()

	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("client joined", "client", c.id, "clients", len(h.clients))
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("client left", "client", c.id, "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				h.deliver(c, msg)
			}
		case r := <-h.direct:
			if h.clients[r.client] {
				h.deliver(r.client, r.msg)
			}
		}
	}
}

// deliver queues msg for c, dropping c when its buffer is full.
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
		h.logger.Warn("slow client dropped", "client", c.id)
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) publish(f sim.Frame) error {
	f.Task = h.task.Name
	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return errHubClosed
	}
}

func (h *Hub) replyTo(c *Client, f sim.Frame) {
	f.Task = h.task.Name
	msg, err := json.Marshal(f)
	if err != nil {
		h.logger.Warn("encoding reply", "type", f.Type, "error", err)
		return
	}
	select {
	case h.direct <- reply{client: c, msg: msg}:
	case <-h.done:
	}
}

// start launches a run unless one is already active.
func (h *Hub) start(c *Client) {
	h.mu.Lock()
	if h.cancel != nil {
		h.mu.Unlock()
		h.replyTo(c, sim.Frame{Type: sim.FrameError, Message: "simulation already running"})
		return
	}
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return
	}
	simulation, err := h.task.Simulation(h.base)
	if err != nil {
		h.mu.Unlock()
		h.replyTo(c, sim.Frame{Type: sim.FrameError, Message: err.Error()})
		return
	}
	ctx, cancel := context.WithCancel(h.ctx)
	h.cancel = cancel
	h.runs.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.runs.Done()
		_, err := sim.NewRunner(h.config, h.logger).Run(ctx, simulation, h.publish)

		h.mu.Lock()
		h.cancel = nil
		h.mu.Unlock()
		cancel()

		switch {
		case errors.Is(err, context.Canceled):
			_ = h.publish(sim.Frame{Type: sim.FrameStopped})
		case errors.Is(err, errHubClosed):
		case err != nil:
			h.logger.Error("simulation failed", "error", err)
			_ = h.publish(sim.Frame{Type: sim.FrameError, Message: err.Error()})
		}
	}()
}

// stop cancels the active run. The run goroutine broadcasts the stopped frame.
func (h *Hub) stop(c *Client) {
	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()
	if cancel == nil {
		h.replyTo(c, sim.Frame{Type: sim.FrameError, Message: "no simulation running"})
		return
	}
	cancel()
}

func (c *Client) reader() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxCommandSz)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.hub.replyTo(c, sim.Frame{Type: sim.FrameError, Message: "invalid command"})
			continue
		}
		switch cmd.Command {
		case "start":
			c.hub.start(c)
		case "stop":
			c.hub.stop(c)
		default:
			c.hub.replyTo(c, sim.Frame{Type: sim.FrameError, Message: "unknown command " + cmd.Command})
		}
	}
}

func (c *Client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) serveWS(c *gin.Context) {
	task, ok := s.catalogue.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task " + c.Param("id")})
		return
	}

	// Join before the handshake completes so no frame is missed.
	h := s.hub(task)
	client := &Client{id: uuid.NewString(), hub: h, send: make(chan []byte, sendBuffer)}
	if !h.join(client) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server shutting down"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.leave(client)
		s.logger.Warn("websocket upgrade failed", "task", task.Name, "error", err)
		return
	}
	client.conn = conn
	go client.writer()
	go client.reader()
}
