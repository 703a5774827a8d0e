// Package server exposes the scenario catalogue over HTTP and streams
// simulation runs to websocket clients.
//
// Routes:
//
//	GET /                   service banner
//	GET /api/tasks          scenario catalogue
//	GET /api/tasks/:id/plan cooperative plan of a path planning task
//	GET /ws/:id             step stream of a task
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RudyMontoo/10-AITASK/internal/algo"
	"github.com/RudyMontoo/10-AITASK/internal/core"
	"github.com/RudyMontoo/10-AITASK/internal/scenario"
	"github.com/RudyMontoo/10-AITASK/internal/sim"
)

// Version is reported by GET /.
const Version = "1.0.0"

// Config configures a Server.
type Config struct {
	Catalogue *scenario.Catalogue
	Runner    sim.Config
	Logger    *slog.Logger
}

// Server serves the REST routes and the websocket hubs.
type Server struct {
	catalogue *scenario.Catalogue
	runner    sim.Config
	logger    *slog.Logger

	mu   sync.Mutex
	hubs map[string]*Hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. Call Close to stop every hub and run.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		catalogue: config.Catalogue,
		runner:    config.Runner,
		logger:    logger,
		hubs:      make(map[string]*Hub),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handler builds the gin engine.
func (s *Server) Handler() *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(s.logger), gin.Recovery())

	router.GET("/", s.index)
	api := router.Group("/api")
	{
		api.GET("/tasks", s.listTasks)
		api.GET("/tasks/:id/plan", s.plan)
	}
	router.GET("/ws/:id", s.serveWS)
	return router
}

// Close stops every hub and waits for their runs to end.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// hub returns the hub of task, starting it on first use.
func (s *Server) hub(task *scenario.Scenario) *Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.hubs[task.Name]; ok {
		return h
	}
	h := newHub(s.ctx, task, task.RunnerConfig(s.runner), s.logger)
	s.hubs[task.Name] = h
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		h.run()
	}()
	return h
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Grid simulation server", "version": Version})
}

type taskInfo struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Kind   scenario.Kind `json:"kind"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Agents int           `json:"agents"`
}

func (s *Server) listTasks(c *gin.Context) {
	all := s.catalogue.All()
	out := make([]taskInfo, 0, len(all))
	for _, t := range all {
		name := t.Title
		if name == "" {
			name = t.Name
		}
		out = append(out, taskInfo{
			ID:     t.Name,
			Name:   name,
			Kind:   t.Kind,
			Width:  t.Width,
			Height: t.Height,
			Agents: len(t.Agents),
		})
	}
	c.JSON(http.StatusOK, out)
}

type agentPath struct {
	ID   core.AgentID `json:"id"`
	Path core.Path    `json:"path"`
}

type planResponse struct {
	Task      string          `json:"task"`
	Solver    string          `json:"solver"`
	Order     []core.AgentID  `json:"order"`
	Stranded  []core.AgentID  `json:"stranded"`
	Makespan  int             `json:"makespan"`
	Cost      int             `json:"cost"`
	TimeMs    float64         `json:"time_ms"`
	Paths     []agentPath     `json:"paths"`
	Conflicts []algo.Conflict `json:"conflicts"`
}

func (s *Server) plan(c *gin.Context) {
	task, ok := s.catalogue.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task " + c.Param("id")})
		return
	}
	inst, err := task.Instance()
	if errors.Is(err, scenario.ErrNotCooperative) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	solver := task.Solver(s.logger.With("task", task.Name))
	start := time.Now()
	sol, err := solver.Solve(inst)
	elapsed := time.Since(start)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := planResponse{
		Task:      task.Name,
		Solver:    solver.Name(),
		Order:     sol.Order,
		Stranded:  sol.Stranded,
		Makespan:  sol.Makespan,
		Cost:      sol.Cost,
		TimeMs:    float64(elapsed.Microseconds()) / 1000,
		Conflicts: algo.FindConflicts(sol.Paths),
	}
	if resp.Stranded == nil {
		resp.Stranded = []core.AgentID{}
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []algo.Conflict{}
	}
	for _, a := range inst.Agents {
		resp.Paths = append(resp.Paths, agentPath{ID: a.ID, Path: sol.Paths[a.ID]})
	}
	c.JSON(http.StatusOK, resp)
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
