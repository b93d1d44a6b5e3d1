// Package httpapi exposes the reasoner and query engine over HTTP:
// POST /reason loads rules and materializes, POST /query runs pattern
// joins through the planner, GET /stream registers a websocket
// subscriber on the server's Broadcaster. The server attaches no Window
// and never calls Broadcast, so no reports are sent to those subscribers.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/wbrown/reasongraph/kg/executor"
	"github.com/wbrown/reasongraph/kg/planner"
	"github.com/wbrown/reasongraph/kg/reasoner"
	"github.com/wbrown/reasongraph/kg/stream"
)

// Server wires a reasoner, its derived planner/executor, and the
// streaming broadcaster behind a gin.Engine.
type Server struct {
	engine      *gin.Engine
	reasoner    *reasoner.Reasoner
	planner     *planner.Planner
	executor    *executor.Executor
	broadcaster *stream.Broadcaster
}

// NewServer builds a Server over r, computing fresh planner statistics
// from r's current index.
func NewServer(r *reasoner.Reasoner) *Server {
	stats := planner.BuildStatistics(r.Index())
	s := &Server{
		reasoner:    r,
		planner:     planner.NewPlanner(stats),
		executor:    executor.NewExecutor(r.Index(), r.Dictionary(), nil, nil),
		broadcaster: stream.NewBroadcaster(),
	}
	s.engine = gin.Default()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.POST("/reason", s.handleReason)
	s.engine.POST("/query", s.handleQuery)
	s.engine.GET("/stream", s.handleStream)
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "size": s.reasoner.Size()})
	})
}

// Engine returns the underlying gin.Engine, e.g. for ListenAndServe.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handleStream(c *gin.Context) {
	if _, err := s.broadcaster.Upgrade(c.Writer, c.Request); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
	}
}
