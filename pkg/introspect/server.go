// Package introspect exposes a read-only HTTP reporter over a
// running Runtime's scheduler/queue/board state, the way
// cmd/tarsy/main.go exposes a /health endpoint over its service
// layer. It never triggers iterations or mutates simulation state.
package introspect

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flame-hpc/flame2/pkg/flame2"
)

// Server wraps a *gin.Engine reporting health over rt.
type Server struct {
	engine *gin.Engine
	rt     *flame2.Runtime
}

// New builds a Server for rt. Callers run it with ListenAndServe or
// embed engine.Handler() in their own mux.
func New(rt *flame2.Runtime) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, rt: rt}
	engine.GET("/health", s.handleHealth)
	return s
}

// Engine exposes the underlying gin engine, e.g. for ListenAndServe.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) handleHealth(c *gin.Context) {
	queues := s.rt.Health()
	queueReports := make([]gin.H, 0, len(queues))
	for _, q := range queues {
		queueReports = append(queueReports, gin.H{
			"name":   q.Name,
			"slots":  q.Slots,
			"depth":  q.Depth,
			"active": q.Active,
		})
	}

	status := "healthy"
	for _, q := range queues {
		if int(q.Active) > q.Slots {
			status = "unhealthy"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"queues": queueReports,
		"boards": s.rt.Boards().Names(),
	})
}
