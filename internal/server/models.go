package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ModelStatus returns the cached readiness snapshot without probing.
func (s *Server) ModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.readiness.CurrentState()})
}

// WarmupModels triggers (or joins) a warmup and returns the resulting
// state. Failure modes are encoded in the state, never as an HTTP
// error: a missing local runtime is a normal condition.
func (s *Server) WarmupModels(c *gin.Context) {
	state := s.readiness.Warmup(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": state})
}
