package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	generationdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/generation/domain"
	"go.uber.org/zap"
)

type generateRequest struct {
	Documents []string                 `json:"documents"`
	Options   generationdomain.Options `json:"options"`
	Provider  string                   `json:"provider"`
	Model     string                   `json:"model"`
}

func (r generateRequest) documentKinds() []generationdomain.DocumentKind {
	kinds := make([]generationdomain.DocumentKind, 0, len(r.Documents))
	for _, d := range r.Documents {
		kinds = append(kinds, generationdomain.DocumentKind(d))
	}
	return kinds
}

// GenerateDocuments runs the pipeline for a project and streams
// progress as server-sent events. Each event is one JSON object;
// exactly one terminal complete or error event closes the stream.
func (s *Server) GenerateDocuments(c *gin.Context) {
	user := userID(c)
	if !s.generateRate.Allow(user) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": apiError{
			Status:  http.StatusTooManyRequests,
			Code:    "rate_limited",
			Message: "too many generation requests",
		}})
		return
	}

	projectID, err := parseProjectID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Get(c.Request.Context(), user, projectID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	runReq := generationdomain.Request{
		ProjectID: project.ID,
		UserID:    user,
		Title:     project.Title,
		Subject:   stringOption(project.Options, "subject"),
		Grade:     stringOption(project.Options, "grade_level"),
		Documents: req.documentKinds(),
		Options:   req.Options,
		Provider:  req.Provider,
		Model:     req.Model,
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	terminalSent := false
	sink := func(event generationdomain.Event) {
		if event.Type != generationdomain.EventTypeProgress {
			terminalSent = true
		}
		writeSSE(c, event)
	}

	_, runErr := s.generateSvc.Run(c.Request.Context(), runReq, sink)
	if runErr != nil {
		s.log.Warn("generation run failed",
			zap.Int64("project_id", int64(project.ID)),
			zap.Error(runErr),
		)
		// Admission failures happen before the pipeline emits any
		// event, so the stream still needs its terminal error.
		if !terminalSent {
			writeSSE(c, generationdomain.Event{
				Type:    generationdomain.EventTypeError,
				Message: runErr.Error(),
			})
		}
	}
	s.balanceCache.Delete(user)
}

// writeSSE frames one event as a single data line.
func writeSSE(c *gin.Context, event generationdomain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = c.Writer.WriteString("data: ")
	_, _ = c.Writer.Write(payload)
	_, _ = c.Writer.WriteString("\n\n")
	c.Writer.Flush()
}

func stringOption(options map[string]any, key string) string {
	if options == nil {
		return ""
	}
	if v, ok := options[key].(string); ok {
		return v
	}
	return ""
}

type estimateRequest struct {
	Options generationdomain.Options `json:"options"`
}

// EstimateGeneration quotes the credit cost without reserving
// anything. It runs the same cost formula the pipeline uses at
// admission.
func (s *Server) EstimateGeneration(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.generateSvc.EstimateCost(req.Options)})
}
