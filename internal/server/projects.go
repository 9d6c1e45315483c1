package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/theronnieguidry/teachers-assistant-sub004/internal/observability/context"
	projectdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/project/domain"
	"github.com/theronnieguidry/teachers-assistant-sub004/internal/seed"
)

// userID resolves the acting user. There is no authentication layer;
// a proxy in front of the service may set X-User-Id, and the local
// single-user install falls back to the seeded account.
func userID(c *gin.Context) string {
	if id := obscontext.UserIDFromGin(c); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-User-Id")); id != "" {
		return id
	}
	return seed.DefaultUserID
}

// IdentityMiddleware stamps the resolved user onto the request
// context so downstream logs carry it.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(
			obscontext.WithUserID(c.Request.Context(), userID(c)),
		)
		c.Next()
	}
}

func parseProjectID(c *gin.Context) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError("id", "invalid_project_id", "invalid project id")
	}
	return snowflake.ID(id), nil
}

type createProjectRequest struct {
	Title   string         `json:"title"`
	Options map[string]any `json:"options"`
}

func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	project, err := s.projectSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.Title), req.Options)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) ListProjects(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	projects, err := s.projectSvc.List(c.Request.Context(), userID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) GetProject(c *gin.Context) {
	id, err := parseProjectID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	project, err := s.projectSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var version *projectdomain.Version
	version, err = s.projectSvc.LatestVersion(c.Request.Context(), project.ID)
	if err != nil && !errors.Is(err, projectdomain.ErrVersionNotFound) {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"project":        project,
		"latest_version": version,
	}})
}
