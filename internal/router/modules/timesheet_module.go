package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daylog-hq/daylog/internal/container"
	handlers "github.com/daylog-hq/daylog/internal/interface/http"
	"github.com/daylog-hq/daylog/internal/interface/middleware"
	"github.com/daylog-hq/daylog/pkg/helpers"
)

// TimesheetModule wires the employee-facing routes.
// Protected: GET /api/projects, GET /api/time-entries, POST /api/time-entries

type TimesheetModule struct {
	Handler *handlers.TimesheetHandler
	JWT     *helpers.JWTManager
}

func NewTimesheetModule(h *handlers.TimesheetHandler, jwt *helpers.JWTManager) *TimesheetModule {
	return &TimesheetModule{Handler: h, JWT: jwt}
}

func (m *TimesheetModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	// Softer per-user limiter on write traffic
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/projects", m.Handler.ListProjects)
		auth.GET("/time-entries", m.Handler.ListEntries)
		auth.POST("/time-entries", m.Handler.CreateEntry)
	}
}
