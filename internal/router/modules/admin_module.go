package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/daylog-hq/daylog/internal/container"
	handlers "github.com/daylog-hq/daylog/internal/interface/http"
	"github.com/daylog-hq/daylog/internal/interface/middleware"
	"github.com/daylog-hq/daylog/pkg/helpers"
)

// AdminModule wires the aggregation views under /api/admin. Every route
// requires an authenticated admin session.

type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(
		middleware.Auth(container.GetRedis(), m.JWT),
		middleware.RequireAdmin(container.GetStore()),
	)
	{
		admin.GET("/time-entries", m.Handler.ListEntries)
		admin.GET("/users", m.Handler.ListUsers)
		admin.GET("/reports", m.Handler.Reports)
		admin.GET("/export", m.Handler.Export)
	}
}
