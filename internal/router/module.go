package router

import "github.com/gin-gonic/gin"

// Module is a feature area (auth, timesheet, admin, debug) that registers
// its own routes and route-local middleware on the shared /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}
