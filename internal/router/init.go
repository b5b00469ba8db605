package router

import (
	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/internal/container"
	handlers "github.com/daylog-hq/daylog/internal/interface/http"
	"github.com/daylog-hq/daylog/internal/router/modules"
)

// InitModules builds the services and handlers from the container singletons
// and registers every feature module with the router registry. Call once
// during startup, after the container is populated.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	store := container.GetStore()
	logger := container.GetLogger()

	authSvc := application.NewAuthService(store, container.GetJWT(), container.GetRedis(), logger)
	timesheetSvc := application.NewTimesheetService(store, mirrorOrNil(), container.GetRabbitPub(), logger)
	reportSvc := application.NewReportService(store, logger)

	authHandler := handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure)
	timesheetHandler := handlers.NewTimesheetHandler(timesheetSvc, logger)
	adminHandler := handlers.NewAdminHandler(store, reportSvc, logger, container.GetGCS(), cfg.GCSBucket)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewTimesheetModule(timesheetHandler, container.GetJWT()))
	r.Add(modules.NewAdminModule(adminHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}

// mirrorOrNil avoids handing the service a non-nil interface wrapping a nil
// *sheets.Client.
func mirrorOrNil() application.Mirror {
	if c := container.GetSheets(); c != nil {
		return c
	}
	return nil
}
