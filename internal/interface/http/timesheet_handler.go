package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/pkg/response"
	"github.com/daylog-hq/daylog/pkg/validation"
)

type TimesheetHandler struct {
	Svc    *application.TimesheetService
	Logger *logrus.Logger
}

func NewTimesheetHandler(svc *application.TimesheetService, logger *logrus.Logger) *TimesheetHandler {
	return &TimesheetHandler{Svc: svc, Logger: logger}
}

type createEntryRequest struct {
	ProjectID int64   `json:"projectId" binding:"required"`
	Date      string  `json:"date" binding:"required,entrydate"`
	TimeSpent float64 `json:"timeSpent" binding:"required,timespent"`
}

// ListProjects returns the active projects available for logging.
func (h *TimesheetHandler) ListProjects(c *gin.Context) {
	projects, err := h.Svc.ListProjects(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("project list failed")
		response.Error(c, http.StatusInternalServerError, "could not load projects", nil)
		return
	}
	response.Success(c, http.StatusOK, projects, "")
}

// ListEntries returns the caller's own entries, newest first.
func (h *TimesheetHandler) ListEntries(c *gin.Context) {
	entries, err := h.Svc.EntriesForUser(c.Request.Context(), c.GetInt64("userID"))
	if err != nil {
		h.Logger.WithError(err).Error("entry list failed")
		response.Error(c, http.StatusInternalServerError, "could not load entries", nil)
		return
	}
	response.Success(c, http.StatusOK, entries, "")
}

// CreateEntry logs time against a project for a date, subject to the
// one-day-per-date cap.
func (h *TimesheetHandler) CreateEntry(c *gin.Context) {
	var req createEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	e, err := h.Svc.AdmitEntry(c.Request.Context(), c.GetInt64("userID"), req.ProjectID, req.Date, req.TimeSpent)
	if err != nil {
		var verr *errs.ValidationError
		var cerr *errs.CapacityError
		switch {
		case errors.As(err, &verr):
			response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{verr.Field: verr.Reason})
		case errors.As(err, &cerr):
			response.Error(c, http.StatusBadRequest, cerr.Error(), map[string]any{
				"date":      cerr.Date,
				"current":   cerr.Current,
				"requested": cerr.Requested,
			})
		case errors.Is(err, errs.ErrNotFound):
			response.Error(c, http.StatusBadRequest, "unknown project", map[string]string{
				"projectId": fmt.Sprintf("project %d does not exist", req.ProjectID),
			})
		default:
			h.Logger.WithError(err).Error("entry create failed")
			response.Error(c, http.StatusInternalServerError, "could not save entry", nil)
		}
		return
	}
	response.Success(c, http.StatusCreated, e, "entry logged")
}
