package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/internal/domain/repository"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/response"
)

// AdminHandler serves the aggregation views. GCS and GCSBucket are optional;
// when set, CSV exports are archived to the bucket after being served.
type AdminHandler struct {
	Store     repository.Store
	Svc       *application.ReportService
	Logger    *logrus.Logger
	GCS       *storage.Client
	GCSBucket string
}

func NewAdminHandler(store repository.Store, reports *application.ReportService, logger *logrus.Logger, gcs *storage.Client, bucket string) *AdminHandler {
	return &AdminHandler{Store: store, Svc: reports, Logger: logger, GCS: gcs, GCSBucket: bucket}
}

// ListEntries returns every entry across all users, optionally narrowed by
// userId, projectId, and days query parameters.
func (h *AdminHandler) ListEntries(c *gin.Context) {
	filter := application.EntryFilter{
		UserID:    queryInt64(c, "userId"),
		ProjectID: queryInt64(c, "projectId"),
		Days:      int(queryInt64(c, "days")),
	}
	entries, err := h.Svc.Entries(c.Request.Context(), filter, time.Now())
	if err != nil {
		h.Logger.WithError(err).Error("admin entry list failed")
		response.Error(c, http.StatusInternalServerError, "could not load entries", nil)
		return
	}
	response.Success(c, http.StatusOK, entries, "")
}

// ListUsers returns every account, admin and employee alike. Per-employee
// rollups live under /reports.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("user list failed")
		response.Error(c, http.StatusInternalServerError, "could not load users", nil)
		return
	}
	response.Success(c, http.StatusOK, users, "")
}

// Reports returns both rollups in one payload for the admin dashboard.
func (h *AdminHandler) Reports(c *gin.Context) {
	ctx := c.Request.Context()
	employees, err := h.Svc.EmployeeRollups(ctx, time.Now())
	if err != nil {
		h.Logger.WithError(err).Error("employee rollup failed")
		response.Error(c, http.StatusInternalServerError, "could not load report", nil)
		return
	}
	projects, err := h.Svc.ProjectRollups(ctx)
	if err != nil {
		h.Logger.WithError(err).Error("project rollup failed")
		response.Error(c, http.StatusInternalServerError, "could not load report", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"byEmployee": employees, "byProject": projects}, "")
}

// Export streams all entries as CSV. When a bucket is configured the same
// bytes are archived to GCS from a detached goroutine.
func (h *AdminHandler) Export(c *gin.Context) {
	entries, err := h.Store.ListAllEntries(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("export failed")
		response.Error(c, http.StatusInternalServerError, "could not export entries", nil)
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "username", "project", "date", "time_spent", "created_at"})
	for _, e := range entries {
		username, project := "", ""
		if e.User != nil {
			username = e.User.Username
		}
		if e.Project != nil {
			project = e.Project.Name
		}
		_ = w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			username,
			project,
			e.Date,
			strconv.FormatFloat(e.TimeSpent, 'g', -1, 64),
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()

	name := fmt.Sprintf("time-entries-%s.csv", time.Now().UTC().Format("2006-01-02T15-04-05"))
	if h.GCS != nil && h.GCSBucket != "" {
		archived := make([]byte, buf.Len())
		copy(archived, buf.Bytes())
		go h.archive(name, archived)
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *AdminHandler) archive(name string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	url, err := helpers.UploadObject(ctx, h.GCS, h.GCSBucket, "exports/"+name, "text/csv", bytes.NewReader(data))
	if err != nil {
		h.Logger.WithError(err).WithField("object", name).Warn("export archive failed")
		return
	}
	h.Logger.WithField("url", url).Info("export archived")
}

func queryInt64(c *gin.Context, key string) int64 {
	v := c.Query(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
