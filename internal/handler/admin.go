package handler

import (
	"net/http"
	"time"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

// AdminHandler serves the activity log to admins
type AdminHandler struct {
	activity services.ActivityLogService
	admins   services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(activity services.ActivityLogService, admins services.AdminService) *AdminHandler {
	return &AdminHandler{activity: activity, admins: admins}
}

// ListLogs returns activity log entries, newest first. Query parameters
// filter by user, action, resourceType and an RFC 3339 start/end range.
// GET /api/admin/logs
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ActivityFilter{
		UserEmail:    q.Get("user"),
		Action:       models.Action(q.Get("action")),
		ResourceType: models.ResourceType(q.Get("resourceType")),
	}
	var err error
	if filter.Start, err = parseTime(q.Get("start")); err != nil {
		handleError(w, err)
		return
	}
	if filter.End, err = parseTime(q.Get("end")); err != nil {
		handleError(w, err)
		return
	}

	if filter == (models.ActivityFilter{}) {
		httputil.RespondJSON(w, http.StatusOK, h.activity.List())
		return
	}
	httputil.RespondJSON(w, http.StatusOK, h.activity.Filter(filter))
}

// Stats returns activity counts by action
// GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.activity.Stats())
}

// AdminStatus reports whether the caller is an admin
// GET /api/admin/me
func (h *AdminHandler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{
		"admin": h.admins.IsAdmin(httputil.GetUserEmail(r)),
	})
}

func parseTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, &domain.ValidationError{Message: "time must be RFC 3339: " + v}
	}
	return &t, nil
}
