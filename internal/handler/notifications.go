package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// NotificationHandler serves the in-memory notification inbox and its live stream
type NotificationHandler struct {
	notifications services.NotificationService
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

// NewNotificationHandler creates a new notification handler. checkOrigin
// guards WebSocket upgrades; nil keeps gorilla's same-origin check.
func NewNotificationHandler(
	notifications services.NotificationService,
	checkOrigin func(*http.Request) bool,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// InboxResponse is the caller's notifications plus the unread count
type InboxResponse struct {
	Notifications interface{} `json:"notifications"`
	UnreadCount   int         `json:"unreadCount"`
}

// List returns the caller's notifications, newest first
// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUserEmail(r)
	httputil.RespondJSON(w, http.StatusOK, InboxResponse{
		Notifications: h.notifications.List(user),
		UnreadCount:   h.notifications.UnreadCount(user),
	})
}

// RecentUnread returns the newest unread notifications
// GET /api/notifications/unread?limit=5
func (h *NotificationHandler) RecentUnread(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUserEmail(r)
	httputil.RespondJSON(w, http.StatusOK, InboxResponse{
		Notifications: h.notifications.RecentUnread(user, httputil.QueryInt(r, "limit", 0)),
		UnreadCount:   h.notifications.UnreadCount(user),
	})
}

// MarkRead marks one notification read
// POST /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	err := h.notifications.MarkRead(httputil.GetUserEmail(r), r.PathValue("id"))
	respond(w, http.StatusNoContent, nil, err)
}

// MarkAllRead marks every notification read
// POST /api/notifications/read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.notifications.MarkAllRead(httputil.GetUserEmail(r))
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes one notification
// DELETE /api/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.notifications.Delete(httputil.GetUserEmail(r), r.PathValue("id"))
	respond(w, http.StatusNoContent, nil, err)
}

// DeleteAll clears the inbox
// DELETE /api/notifications
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	h.notifications.DeleteAll(httputil.GetUserEmail(r))
	w.WriteHeader(http.StatusNoContent)
}

// StreamEvent is one WebSocket frame
type StreamEvent struct {
	Event        string      `json:"event"` // "unread" or "notification"
	UnreadCount  int         `json:"unreadCount"`
	Notification interface{} `json:"notification,omitempty"`
}

// Stream pushes new notifications over a WebSocket until the client goes away.
// The first frame carries the current unread count.
// GET /api/notifications/ws
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUserEmail(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.notifications.Subscribe(user)
	defer cancel()

	// The read loop only services control frames and notices the close.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("websocket closed", "user", user, "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	send := func(ev StreamEvent) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Debug("websocket write failed", "user", user, "error", err)
			return false
		}
		return true
	}

	if !send(StreamEvent{Event: "unread", UnreadCount: h.notifications.UnreadCount(user)}) {
		return
	}
	h.logger.Info("notification stream opened", "user", user)

	for {
		select {
		case n, ok := <-events:
			if !ok {
				return
			}
			if !send(StreamEvent{
				Event:        "notification",
				UnreadCount:  h.notifications.UnreadCount(user),
				Notification: n,
			}) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
