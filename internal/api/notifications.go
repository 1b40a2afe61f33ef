package api

import "net/http"

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	notifications, err := h.service.ListNotifications(r.Context(), claims.Subject, queryLimit(r, 50, 200))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, toNotificationView(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) unreadNotifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	count, err := h.service.UnreadNotificationCount(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	if err := h.service.MarkNotificationRead(r.Context(), claims.Subject, r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllNotificationsRead(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}
